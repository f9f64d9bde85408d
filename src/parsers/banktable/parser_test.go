package banktable

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/michaelkielt/etl-banks-project/src/models"
	"github.com/michaelkielt/etl-banks-project/src/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const banksPage = `<!DOCTYPE html>
<html><body>
<h2>By market capitalization</h2>
<table class="wikitable">
<tbody>
<tr><th>Rank</th><th>Bank name</th><th>Market cap<br>(US$ billion)</th></tr>
<tr><td>1</td><td><span class="flagicon"><img src="us.png"></span> <a href="/wiki/BankA">BankA</a></td><td>100.5
</td></tr>
<tr><td>2</td><td>Broken row</td></tr>
<tr><td>3</td><td>  Bank&nbsp;of
  B  </td><td> 50.25 </td></tr>
</tbody>
</table>
<table><tbody><tr><td>x</td><td>Other</td><td>1</td></tr></tbody></table>
</body></html>`

func TestParseKeepsValidRowsInOrder(t *testing.T) {
	res, err := Parse(strings.NewReader(banksPage), Options{})
	require.NoError(t, err)

	assert.Equal(t, []models.BankRecord{
		{Name: "BankA", MarketCapUSDBillion: 100.5},
		{Name: "Bank of B", MarketCapUSDBillion: 50.25},
	}, res.Records)
	assert.Equal(t, 1, res.Skipped)
}

func TestParseSkipsHeaderRow(t *testing.T) {
	// The first body row is dropped even when it has three data cells.
	page := `<table><tr><td>1</td><td>Header</td><td>9</td></tr><tr><td>2</td><td>Real</td><td>7.5</td></tr></table>`

	res, err := Parse(strings.NewReader(page), Options{})
	require.NoError(t, err)
	assert.Equal(t, []models.BankRecord{{Name: "Real", MarketCapUSDBillion: 7.5}}, res.Records)
}

func TestParseUsesFirstBodyOfFirstTable(t *testing.T) {
	page := `<table>
<thead><tr><th>Rank</th><th>Bank</th><th>Cap</th></tr></thead>
<tbody><tr><th colspan="3">Top</th></tr><tr><td>1</td><td>Alpha</td><td>12</td></tr></tbody>
</table>`

	res, err := Parse(strings.NewReader(page), Options{})
	require.NoError(t, err)
	assert.Equal(t, []models.BankRecord{{Name: "Alpha", MarketCapUSDBillion: 12}}, res.Records)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{
			name: "no table",
			page: `<html><body><p>nothing here</p></body></html>`,
			want: "no table",
		},
		{
			name: "empty table",
			page: `<table></table>`,
			want: "no body",
		},
		{
			name: "non numeric market cap",
			page: `<table><tr><th>h</th></tr><tr><td>1</td><td>BankA</td><td>n/a</td></tr></table>`,
			want: `"n/a" is not a number`,
		},
		{
			name: "NaN market cap",
			page: `<table><tr><th>h</th></tr><tr><td>1</td><td>BankA</td><td>NaN</td></tr></table>`,
			want: `"NaN" is not a number`,
		},
		{
			name: "infinite market cap",
			page: `<table><tr><th>h</th></tr><tr><td>1</td><td>BankA</td><td>-Infinity</td></tr></table>`,
			want: `"-Infinity" is not a number`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.page), Options{})
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrParse)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseStrictRows(t *testing.T) {
	_, err := Parse(strings.NewReader(banksPage), Options{StrictRows: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrParse)
	assert.Contains(t, err.Error(), "has 2 cells")

	// Rows made only of header cells are still skipped.
	page := `<table><tr><th>h</th></tr><tr><th colspan="3">Group</th></tr><tr><td>1</td><td>A</td><td>2</td></tr></table>`
	res, err := Parse(strings.NewReader(page), Options{StrictRows: true})
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
}

type failingSource struct{ err error }

func (f failingSource) Fetch(ctx context.Context) (io.ReadCloser, error) { return nil, f.err }

func TestExtract(t *testing.T) {
	columns := []string{"Name", "MC_USD_Billion"}

	table, err := Extract(context.Background(), sources.StaticSource{Document: banksPage}, columns, Options{})
	require.NoError(t, err)
	assert.Equal(t, columns, table.Columns)
	assert.Len(t, table.Records, 2)
	assert.Equal(t, 1, table.Skipped)

	_, err = Extract(context.Background(), sources.StaticSource{Document: banksPage}, []string{"Name"}, Options{})
	assert.ErrorIs(t, err, models.ErrConfig)

	netErr := errors.Join(models.ErrNetwork, errors.New("dial tcp: refused"))
	_, err = Extract(context.Background(), failingSource{err: netErr}, columns, Options{})
	assert.ErrorIs(t, err, models.ErrNetwork)
}
