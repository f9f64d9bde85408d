// src/parsers/banktable/parser.go
package banktable

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/michaelkielt/etl-banks-project/src/logger"
	"github.com/michaelkielt/etl-banks-project/src/models"
	"github.com/michaelkielt/etl-banks-project/src/sources"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Positions of the fields inside a data row.
const (
	rowCells        = 3
	nameCellIndex   = 1
	marketCellIndex = 2
)

// Options control how rows are read.
type Options struct {
	// StrictRows rejects data rows whose cell count is not three instead of
	// skipping them. Rows without any <td> cells are skipped either way.
	StrictRows bool
}

// Result is the outcome of parsing a page.
type Result struct {
	Records []models.BankRecord
	Skipped int
}

// Extract fetches the page from src and parses its first table into records
// labelled with columns.
func Extract(ctx context.Context, src sources.TableSource, columns []string, opts Options) (*models.ExtractedTable, error) {
	if len(columns) != 2 {
		return nil, fmt.Errorf("%w: extractor needs 2 output columns, got %d", models.ErrConfig, len(columns))
	}

	body, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	res, err := Parse(body, opts)
	if err != nil {
		return nil, err
	}

	if res.Skipped > 0 {
		logger.FromContext(ctx).Debug("Skipped rows without exactly three cells", "skipped", res.Skipped)
	}

	return &models.ExtractedTable{
		Columns: append([]string(nil), columns...),
		Records: res.Records,
		Skipped: res.Skipped,
	}, nil
}

// Parse reads an HTML document and returns the bank rows of its first table in
// document order. The first body row is treated as the header and dropped.
func Parse(r io.Reader, opts Options) (*Result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read html: %v", models.ErrParse, err)
	}

	table := findFirst(doc, atom.Table)
	if table == nil {
		return nil, fmt.Errorf("%w: document contains no table", models.ErrParse)
	}

	tbody := firstChild(table, atom.Tbody)
	if tbody == nil {
		return nil, fmt.Errorf("%w: first table has no body", models.ErrParse)
	}

	rows := children(tbody, atom.Tr)
	if len(rows) > 0 {
		rows = rows[1:]
	}

	res := &Result{Records: make([]models.BankRecord, 0, len(rows))}
	for i, row := range rows {
		cells := children(row, atom.Td)
		if len(cells) != rowCells {
			if opts.StrictRows && len(cells) > 0 {
				return nil, fmt.Errorf("%w: row %d has %d cells, want %d", models.ErrParse, i+1, len(cells), rowCells)
			}
			res.Skipped++
			continue
		}

		name := cellText(cells[nameCellIndex])
		capText := cellText(cells[marketCellIndex])
		marketCap, err := strconv.ParseFloat(capText, 64)
		if err != nil || math.IsNaN(marketCap) || math.IsInf(marketCap, 0) {
			return nil, fmt.Errorf("%w: row %d (%s): market cap %q is not a number", models.ErrParse, i+1, name, capText)
		}

		res.Records = append(res.Records, models.BankRecord{
			Name:                name,
			MarketCapUSDBillion: marketCap,
		})
	}

	return res, nil
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func firstChild(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}

func children(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			out = append(out, c)
		}
	}
	return out
}

// cellText flattens the text content of a cell, collapsing whitespace and
// dropping unprintable runes such as zero-width spaces.
func cellText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	text := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsPrint(r) {
			return r
		}
		return -1
	}, sb.String())

	return strings.Join(strings.Fields(text), " ")
}
