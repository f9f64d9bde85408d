package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/michaelkielt/etl-banks-project/src/models"
)

// QueryResult holds the rows of a verification query rendered as text.
type QueryResult struct {
	Statement string
	Columns   []string
	Rows      [][]string
}

// Query runs a read statement and collects every row.
func Query(ctx context.Context, db *sql.DB, statement string) (*QueryResult, error) {
	rows, err := db.QueryContext(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("%w: query %q: %v", models.ErrStorage, statement, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: columns of %q: %v", models.ErrStorage, statement, err)
	}

	result := &QueryResult{Statement: statement, Columns: columns}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: scan %q: %v", models.ErrStorage, statement, err)
		}
		line := make([]string, len(values))
		for i, v := range values {
			line[i] = formatValue(v)
		}
		result.Rows = append(result.Rows, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate %q: %v", models.ErrStorage, statement, err)
	}

	return result, nil
}

// Print writes the statement followed by an aligned table of its rows.
func (r *QueryResult) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, r.Statement)
	fmt.Fprintln(tw, "\t"+strings.Join(r.Columns, "\t"))
	for i, row := range r.Rows {
		fmt.Fprintln(tw, strconv.Itoa(i)+"\t"+strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}
