package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/michaelkielt/etl-banks-project/src/models"
)

// QuoteIdentifier quotes a table or column name for SQLite.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ReplaceTable drops tableName if it exists, recreates it from the table's
// columns and inserts every row in order, all in one transaction. The name
// column is TEXT, the market cap columns are REAL.
func ReplaceTable(ctx context.Context, db *sql.DB, tableName string, table *models.ResultTable) error {
	if table == nil || len(table.Columns) == 0 {
		return fmt.Errorf("%w: no columns to create table %s", models.ErrStorage, tableName)
	}

	defs := make([]string, len(table.Columns))
	names := make([]string, len(table.Columns))
	marks := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		colType := "REAL"
		if i == 0 {
			colType = "TEXT"
		}
		names[i] = QuoteIdentifier(col)
		defs[i] = names[i] + " " + colType
		marks[i] = "?"
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", models.ErrStorage, err)
	}
	defer tx.Rollback()

	quoted := QuoteIdentifier(tableName)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoted); err != nil {
		return fmt.Errorf("%w: drop table %s: %v", models.ErrStorage, tableName, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoted, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("%w: create table %s: %v", models.ErrStorage, tableName, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoted, strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("%w: prepare insert into %s: %v", models.ErrStorage, tableName, err)
	}
	defer stmt.Close()

	for i, row := range table.Rows {
		values := row.Values()
		if len(values) != len(table.Columns) {
			return fmt.Errorf("%w: row %d has %d values for %d columns", models.ErrStorage, i+1, len(values), len(table.Columns))
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("%w: insert row %d (%s): %v", models.ErrStorage, i+1, row.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit table %s: %v", models.ErrStorage, tableName, err)
	}
	return nil
}

// CountRows returns the number of rows in tableName.
func CountRows(ctx context.Context, db *sql.DB, tableName string) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+QuoteIdentifier(tableName)).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count rows in %s: %v", models.ErrStorage, tableName, err)
	}
	return n, nil
}
