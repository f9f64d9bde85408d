// src/exporters/csv.go
package exporters

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/michaelkielt/etl-banks-project/src/models"
)

// WriteCSV writes the table to path with a header row, replacing any existing
// file. The data goes to a temporary file in the same directory first so a
// failed write never leaves a truncated file behind. A replaced file keeps its
// permissions; a new one is created 0644.
func WriteCSV(table *models.ResultTable, path string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, table); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}

	// CreateTemp makes the file 0600.
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Encode writes the header and rows as comma separated text.
func Encode(w io.Writer, table *models.ResultTable) error {
	if table == nil || len(table.Columns) != 5 {
		return errors.New("table needs 5 columns")
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(table.Columns); err != nil {
		return err
	}
	for _, row := range table.Rows {
		if err := writer.Write(row.Strings()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCSV loads a file written by WriteCSV.
func ReadCSV(path string) (*models.ResultTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// Decode parses the output of Encode.
func Decode(r io.Reader) (*models.ResultTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 5

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %v", models.ErrParse, err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV records: %v", models.ErrParse, err)
	}

	table := &models.ResultTable{
		Columns: header,
		Rows:    make([]models.EnrichedBankRecord, 0, len(records)),
	}
	for i, record := range records {
		var values [4]float64
		for j := range values {
			v, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %s: %q is not a number", models.ErrParse, i+2, header[j+1], record[j+1])
			}
			values[j] = v
		}

		table.Rows = append(table.Rows, models.EnrichedBankRecord{
			BankRecord: models.BankRecord{
				Name:                record[0],
				MarketCapUSDBillion: values[0],
			},
			MarketCapGBPBillion: values[1],
			MarketCapEURBillion: values[2],
			MarketCapINRBillion: values[3],
		})
	}

	return table, nil
}
