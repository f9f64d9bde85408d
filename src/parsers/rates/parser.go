// src/parsers/rates/parser.go
package rates

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/michaelkielt/etl-banks-project/src/models"
)

// Header names expected in the exchange rate file.
const (
	CurrencyHeader = "Currency"
	RateHeader     = "Rate"
)

// Parse reads a "Currency,Rate" file into an exchange rate table. Columns are
// located by header name, so extra columns are ignored. Every failure wraps
// models.ErrConfig: the rate file is configuration for the transform step.
func Parse(file io.Reader) (models.ExchangeRateTable, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: exchange rate file is empty", models.ErrConfig)
		}
		return nil, fmt.Errorf("%w: failed to read exchange rate header: %v", models.ErrConfig, err)
	}

	currencyIdx, rateIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case CurrencyHeader:
			currencyIdx = i
		case RateHeader:
			rateIdx = i
		}
	}
	if currencyIdx < 0 || rateIdx < 0 {
		return nil, fmt.Errorf("%w: exchange rate header %v must contain %q and %q", models.ErrConfig, header, CurrencyHeader, RateHeader)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read exchange rate records: %v", models.ErrConfig, err)
	}

	table := make(models.ExchangeRateTable, len(records))
	for i, record := range records {
		if len(record) <= currencyIdx || len(record) <= rateIdx {
			return nil, fmt.Errorf("%w: exchange rate line %d is short", models.ErrConfig, i+2)
		}

		code := strings.ToUpper(strings.TrimSpace(record[currencyIdx]))
		if code == "" {
			return nil, fmt.Errorf("%w: exchange rate line %d has no currency code", models.ErrConfig, i+2)
		}

		rateStr := strings.TrimSpace(record[rateIdx])
		rate, err := strconv.ParseFloat(rateStr, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: exchange rate for %s is not a number: %q", models.ErrConfig, code, rateStr)
		}
		if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
			return nil, fmt.Errorf("%w: exchange rate for %s must be a positive finite number: %q", models.ErrConfig, code, rateStr)
		}

		table[code] = rate
	}

	return table, nil
}
