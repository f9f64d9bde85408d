// src/models/bank.go
package models

import (
	"fmt"
	"strconv"
)

// Column names used by the output file and the database table.
const (
	ColumnName         = "Name"
	ColumnMarketCapUSD = "MC_USD_Billion"
)

// Currencies the transformer derives a market cap column for, in output order.
var TargetCurrencies = []string{"GBP", "EUR", "INR"}

// DefaultTableAttribs are the extractor's output columns when none are configured.
var DefaultTableAttribs = []string{ColumnName, ColumnMarketCapUSD}

// DerivedColumn returns the column name holding the market cap converted to currency.
func DerivedColumn(currency string) string {
	return fmt.Sprintf("MC_%s_Billion", currency)
}

// BankRecord is a single row scraped from the source table.
type BankRecord struct {
	Name                string  `json:"name"`
	MarketCapUSDBillion float64 `json:"mc_usd_billion"`
}

// ExtractedTable is the extractor's output: the records in page order plus the
// column names they will be written under.
type ExtractedTable struct {
	Columns []string
	Records []BankRecord
	Skipped int // rows ignored because their cell count was not three
}

// EnrichedBankRecord is a BankRecord with the converted market caps added.
type EnrichedBankRecord struct {
	BankRecord
	MarketCapGBPBillion float64 `json:"mc_gbp_billion"`
	MarketCapEURBillion float64 `json:"mc_eur_billion"`
	MarketCapINRBillion float64 `json:"mc_inr_billion"`
}

// Values returns the row in column order for database inserts.
func (r EnrichedBankRecord) Values() []any {
	return []any{r.Name, r.MarketCapUSDBillion, r.MarketCapGBPBillion, r.MarketCapEURBillion, r.MarketCapINRBillion}
}

// Strings returns the row in column order formatted for delimited text.
// The USD figure keeps its source precision, derived figures use two decimals.
func (r EnrichedBankRecord) Strings() []string {
	return []string{
		r.Name,
		strconv.FormatFloat(r.MarketCapUSDBillion, 'f', -1, 64),
		strconv.FormatFloat(r.MarketCapGBPBillion, 'f', 2, 64),
		strconv.FormatFloat(r.MarketCapEURBillion, 'f', 2, 64),
		strconv.FormatFloat(r.MarketCapINRBillion, 'f', 2, 64),
	}
}

// ResultTable is the ordered record set handed to the loaders.
type ResultTable struct {
	Columns []string
	Rows    []EnrichedBankRecord
}

// Len reports the number of rows.
func (t *ResultTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
