package models

import "fmt"

// ExchangeRateTable maps a currency code to the number of units per US dollar.
type ExchangeRateTable map[string]float64

// Rate looks up the conversion rate for code.
func (t ExchangeRateTable) Rate(code string) (float64, error) {
	rate, ok := t[code]
	if !ok {
		return 0, fmt.Errorf("%w: no exchange rate for currency %q", ErrConfig, code)
	}
	return rate, nil
}
