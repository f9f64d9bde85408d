// src/processors/exchange_rate_processor.go
package processors

import (
	"fmt"
	"maps"
	"os"
	"time"

	"github.com/michaelkielt/etl-banks-project/src/logger"
	"github.com/michaelkielt/etl-banks-project/src/models"
	"github.com/michaelkielt/etl-banks-project/src/parsers/rates"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// ExchangeRateProcessor converts extracted market caps into the target currencies.
type ExchangeRateProcessor interface {
	LoadRates(path string) (models.ExchangeRateTable, error)
	Transform(table *models.ExtractedTable, rates models.ExchangeRateTable) (*models.ResultTable, error)
}

type exchangeRateProcessorImpl struct {
	rateCache *cache.Cache
}

// NewExchangeRateProcessor returns a processor whose parsed rate files are kept for ttl.
func NewExchangeRateProcessor(ttl time.Duration) ExchangeRateProcessor {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &exchangeRateProcessorImpl{
		rateCache: cache.New(ttl, 2*ttl),
	}
}

// LoadRates reads the rate file at path. A parsed file is reused while its size
// and modification time are unchanged.
func (p *exchangeRateProcessorImpl) LoadRates(path string) (models.ExchangeRateTable, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange rate file: %v", models.ErrConfig, err)
	}

	cacheKey := fmt.Sprintf("rates-%s-%d-%d", path, info.Size(), info.ModTime().UnixNano())
	if cached, found := p.rateCache.Get(cacheKey); found {
		logger.L.Debug("Exchange rate cache hit", "key", cacheKey)
		return maps.Clone(cached.(models.ExchangeRateTable)), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange rate file: %v", models.ErrConfig, err)
	}
	defer f.Close()

	table, err := rates.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	p.rateCache.Set(cacheKey, table, cache.DefaultExpiration)
	logger.L.Debug("Exchange rates loaded", "path", path, "currencies", len(table))
	return maps.Clone(table), nil
}

// Transform adds the GBP, EUR and INR columns to every extracted record. Rows keep
// their order and count. If any target rate is missing nothing is produced.
func (p *exchangeRateProcessorImpl) Transform(table *models.ExtractedTable, rateTable models.ExchangeRateTable) (*models.ResultTable, error) {
	if table == nil {
		table = &models.ExtractedTable{Columns: models.DefaultTableAttribs}
	}

	targetRates := make(map[string]float64, len(models.TargetCurrencies))
	for _, code := range models.TargetCurrencies {
		rate, err := rateTable.Rate(code)
		if err != nil {
			return nil, err
		}
		targetRates[code] = rate
	}

	columns := append([]string(nil), table.Columns...)
	for _, code := range models.TargetCurrencies {
		columns = append(columns, models.DerivedColumn(code))
	}

	result := &models.ResultTable{
		Columns: columns,
		Rows:    make([]models.EnrichedBankRecord, 0, len(table.Records)),
	}
	for _, rec := range table.Records {
		result.Rows = append(result.Rows, models.EnrichedBankRecord{
			BankRecord:          rec,
			MarketCapGBPBillion: ConvertAmount(rec.MarketCapUSDBillion, targetRates["GBP"]),
			MarketCapEURBillion: ConvertAmount(rec.MarketCapUSDBillion, targetRates["EUR"]),
			MarketCapINRBillion: ConvertAmount(rec.MarketCapUSDBillion, targetRates["INR"]),
		})
	}

	return result, nil
}

// ConvertAmount multiplies amount by rate and rounds to two decimal places, half
// away from zero. Both operands are taken at their shortest decimal form, so
// 50.25 * 0.9 rounds from 45.225 to 45.23.
func ConvertAmount(amount, rate float64) float64 {
	return decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(rate)).
		Round(2).
		InexactFloat64()
}
