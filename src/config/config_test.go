package config

import (
	"testing"
	"time"

	"github.com/michaelkielt/etl-banks-project/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"SOURCE_URL", "TABLE_ATTRIBS", "FETCH_TIMEOUT", "USER_AGENT", "STRICT_ROWS",
	"EXCHANGE_RATE_PATH", "RATE_CACHE_TTL", "OUTPUT_CSV_PATH", "DATABASE_PATH",
	"TABLE_NAME", "VERIFY_QUERIES", "LOG_LEVEL", "PROGRESS_LOG_PATH",
}

// clearEnv blanks every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	// Blank strings are kept as-is, so the path settings need real values.
	t.Setenv("SOURCE_URL", DefaultSourceURL)
	t.Setenv("EXCHANGE_RATE_PATH", "exchange_rate.csv")
	t.Setenv("OUTPUT_CSV_PATH", "Largest_banks_data.csv")
	t.Setenv("DATABASE_PATH", "Banks.db")
	t.Setenv("TABLE_NAME", "Largest_banks")
	t.Setenv("PROGRESS_LOG_PATH", "code_log.txt")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultSourceURL, cfg.SourceURL)
	assert.Equal(t, []string{"Name", "MC_USD_Billion"}, cfg.TableAttribs)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.False(t, cfg.StrictRows)
	assert.Equal(t, time.Hour, cfg.RateCacheTTL)
	assert.Equal(t, "Largest_banks", cfg.TableName)
	assert.Equal(t, []string{
		"SELECT * FROM Largest_banks",
		"SELECT AVG(MC_GBP_Billion) FROM Largest_banks",
		`SELECT "Name" from Largest_banks LIMIT 5`,
	}, cfg.VerifyQueries)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SOURCE_URL", "file:///tmp/banks.html")
	t.Setenv("EXCHANGE_RATE_PATH", "/data/rates.csv")
	t.Setenv("OUTPUT_CSV_PATH", "/data/out.csv")
	t.Setenv("DATABASE_PATH", "/data/banks.db")
	t.Setenv("TABLE_NAME", "Top_banks")
	t.Setenv("PROGRESS_LOG_PATH", "/data/progress.txt")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("STRICT_ROWS", "true")
	t.Setenv("VERIFY_QUERIES", "SELECT COUNT(*) FROM Top_banks; ;SELECT 1")
	t.Setenv("TABLE_ATTRIBS", "Bank, USD")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.True(t, cfg.StrictRows)
	assert.Equal(t, "Top_banks", cfg.TableName)
	assert.Equal(t, []string{"SELECT COUNT(*) FROM Top_banks", "SELECT 1"}, cfg.VerifyQueries)
	assert.Equal(t, []string{"Bank", "USD"}, cfg.TableAttribs)
}

func TestInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("FETCH_TIMEOUT", "soon")
	t.Setenv("STRICT_ROWS", "maybe")

	assert.Equal(t, 30*time.Second, getEnvAsDuration("FETCH_TIMEOUT", 30*time.Second))
	assert.False(t, getEnvAsBool("STRICT_ROWS", false))
}

func TestDefaultListIsCopied(t *testing.T) {
	clearEnv(t)
	attribs := getEnvAsList("TABLE_ATTRIBS", ",", models.DefaultTableAttribs)
	attribs[0] = "changed"
	assert.Equal(t, "Name", models.DefaultTableAttribs[0])
}

func TestValidate(t *testing.T) {
	valid := func() AppConfig {
		return AppConfig{
			SourceURL:        DefaultSourceURL,
			TableAttribs:     []string{"Name", "MC_USD_Billion"},
			FetchTimeout:     time.Second,
			ExchangeRatePath: "exchange_rate.csv",
			OutputCSVPath:    "out.csv",
			DatabasePath:     "Banks.db",
			TableName:        "Largest_banks",
			ProgressLogPath:  "code_log.txt",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{name: "empty csv path", mutate: func(c *AppConfig) { c.OutputCSVPath = " " }, wantErr: "OUTPUT_CSV_PATH must not be empty"},
		{name: "bad table name", mutate: func(c *AppConfig) { c.TableName = "banks; DROP" }, wantErr: "not a valid identifier"},
		{name: "reserved table name", mutate: func(c *AppConfig) { c.TableName = "etl_runs" }, wantErr: "run bookkeeping"},
		{name: "wrong attrib count", mutate: func(c *AppConfig) { c.TableAttribs = []string{"Name"} }, wantErr: "TABLE_ATTRIBS needs 2 columns"},
		{name: "zero timeout", mutate: func(c *AppConfig) { c.FetchTimeout = 0 }, wantErr: "FETCH_TIMEOUT must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
