// src/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/michaelkielt/etl-banks-project/src/database"
	"github.com/michaelkielt/etl-banks-project/src/models"
)

const (
	DefaultSourceURL = "https://web.archive.org/web/20230908091635/https://en.wikipedia.org/wiki/List_of_largest_banks"
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// AppConfig holds all configuration for a pipeline run.
// The values are loaded from environment variables.
type AppConfig struct {
	// Extract
	SourceURL    string
	TableAttribs []string
	FetchTimeout time.Duration
	UserAgent    string
	StrictRows   bool

	// Transform
	ExchangeRatePath string
	RateCacheTTL     time.Duration

	// Load
	OutputCSVPath string
	DatabasePath  string
	TableName     string
	VerifyQueries []string

	// Logging
	LogLevel        string
	ProgressLogPath string
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Tables the database package owns.
var reservedTables = map[string]bool{
	"etl_runs":          true,
	"schema_migrations": true,
}

// LoadConfig loads configuration from environment variables or a .env file.
func LoadConfig() (*AppConfig, error) {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*AppConfig, error) {
	tableName := getEnv("TABLE_NAME", "Largest_banks")
	attribs := getEnvAsList("TABLE_ATTRIBS", ",", models.DefaultTableAttribs)

	cfg := &AppConfig{
		SourceURL:    getEnv("SOURCE_URL", DefaultSourceURL),
		TableAttribs: attribs,
		FetchTimeout: getEnvAsDuration("FETCH_TIMEOUT", 30*time.Second),
		UserAgent:    getEnv("USER_AGENT", DefaultUserAgent),
		StrictRows:   getEnvAsBool("STRICT_ROWS", false),

		ExchangeRatePath: getEnv("EXCHANGE_RATE_PATH", "exchange_rate.csv"),
		RateCacheTTL:     getEnvAsDuration("RATE_CACHE_TTL", time.Hour),

		OutputCSVPath: getEnv("OUTPUT_CSV_PATH", "Largest_banks_data.csv"),
		DatabasePath:  getEnv("DATABASE_PATH", "Banks.db"),
		TableName:     tableName,
		VerifyQueries: getEnvAsList("VERIFY_QUERIES", ";", DefaultVerifyQueries(tableName, attribs[0])),

		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ProgressLogPath: getEnv("PROGRESS_LOG_PATH", "code_log.txt"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Printf("Configuration loaded: Source=%s, DBPath=%s, Table=%s, CSV=%s",
		cfg.SourceURL, cfg.DatabasePath, cfg.TableName, cfg.OutputCSVPath)
	return cfg, nil
}

// DefaultVerifyQueries are the sanity checks run against the loaded table.
// nameColumn is the first TABLE_ATTRIBS entry, which holds the bank names.
func DefaultVerifyQueries(tableName, nameColumn string) []string {
	return []string{
		fmt.Sprintf("SELECT * FROM %s", tableName),
		fmt.Sprintf("SELECT AVG(%s) FROM %s", models.DerivedColumn("GBP"), tableName),
		fmt.Sprintf("SELECT %s from %s LIMIT 5", database.QuoteIdentifier(nameColumn), tableName),
	}
}

// Validate reports the first setting that would make a run fail before it starts.
func (c *AppConfig) Validate() error {
	required := []struct{ key, value string }{
		{"SOURCE_URL", c.SourceURL},
		{"EXCHANGE_RATE_PATH", c.ExchangeRatePath},
		{"OUTPUT_CSV_PATH", c.OutputCSVPath},
		{"DATABASE_PATH", c.DatabasePath},
		{"PROGRESS_LOG_PATH", c.ProgressLogPath},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s must not be empty", models.ErrConfig, r.key)
		}
	}
	if !tableNamePattern.MatchString(c.TableName) {
		return fmt.Errorf("%w: TABLE_NAME %q is not a valid identifier", models.ErrConfig, c.TableName)
	}
	if reservedTables[strings.ToLower(c.TableName)] {
		return fmt.Errorf("%w: TABLE_NAME %q is used for run bookkeeping", models.ErrConfig, c.TableName)
	}
	if len(c.TableAttribs) != len(models.DefaultTableAttribs) {
		return fmt.Errorf("%w: TABLE_ATTRIBS needs %d columns, got %d", models.ErrConfig, len(models.DefaultTableAttribs), len(c.TableAttribs))
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("%w: FETCH_TIMEOUT must be positive", models.ErrConfig)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsBool retrieves an environment variable as a bool or returns a fallback.
func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %t", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsList splits a separated environment variable, dropping empty items.
func getEnvAsList(key, sep string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return append([]string(nil), fallback...)
	}
	var items []string
	for _, item := range strings.Split(valueStr, sep) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return append([]string(nil), fallback...)
	}
	return items
}
