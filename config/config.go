package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Empty-result policies for merchants without any offer.
const (
	EmptyExclude     = "exclude"
	EmptyPlaceholder = "placeholder"
)

// Fetcher backends.
const (
	FetcherHTTP    = "http"
	FetcherBrowser = "browser"
)

// Config holds all application configuration loaded from environment variables.
// It is built once in main and passed down; nothing mutates it afterwards.
type Config struct {
	OutputPath    string
	CSVOutputPath string
	CatalogPath   string

	Fetcher          string
	ChromeBin        string
	RequestTimeoutMs int
	RequestDelayMs   int
	UserAgent        string
	Accept           string
	AcceptLanguage   string

	MaxCashbackRate   float64
	MaxVoucherRate    float64
	EmptyResultPolicy string

	HistoryDriver    string
	SQLitePath       string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	MaxRetries       int

	MetricsTextfile string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() *Config {
	return &Config{
		OutputPath:    getEnv("OUTPUT_PATH", "./data/cashback_rates.json"),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", ""),
		CatalogPath:   getEnv("CATALOG_PATH", ""),

		Fetcher:          strings.ToLower(getEnv("FETCHER", FetcherHTTP)),
		ChromeBin:        getEnv("CHROME_BIN", ""),
		RequestTimeoutMs: getEnvInt("REQUEST_TIMEOUT_MS", 15000),
		RequestDelayMs:   getEnvInt("REQUEST_DELAY_MS", 300),
		UserAgent: getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		Accept:         getEnv("ACCEPT", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"),
		AcceptLanguage: getEnv("ACCEPT_LANGUAGE", "fr-FR,fr;q=0.9,en-US;q=0.8,en;q=0.7"),

		MaxCashbackRate:   getEnvFloat("MAX_CASHBACK_RATE", 20),
		MaxVoucherRate:    getEnvFloat("MAX_VOUCHER_RATE", 25),
		EmptyResultPolicy: strings.ToLower(getEnv("EMPTY_RESULT_POLICY", EmptyExclude)),

		HistoryDriver:    strings.ToLower(getEnv("HISTORY_DRIVER", "")),
		SQLitePath:       getEnv("SQLITE_PATH", "./data/history.db"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "cashback"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		MaxRetries:       getEnvInt("MAX_RETRIES", 3),

		MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),
	}
}

// Validate rejects settings that would otherwise silently fall back to a
// default behaviour.
func (c *Config) Validate() error {
	switch c.EmptyResultPolicy {
	case EmptyExclude, EmptyPlaceholder:
	default:
		return fmt.Errorf("config: unknown EMPTY_RESULT_POLICY %q (want %s or %s)",
			c.EmptyResultPolicy, EmptyExclude, EmptyPlaceholder)
	}
	switch c.Fetcher {
	case FetcherHTTP, FetcherBrowser:
	default:
		return fmt.Errorf("config: unknown FETCHER %q (want %s or %s)", c.Fetcher, FetcherHTTP, FetcherBrowser)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// Headers returns the browser-like header set attached to every request.
func (c *Config) Headers() map[string]string {
	return map[string]string{
		"User-Agent":      c.UserAgent,
		"Accept":          c.Accept,
		"Accept-Language": c.AcceptLanguage,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(strings.Replace(val, ",", ".", 1), 64)
		if err == nil {
			return f
		}
	}
	return fallback
}
