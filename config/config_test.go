package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	require.Equal(t, "./data/cashback_rates.json", cfg.OutputPath)
	require.Equal(t, FetcherHTTP, cfg.Fetcher)
	require.Equal(t, 15000, cfg.RequestTimeoutMs)
	require.Equal(t, 300, cfg.RequestDelayMs)
	require.Equal(t, 20.0, cfg.MaxCashbackRate)
	require.Equal(t, 25.0, cfg.MaxVoucherRate)
	require.Equal(t, EmptyExclude, cfg.EmptyResultPolicy)
	require.Empty(t, cfg.HistoryDriver)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MAX_CASHBACK_RATE", "12,5")
	t.Setenv("REQUEST_DELAY_MS", "0")
	t.Setenv("EMPTY_RESULT_POLICY", "Placeholder")
	t.Setenv("FETCHER", "BROWSER")
	t.Setenv("REQUEST_TIMEOUT_MS", "not-a-number")

	cfg := FromEnv()

	require.Equal(t, 12.5, cfg.MaxCashbackRate)
	require.Equal(t, 0, cfg.RequestDelayMs)
	require.Equal(t, EmptyPlaceholder, cfg.EmptyResultPolicy)
	require.Equal(t, FetcherBrowser, cfg.Fetcher)
	require.Equal(t, 15000, cfg.RequestTimeoutMs)
}

func TestHeadersAndDSN(t *testing.T) {
	t.Setenv("POSTGRES_DB", "rates")
	cfg := FromEnv()

	h := cfg.Headers()
	require.Contains(t, h["User-Agent"], "Mozilla/5.0")
	require.Contains(t, h["Accept-Language"], "fr-FR")
	require.Contains(t, h, "Accept")
	require.Contains(t, cfg.DSN(), "dbname=rates")
}

func TestValidate(t *testing.T) {
	require.NoError(t, FromEnv().Validate())

	tests := []struct {
		key, val, want string
	}{
		{"EMPTY_RESULT_POLICY", "placeholders", "EMPTY_RESULT_POLICY"},
		{"FETCHER", "curl", "FETCHER"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			require.ErrorContains(t, FromEnv().Validate(), tt.want)
		})
	}
}
