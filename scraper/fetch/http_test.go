package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cashback-scraper/config"
	"cashback-scraper/models"
	"cashback-scraper/utils"
)

func testConfig(timeoutMs int) *config.Config {
	cfg := config.FromEnv()
	cfg.RequestTimeoutMs = timeoutMs
	return cfg
}

func newTestFetcher(timeoutMs int) *HTTPFetcher {
	return NewHTTPFetcher(testConfig(timeoutMs), utils.NewLoggerTo(io.Discard, slog.LevelDebug))
}

func TestHTTPFetcherSuccessSendsBrowserHeaders(t *testing.T) {
	var gotUA, gotLang, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		gotAccept = r.Header.Get("Accept")
		fmt.Fprint(w, `<html><head><title>Fnac : 2% de cashback</title>
			<meta name="description" content="Cashback Fnac"></head></html>`)
	}))
	defer srv.Close()

	res := newTestFetcher(2000).Fetch(context.Background(), srv.URL)

	require.Equal(t, models.OutcomeSuccess, res.Outcome)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NoError(t, res.Err)
	require.Equal(t, "Fnac : 2% de cashback", res.Page.Title)
	require.Equal(t, "Cashback Fnac", res.Page.MetaDescription)
	require.Contains(t, gotUA, "Mozilla/5.0")
	require.Contains(t, gotLang, "fr-FR")
	require.Contains(t, gotAccept, "text/html")
}

func TestHTTPFetcherFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<title>moved</title>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res := newTestFetcher(2000).Fetch(context.Background(), srv.URL+"/old")
	require.Equal(t, models.OutcomeSuccess, res.Outcome)
	require.Equal(t, "moved", res.Page.Title)
}

func TestHTTPFetcherStatusOutcomes(t *testing.T) {
	tests := []struct {
		status int
		want   models.Outcome
	}{
		{http.StatusNotFound, models.OutcomeNotFound},
		{http.StatusForbidden, models.OutcomeHTTPError},
		{http.StatusInternalServerError, models.OutcomeHTTPError},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		res := newTestFetcher(2000).Fetch(context.Background(), srv.URL)
		srv.Close()

		require.Equal(t, tt.want, res.Outcome, "status %d", tt.status)
		require.Equal(t, tt.status, res.StatusCode)
		require.Error(t, res.Err)
		require.Empty(t, res.Page.Text(true))
	}
}

func TestHTTPFetcherTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	res := newTestFetcher(50).Fetch(context.Background(), srv.URL)
	require.Equal(t, models.OutcomeTimeout, res.Outcome)
	require.Error(t, res.Err)
}

func TestHTTPFetcherNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := newTestFetcher(2000).Fetch(context.Background(), url)
	require.Equal(t, models.OutcomeNetworkError, res.Outcome)
}

func TestClassifyError(t *testing.T) {
	require.Equal(t, models.OutcomeTimeout, classifyError(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	require.Equal(t, models.OutcomeNetworkError, classifyError(errors.New("connection reset")))
}

func TestFindChromeBinaryPrefersConfigured(t *testing.T) {
	require.Equal(t, "/opt/chrome", findChromeBinary("/opt/chrome"))

	t.Setenv("CHROME_BIN", "/env/chrome")
	require.Equal(t, "/env/chrome", findChromeBinary(""))
}
