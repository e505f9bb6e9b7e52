package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/releasewatch/internal/conf"
	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/extraction"
	"github.com/tphakala/releasewatch/internal/logger"
)

func loadSettings(t *testing.T, yaml string) *conf.Settings {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	settings, err := conf.Load(viper.New(), path)
	require.NoError(t, err)
	return settings
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestNewWithoutExtractionKeyRefusesRuns(t *testing.T) {
	settings := loadSettings(t, `
database:
  sqlite:
    path: ":memory:"
`)
	settings.Extraction.APIKey = ""

	a, err := New(settings, logger.NewNopLogger(), RequireExtraction(settings))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, err = a.Checker.Run(t.Context())
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
	assert.Contains(t, err.Error(), KeyExtractionKey)
}

func TestNewBuildsAnthropicExtractor(t *testing.T) {
	settings := loadSettings(t, `
database:
  sqlite:
    path: ":memory:"
extraction:
  apikey: test-key
checker:
  targetmininterval: 1m
`)

	a, err := New(settings, logger.NewNopLogger(), RequireExtraction(settings))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ex, err := a.newExtractor()
	require.NoError(t, err)
	assert.IsType(t, &extraction.AnthropicExtractor{}, ex)

	// no targets stored, so the run succeeds without calling out
	summary, err := a.Checker.Run(t.Context())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalChecked)
}

// slowMessagesAPI answers /v1/messages after delay, sending no headers until then.
func slowMessagesAPI(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "msg_slow",
			"type":  "message",
			"role":  "assistant",
			"model": extraction.DefaultModel,
			"content": []map[string]any{{
				"type": "text",
				"text": `{"currentVersion":"4.3.0","releaseDate":null,"versions":[{"version":"4.3.0","releaseDate":null,"notes":[],"type":"minor","buildNumber":null}],"confidence":90,"productNameFound":true}`,
			}},
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"usage":         map[string]any{"input_tokens": 10, "output_tokens": 10},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestExtractionWaitsLongerThanScrapeTimeout(t *testing.T) {
	server := slowMessagesAPI(t, 500*time.Millisecond)
	settings := loadSettings(t, `
database:
  sqlite:
    path: ":memory:"
scraper:
  timeout: 150ms
extraction:
  apikey: test-key
  baseurl: `+server.URL+`
  timeout: 5s
`)

	a, err := New(settings, logger.NewNopLogger(), RequireExtraction(settings))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	scrapeTransport, ok := a.client.HTTPClient().Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 150*time.Millisecond, scrapeTransport.ResponseHeaderTimeout)

	extractTransport, ok := a.extractClient.HTTPClient().Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, extractTransport.ResponseHeaderTimeout)

	ex, err := a.newExtractor()
	require.NoError(t, err)

	result, err := ex.Extract(t.Context(), "Blender", "Blender 4.3.0 released")
	require.NoError(t, err, "a model answer slower than the scrape timeout must still arrive")
	assert.Equal(t, "4.3.0", result.CurrentVersion)
}

func TestNewRejectsUnknownDatabase(t *testing.T) {
	settings := loadSettings(t, `
database:
  sqlite:
    path: ":memory:"
`)
	settings.Database.Type = "postgres"

	_, err := New(settings, logger.NewNopLogger())
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestServeStopsOnContextCancel(t *testing.T) {
	port := freePort(t)
	settings := loadSettings(t, `
database:
  sqlite:
    path: ":memory:"
server:
  host: 127.0.0.1
  port: `+strconv.Itoa(port)+`
scheduler:
  enabled: true
`)

	a, err := New(settings, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	url := "http://127.0.0.1:" + strconv.Itoa(port) + "/api/v1/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:gosec,noctx // test-local address
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
