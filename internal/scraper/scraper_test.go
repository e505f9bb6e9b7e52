package scraper

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/httpclient"
)

const releaseNotesURL = "https://example.com/resolve/release-notes"

const releaseNotesHTML = `<!DOCTYPE html>
<html>
<head><title>Release notes</title><style>.x { color: red; }</style></head>
<body>
  <script>var version = "0.0.1";</script>
  <nav><noscript>enable js</noscript></nav>
  <h1>DaVinci Resolve 19.1.3</h1>
  <p>Released   2024-12-10.</p>
  <ul><li>Improved stability</li><li>Fixed audio sync</li></ul>
  <svg><text>19.0.0</text></svg>
</body>
</html>`

// setupScraper wires a scraper whose outbound client is served by httpmock.
func setupScraper(t *testing.T, cfg Config) *HTTPScraper {
	t.Helper()
	client := httpclient.New(nil)
	httpmock.ActivateNonDefault(client.HTTPClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return New(client, cfg, nil)
}

func TestScrapeReturnsVisibleText(t *testing.T) {
	s := setupScraper(t, Config{Timeout: time.Second})
	httpmock.RegisterResponder(http.MethodGet, releaseNotesURL,
		httpmock.NewStringResponder(http.StatusOK, releaseNotesHTML))

	text, err := s.Scrape(t.Context(), releaseNotesURL)
	require.NoError(t, err)

	assert.Contains(t, text, "DaVinci Resolve 19.1.3")
	assert.Contains(t, text, "Released 2024-12-10.")
	assert.Contains(t, text, "Fixed audio sync")
	assert.NotContains(t, text, "var version")
	assert.NotContains(t, text, "enable js")
	assert.NotContains(t, text, "19.0.0")
	assert.NotContains(t, text, "color: red")
}

func TestScrapePlainText(t *testing.T) {
	s := setupScraper(t, Config{Timeout: time.Second})
	httpmock.RegisterResponder(http.MethodGet, releaseNotesURL,
		httpmock.NewStringResponder(http.StatusOK, "Blender 4.3\r\n\r\n\r\n\r\n- new   tools").
			HeaderSet(http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}}))

	text, err := s.Scrape(t.Context(), releaseNotesURL)
	require.NoError(t, err)
	assert.Equal(t, "Blender 4.3\n\n- new tools", text)
}

func TestScrapeFailures(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
	}{
		{"server error", httpmock.NewStringResponder(http.StatusInternalServerError, "boom")},
		{"not found", httpmock.NewStringResponder(http.StatusNotFound, "missing")},
		{"empty page", httpmock.NewStringResponder(http.StatusOK, "<html><body><script>x()</script></body></html>")},
		{"transport error", httpmock.NewErrorResponder(context.DeadlineExceeded)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupScraper(t, Config{Timeout: time.Second})
			httpmock.RegisterResponder(http.MethodGet, releaseNotesURL, tt.responder)

			text, err := s.Scrape(t.Context(), releaseNotesURL)
			require.Error(t, err)
			assert.Empty(t, text)
			assert.True(t, errors.IsNetworkError(err), "got category of %v", err)
		})
	}
}

func TestScrapeCachesPages(t *testing.T) {
	s := setupScraper(t, Config{Timeout: time.Second, CacheTTL: time.Minute})
	httpmock.RegisterResponder(http.MethodGet, releaseNotesURL,
		httpmock.NewStringResponder(http.StatusOK, releaseNotesHTML))

	first, err := s.Scrape(t.Context(), releaseNotesURL)
	require.NoError(t, err)
	second, err := s.Scrape(t.Context(), releaseNotesURL)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestScrapeWithoutCacheRefetches(t *testing.T) {
	s := setupScraper(t, Config{Timeout: time.Second})
	httpmock.RegisterResponder(http.MethodGet, releaseNotesURL,
		httpmock.NewStringResponder(http.StatusOK, releaseNotesHTML))

	for range 2 {
		_, err := s.Scrape(t.Context(), releaseNotesURL)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestToTextWithoutBody(t *testing.T) {
	t.Parallel()

	text, err := ToText([]byte("Version 2.0 released"), "text/html")
	require.NoError(t, err)
	assert.Equal(t, "Version 2.0 released", text)
}

func TestToTextDecodesLegacyCharsets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        []byte
		contentType string
	}{
		{"header charset", []byte("Caf\xe9 Editor 4.2 released"), "text/plain; charset=iso-8859-1"},
		{"meta charset", []byte(`<html><head><meta charset="windows-1252"></head><body><p>Caf` + "\xe9" + ` Editor 4.2 released</p></body></html>`), "text/html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			text, err := ToText(tt.body, tt.contentType)
			require.NoError(t, err)
			assert.Equal(t, "Café Editor 4.2 released", text)
		})
	}
}
