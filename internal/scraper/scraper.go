// Package scraper fetches release-notes pages and reduces them to plain text
// for the extraction stage.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/k3a/html2text"
	"github.com/patrickmn/go-cache"
	"golang.org/x/net/html/charset"

	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/httpclient"
	"github.com/tphakala/releasewatch/internal/logger"
)

// noiseSelectors are removed before text conversion; none of them carry release notes.
const noiseSelectors = "script, style, noscript, svg, iframe, template, link, meta"

var (
	blankLines = regexp.MustCompile(`\n[ \t]*(\n[ \t]*)+`)
	runSpaces  = regexp.MustCompile(`[ \t\x{00a0}]{2,}`)
)

// Scraper turns a URL into plain-text page content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (string, error)
}

// Config controls fetching and caching.
type Config struct {
	Timeout  time.Duration
	CacheTTL time.Duration // zero disables the page cache
}

// DefaultConfig returns the scraper defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:  20 * time.Second,
		CacheTTL: 5 * time.Minute,
	}
}

// HTTPScraper is the production Scraper.
type HTTPScraper struct {
	client *httpclient.Client
	config Config
	cache  *cache.Cache
	log    logger.Logger
}

// New creates an HTTPScraper on top of the shared outbound client.
func New(client *httpclient.Client, cfg Config, log logger.Logger) *HTTPScraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	s := &HTTPScraper{
		client: client,
		config: cfg,
		log:    log.Module("scraper"),
	}
	if cfg.CacheTTL > 0 {
		s.cache = cache.New(cfg.CacheTTL, cfg.CacheTTL*2)
	}
	return s
}

// Scrape fetches url and returns its visible text. Non-2xx statuses, transport
// failures and pages with no text are network errors.
func (s *HTTPScraper) Scrape(ctx context.Context, url string) (string, error) {
	if s.cache != nil {
		if cached, found := s.cache.Get(url); found {
			if text, ok := cached.(string); ok {
				s.log.Debug("page cache hit", logger.String("url", url))
				return text, nil
			}
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	header := http.Header{}
	header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := s.client.Fetch(fetchCtx, url, header)
	if err != nil {
		return "", errors.New(err).
			Component("scraper").
			Category(errors.CategoryNetwork).
			NetworkContext(url, s.config.Timeout).
			Timing("scrape", time.Since(start)).
			Build()
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", errors.Newf("unexpected status %d fetching release notes", resp.StatusCode).
			Component("scraper").
			Category(errors.CategoryNetwork).
			Context("url", url).
			Context("status_code", resp.StatusCode).
			Build()
	}

	text, err := ToText(resp.Body, resp.ContentType)
	if err != nil {
		return "", errors.New(err).
			Component("scraper").
			Category(errors.CategoryFileParsing).
			Context("url", url).
			Build()
	}
	if text == "" {
		return "", errors.Newf("page has no text content").
			Component("scraper").
			Category(errors.CategoryNetwork).
			Context("url", url).
			Build()
	}

	s.log.Debug("page scraped",
		logger.String("url", url),
		logger.String("final_url", resp.FinalURL),
		logger.Int("bytes", len(resp.Body)),
		logger.Int("chars", len(text)),
		logger.Duration("elapsed", time.Since(start)))

	if s.cache != nil {
		s.cache.Set(url, text, cache.DefaultExpiration)
	}
	return text, nil
}

// ToText strips markup from an HTML page. Plain-text bodies are only normalized.
// Pages in a legacy charset are decoded to UTF-8 first.
func ToText(body []byte, contentType string) (string, error) {
	body, err := toUTF8(body, contentType)
	if err != nil {
		return "", err
	}

	if strings.HasPrefix(strings.ToLower(contentType), "text/plain") {
		return normalize(string(body)), nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find(noiseSelectors).Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	html, err := root.Html()
	if err != nil {
		return "", fmt.Errorf("render cleaned html: %w", err)
	}

	return normalize(html2text.HTML2TextWithOptions(html, html2text.WithUnixLineBreaks())), nil
}

// toUTF8 decodes body using the charset named by a BOM, the Content-Type header
// or an HTML meta tag, in that order of precedence.
func toUTF8(body []byte, contentType string) ([]byte, error) {
	enc, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" {
		return body, nil
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s page: %w", name, err)
	}
	return decoded, nil
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = runSpaces.ReplaceAllString(text, " ")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
