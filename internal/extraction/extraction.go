// Package extraction asks a language model to read scraped release notes and
// returns the structured, validated ExtractionResult.
//
// Responses are parsed strictly: anything that is not a JSON object with the
// required keys is an extraction error, never a partially filled result.
package extraction

import (
	"context"
	"time"

	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/model"
)

// Extractor turns page text into version data for one product.
type Extractor interface {
	Extract(ctx context.Context, productName, content string) (*model.ExtractionResult, error)
}

// Config holds extraction settings shared by providers.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	MaxTokens       int64
	Timeout         time.Duration
	MaxContentChars int
}

const (
	DefaultModel           = "claude-sonnet-4-5"
	DefaultMaxTokens       = 4096
	DefaultTimeout         = 60 * time.Second
	DefaultMaxContentChars = 60000
)

// DefaultConfig returns the extraction defaults without credentials.
func DefaultConfig() Config {
	return Config{
		Model:           DefaultModel,
		MaxTokens:       DefaultMaxTokens,
		Timeout:         DefaultTimeout,
		MaxContentChars: DefaultMaxContentChars,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = d.MaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxContentChars <= 0 {
		c.MaxContentChars = d.MaxContentChars
	}
	return c
}

// Unconfigured stands in for a provider whose credentials are missing. The
// process can still start; every call fails with a configuration error.
type Unconfigured struct {
	Key string // config key that is missing
}

// Extract always fails.
func (u Unconfigured) Extract(context.Context, string, string) (*model.ExtractionResult, error) {
	return nil, errors.Newf("extraction is not configured: %s is missing", u.Key).
		Component("extraction").
		Category(errors.CategoryConfiguration).
		Build()
}
