// Package catalog reads the YAML target catalog used by `targets import`.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/model"
)

// slugPattern matches a target id: lower-case letters, digits, dot, dash, underscore.
var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,63}$`)

// Entry is one target as written in the catalog file.
type Entry struct {
	ID              string `yaml:"id"`
	Name            string `yaml:"name"`
	Website         string `yaml:"website"`
	VersionCheckURL string `yaml:"version_check_url"`
}

// File is the catalog document.
type File struct {
	Targets []Entry `yaml:"targets"`
}

// Upserter stores targets. *datastore.GormStore satisfies it.
type Upserter interface {
	UpsertTarget(ctx context.Context, target model.Target) error
}

// Parse decodes and validates a catalog. Every problem is reported, not only the first.
func Parse(r io.Reader) ([]model.Target, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, errors.New(fmt.Errorf("failed to parse catalog: %w", err)).
			Component("catalog").
			Category(errors.CategoryFileParsing).
			Build()
	}

	var problems []string
	seen := make(map[string]int, len(f.Targets))
	targets := make([]model.Target, 0, len(f.Targets))

	for i, e := range f.Targets {
		e.ID = strings.TrimSpace(e.ID)
		e.Name = strings.TrimSpace(e.Name)
		e.Website = strings.TrimSpace(e.Website)
		e.VersionCheckURL = strings.TrimSpace(e.VersionCheckURL)

		if !slugPattern.MatchString(e.ID) {
			problems = append(problems, fmt.Sprintf("targets[%d]: id %q is not a valid slug", i, e.ID))
		} else if prev, dup := seen[e.ID]; dup {
			problems = append(problems, fmt.Sprintf("targets[%d]: id %q already used by targets[%d]", i, e.ID, prev))
		} else {
			seen[e.ID] = i
		}
		if e.Name == "" {
			problems = append(problems, fmt.Sprintf("targets[%d]: name is required", i))
		}
		if e.Website != "" && !isHTTPURL(e.Website) {
			problems = append(problems, fmt.Sprintf("targets[%d]: website %q is not an http(s) URL", i, e.Website))
		}
		if e.VersionCheckURL != "" && !isHTTPURL(e.VersionCheckURL) {
			problems = append(problems, fmt.Sprintf("targets[%d]: version_check_url %q is not an http(s) URL", i, e.VersionCheckURL))
		}

		targets = append(targets, model.Target{
			ID:              e.ID,
			Name:            e.Name,
			Website:         e.Website,
			VersionCheckURL: e.VersionCheckURL,
		})
	}

	if len(problems) > 0 {
		return nil, errors.Newf("invalid catalog: %s", strings.Join(problems, "; ")).
			Component("catalog").
			Category(errors.CategoryValidation).
			Context("problems", len(problems)).
			Build()
	}
	return targets, nil
}

// Import upserts every target and returns how many were written before any failure.
func Import(ctx context.Context, store Upserter, targets []model.Target) (int, error) {
	for i, t := range targets {
		if err := store.UpsertTarget(ctx, t); err != nil {
			return i, err
		}
	}
	return len(targets), nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
