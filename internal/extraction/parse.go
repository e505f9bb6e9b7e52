package extraction

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/antonholmquist/jason"

	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/model"
)

// dateLayouts are tried in order when a model returns a date in a looser format.
var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// ParseResponse decodes a model response into an ExtractionResult.
// Markdown code fences around the object are tolerated.
func ParseResponse(text string) (*model.ExtractionResult, error) {
	payload := stripCodeFence(text)
	if !strings.HasPrefix(payload, "{") {
		return nil, parseError("response is not a JSON object", text)
	}

	obj, err := jason.NewObjectFromBytes([]byte(payload))
	if err != nil {
		return nil, parseError(fmt.Sprintf("invalid JSON: %v", err), text)
	}

	var result model.ExtractionResult

	if result.CurrentVersion, err = nullableString(obj, "currentVersion", true); err != nil {
		return nil, parseError(err.Error(), text)
	}
	if result.ReleaseDate, err = nullableDate(obj, "releaseDate"); err != nil {
		return nil, parseError(err.Error(), text)
	}

	confidence, err := obj.GetFloat64("confidence")
	if err != nil {
		return nil, parseError("confidence must be a number", text)
	}
	if math.IsNaN(confidence) || confidence < 0 || confidence > 100 {
		return nil, parseError(fmt.Sprintf("confidence %v outside 0..100", confidence), text)
	}
	result.AIConfidence = int(math.Round(confidence))

	if result.ProductNameFound, err = obj.GetBoolean("productNameFound"); err != nil {
		return nil, parseError("productNameFound must be a boolean", text)
	}

	versions, err := obj.GetObjectArray("versions")
	if err != nil {
		return nil, parseError("versions must be an array of objects", text)
	}
	result.Versions = make([]model.VersionCandidate, 0, len(versions))
	for i, v := range versions {
		candidate, err := parseCandidate(v)
		if err != nil {
			return nil, parseError(fmt.Sprintf("versions[%d]: %v", i, err), text)
		}
		result.Versions = append(result.Versions, candidate)
	}

	return &result, nil
}

func parseCandidate(obj *jason.Object) (model.VersionCandidate, error) {
	var c model.VersionCandidate

	version, err := obj.GetString("version")
	if err != nil || strings.TrimSpace(version) == "" {
		return c, fmt.Errorf("version is required")
	}
	c.Version = strings.TrimSpace(version)

	rawType, err := obj.GetString("type")
	if err != nil {
		return c, fmt.Errorf("type is required")
	}
	vt, ok := model.ParseVersionType(rawType)
	if !ok {
		return c, fmt.Errorf("type %q is not major, minor or patch", rawType)
	}
	c.Type = vt

	if c.ReleaseDate, err = nullableDate(obj, "releaseDate"); err != nil {
		return c, err
	}
	if c.Notes, err = notes(obj); err != nil {
		return c, err
	}
	if c.BuildNumber, err = buildNumber(obj); err != nil {
		return c, err
	}
	return c, nil
}

// nullableString reads key as a string, treating null as empty.
func nullableString(obj *jason.Object, key string, required bool) (string, error) {
	v, err := obj.GetValue(key)
	if err != nil {
		if required {
			return "", fmt.Errorf("%s is required", key)
		}
		return "", nil
	}
	if v.Null() == nil {
		return "", nil
	}
	s, err := v.String()
	if err != nil {
		return "", fmt.Errorf("%s must be a string or null", key)
	}
	return strings.TrimSpace(s), nil
}

// nullableDate reads an optional date. A present but unparseable date is an error.
func nullableDate(obj *jason.Object, key string) (*time.Time, error) {
	s, err := nullableString(obj, key, false)
	if err != nil || s == "" {
		return nil, err
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s %q is not a recognised date", key, s)
}

// notes accepts a list of strings or one Markdown block.
func notes(obj *jason.Object) ([]string, error) {
	v, err := obj.GetValue("notes")
	if err != nil || v.Null() == nil {
		return []string{}, nil
	}

	if s, err := v.String(); err == nil {
		if s = strings.TrimSpace(s); s == "" {
			return []string{}, nil
		}
		return []string{s}, nil
	}

	items, err := v.Array()
	if err != nil {
		return nil, fmt.Errorf("notes must be a string or an array of strings")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, err := item.String()
		if err != nil {
			return nil, fmt.Errorf("notes must contain only strings")
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// buildNumber accepts a string or a number.
func buildNumber(obj *jason.Object) (string, error) {
	v, err := obj.GetValue("buildNumber")
	if err != nil || v.Null() == nil {
		return "", nil
	}
	if s, err := v.String(); err == nil {
		return strings.TrimSpace(s), nil
	}
	if n, err := v.Number(); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("buildNumber must be a string or a number")
}

// stripCodeFence removes a surrounding ```json ... ``` block if present.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func parseError(reason, response string) error {
	return errors.Newf("malformed extraction response: %s", reason).
		Component("extraction").
		Category(errors.CategoryExtraction).
		Context("response_preview", preview(response, 200)).
		Build()
}

func preview(s string, n int) string {
	s, truncated := truncateRunes(strings.TrimSpace(s), n)
	if truncated {
		return s + "..."
	}
	return s
}
