package extraction

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/logger"
)

// fakeMessagesAPI serves /v1/messages with the given status and assistant text.
func fakeMessagesAPI(t *testing.T, status int, text string, captured *atomic.Value) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		if captured != nil {
			body, _ := io.ReadAll(r.Body)
			captured.Store(map[string]string{
				"api_key": r.Header.Get("X-Api-Key"),
				"body":    string(body),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"upstream failure"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "msg_test",
			"type":          "message",
			"role":          "assistant",
			"model":         DefaultModel,
			"content":       []map[string]any{{"type": "text", "text": text}},
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"usage":         map[string]any{"input_tokens": 120, "output_tokens": 48},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestExtractor(t *testing.T, baseURL string) *AnthropicExtractor {
	t.Helper()
	extractor, err := NewAnthropicExtractor(Config{
		APIKey:          "test-key",
		BaseURL:         baseURL,
		Timeout:         5 * time.Second,
		MaxContentChars: 1000,
	}, nil, nil, logger.NewNopLogger())
	require.NoError(t, err)
	return extractor
}

func TestAnthropicExtractorParsesResponse(t *testing.T) {
	t.Parallel()

	var captured atomic.Value
	server := fakeMessagesAPI(t, http.StatusOK, "```json\n"+validResponse+"\n```", &captured)
	extractor := newTestExtractor(t, server.URL)

	result, err := extractor.Extract(t.Context(), "DaVinci Resolve", "DaVinci Resolve 19.1.3 is now available")
	require.NoError(t, err)
	assert.Equal(t, "19.1.3", result.CurrentVersion)
	assert.Len(t, result.Versions, 2)

	request, ok := captured.Load().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "test-key", request["api_key"])

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(request["body"]), &body))
	assert.Equal(t, DefaultModel, body["model"])
	assert.Contains(t, request["body"], "Product name: DaVinci Resolve")
}

func TestAnthropicExtractorRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	server := fakeMessagesAPI(t, http.StatusOK, "I could not find a version on this page.", nil)
	extractor := newTestExtractor(t, server.URL)

	result, err := extractor.Extract(t.Context(), "Blender", "Blender news")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.IsExtractionError(err))
}

func TestAnthropicExtractorAPIFailure(t *testing.T) {
	t.Parallel()

	server := fakeMessagesAPI(t, http.StatusInternalServerError, "", nil)
	extractor := newTestExtractor(t, server.URL)

	_, err := extractor.Extract(t.Context(), "Blender", "Blender 4.3")
	require.Error(t, err)
	assert.True(t, errors.IsExtractionError(err))

	var enhanced *errors.EnhancedError
	require.True(t, errors.As(err, &enhanced))
	assert.Equal(t, http.StatusInternalServerError, enhanced.GetContext()["status_code"])
}

func TestAnthropicExtractorHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	server := fakeMessagesAPI(t, http.StatusOK, validResponse, nil)
	extractor := newTestExtractor(t, server.URL)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := extractor.Extract(ctx, "Blender", "Blender 4.3")
	require.Error(t, err)
	assert.True(t, errors.IsExtractionError(err))
}

func TestNewAnthropicExtractorRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewAnthropicExtractor(Config{}, nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}
