package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mw "github.com/tphakala/releasewatch/internal/api/middleware"
	"github.com/tphakala/releasewatch/internal/datastore"
	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/logger"
	"github.com/tphakala/releasewatch/internal/model"
	"github.com/tphakala/releasewatch/internal/observability"
)

const testSecret = "s3cret"

type fakeRunner struct {
	summary  model.CheckSummary
	result   model.CheckResult
	runErr   error
	checkErr error
	runs     atomic.Int32
	checked  atomic.Value // last target id
}

func (f *fakeRunner) Run(context.Context) (model.CheckSummary, error) {
	f.runs.Add(1)
	return f.summary, f.runErr
}

func (f *fakeRunner) CheckOne(_ context.Context, id string) (model.CheckResult, error) {
	f.checked.Store(id)
	return f.result, f.checkErr
}

func (f *fakeRunner) Running() bool { return false }

type testServer struct {
	server  *Server
	store   *datastore.GormStore
	runner  *fakeRunner
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, secret string) *testServer {
	t.Helper()
	store, err := datastore.Open(datastore.Config{Type: datastore.TypeSQLite, SQLitePath: datastore.MemoryPath}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	m, err := observability.NewMetrics()
	require.NoError(t, err)

	runner := &fakeRunner{}
	cfg := DefaultConfig()
	cfg.TriggerSecret = secret
	cfg.Version = "1.2.3"

	srv, err := New(cfg, runner, store, WithLogger(logger.NewNopLogger()), WithMetrics(m))
	require.NoError(t, err)

	return &testServer{server: srv, store: store, runner: runner, metrics: m}
}

func (ts *testServer) do(t *testing.T, method, path, body string, authorized bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorized {
		req.Header.Set("Authorization", "Bearer "+testSecret)
	}
	rec := httptest.NewRecorder()
	ts.server.Echo().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testSecret)

	rec := ts.do(t, http.MethodGet, "/api/v1/health", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[HealthResponse](t, rec)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "ok", health.Database)
	assert.Equal(t, "1.2.3", health.Version)

	require.NoError(t, ts.store.Close())
	rec = ts.do(t, http.MethodGet, "/api/v1/health", "", false)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decode[HealthResponse](t, rec).Status)
}

func TestRunChecksAuthorization(t *testing.T) {
	t.Parallel()

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t, testSecret)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checks", http.NoBody)
		req.Header.Set(mw.TriggerSecretHeader, "guess")
		rec := httptest.NewRecorder()
		ts.server.Echo().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, ts.runner.runs.Load())
		assert.NotEmpty(t, decode[ErrorResponse](t, rec).CorrelationID)
	})

	t.Run("secret not configured", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t, "")
		rec := ts.do(t, http.MethodPost, "/api/v1/checks", "", true)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, decode[ErrorResponse](t, rec).Message, "not configured")
		assert.Zero(t, ts.runner.runs.Load(), "no targets are processed")
	})

	t.Run("trigger header accepted", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t, testSecret)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checks", http.NoBody)
		req.Header.Set(mw.TriggerSecretHeader, testSecret)
		rec := httptest.NewRecorder()
		ts.server.Echo().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int32(1), ts.runner.runs.Load())
	})
}

func TestRunChecks(t *testing.T) {
	t.Parallel()

	started := time.Date(2024, 11, 20, 12, 0, 0, 0, time.UTC)
	summary := model.NewCheckSummary("run-1", started, []model.CheckResult{
		{SoftwareID: "resolve", Name: "DaVinci Resolve", Success: true, VersionsFound: 2, VersionsAdded: 1},
		{SoftwareID: "atem", Name: "ATEM Mini", Error: "timed out while scraping"},
	})

	tests := []struct {
		name       string
		runErr     error
		wantStatus int
	}{
		{"success", nil, http.StatusOK},
		{"run in progress", errors.Newf("a check run is already in progress").Category(errors.CategoryConflict).Build(), http.StatusConflict},
		{"missing configuration", errors.Newf("missing required configuration: extraction.apikey").Category(errors.CategoryConfiguration).Build(), http.StatusInternalServerError},
		{"store failure", errors.Newf("database is locked").Category(errors.CategoryDatabase).Build(), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ts := newTestServer(t, testSecret)
			ts.runner.summary = summary
			ts.runner.runErr = tt.runErr

			rec := ts.do(t, http.MethodPost, "/api/v1/checks", "", true)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.runErr != nil {
				return
			}

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.InDelta(t, 2, body["totalChecked"], 0)
			assert.InDelta(t, 1, body["successful"], 0)
			assert.InDelta(t, 1, body["failed"], 0)
			assert.InDelta(t, 1, body["totalVersionsAdded"], 0)
		})
	}
}

func TestCheckTarget(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testSecret)
	ts.runner.result = model.CheckResult{SoftwareID: "resolve", Success: true, VersionsFound: 1}

	rec := ts.do(t, http.MethodPost, "/api/v1/checks/resolve", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "resolve", ts.runner.checked.Load())
	assert.True(t, decode[model.CheckResult](t, rec).Success)

	ts.runner.checkErr = errors.New(datastore.ErrTargetNotFound).Category(errors.CategoryNotFound).Build()
	rec = ts.do(t, http.MethodPost, "/api/v1/checks/missing", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func seedReview(t *testing.T, store *datastore.GormStore) (flagged, clean *datastore.VersionRecord) {
	t.Helper()
	ctx := t.Context()
	require.NoError(t, store.UpsertTarget(ctx, model.Target{ID: "resolve", Name: "DaVinci Resolve", VersionCheckURL: "https://example.com/notes"}))

	clean = &datastore.VersionRecord{SoftwareID: "resolve", Version: "19.1.2", Type: "patch", ConfidenceScore: 90, NewsletterVerified: true}
	flagged = &datastore.VersionRecord{SoftwareID: "resolve", Version: "91.1.3", Type: "major", ConfidenceScore: 45, RequiresManualReview: true}
	for _, rec := range []*datastore.VersionRecord{clean, flagged} {
		inserted, err := store.InsertVersionRecord(ctx, rec)
		require.NoError(t, err)
		require.True(t, inserted)
	}
	return flagged, clean
}

func TestReviewFlow(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testSecret)
	flagged, clean := seedReview(t, ts.store)
	flaggedPath := "/api/v1/reviews/" + strconv.FormatUint(uint64(flagged.ID), 10)

	rec := ts.do(t, http.MethodGet, "/api/v1/reviews", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/reviews", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ReviewListResponse](t, rec)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "91.1.3", list.Records[0].Version)
	require.NotNil(t, list.Records[0].Software)
	assert.Equal(t, "DaVinci Resolve", list.Records[0].Software.Name)

	// Editing onto an existing version is a conflict
	rec = ts.do(t, http.MethodPut, flaggedPath, `{"version":"`+clean.Version+`","confidenceScore":80}`, true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPut, flaggedPath, `{"version":"19.1.3"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, flaggedPath, `{"version":"19.1.3","confidenceScore":150}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, flaggedPath, `{"version":"19.1.3","confidenceScore":85}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	edited := decode[datastore.VersionRecord](t, rec)
	assert.Equal(t, "19.1.3", edited.Version)
	assert.Equal(t, 85, edited.ConfidenceScore)
	assert.False(t, edited.RequiresManualReview)
	assert.True(t, edited.NewsletterVerified)

	rec = ts.do(t, http.MethodGet, "/api/v1/reviews", "", true)
	assert.Zero(t, decode[ReviewListResponse](t, rec).Count)
}

func TestApproveAndRejectReview(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testSecret)
	flagged, clean := seedReview(t, ts.store)

	rec := ts.do(t, http.MethodPost, "/api/v1/reviews/"+strconv.FormatUint(uint64(flagged.ID), 10)+"/approve", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	approved := decode[datastore.VersionRecord](t, rec)
	assert.False(t, approved.RequiresManualReview)
	assert.True(t, approved.NewsletterVerified)

	rec = ts.do(t, http.MethodPost, "/api/v1/reviews/9999/approve", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/reviews/abc/approve", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cleanPath := "/api/v1/reviews/" + strconv.FormatUint(uint64(clean.ID), 10)
	rec = ts.do(t, http.MethodDelete, cleanPath, "", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodDelete, cleanPath, "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	count, err := ts.store.CountVersionRecords(t.Context(), "resolve")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestListReviewsRejectsBadLimit(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testSecret)

	for _, limit := range []string{"0", "-1", "501", "ten"} {
		rec := ts.do(t, http.MethodGet, "/api/v1/reviews?limit="+limit, "", true)
		assert.Equal(t, http.StatusBadRequest, rec.Code, limit)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testSecret)

	ts.do(t, http.MethodGet, "/api/v1/health", "", false)
	ts.do(t, http.MethodPost, "/api/v1/checks", "", false)

	rec := ts.do(t, http.MethodGet, "/metrics", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `releasewatch_http_requests_total{method="GET",route="/api/v1/health",status_code="200"} 1`)
	assert.Contains(t, body, `releasewatch_http_auth_failures_total{reason="missing"} 1`)
}

func TestUnknownRouteUsesErrorResponse(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, testSecret)

	rec := ts.do(t, http.MethodGet, "/nope", "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, decode[ErrorResponse](t, rec).Code)
}
