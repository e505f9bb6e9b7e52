package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/logger"
)

// RunChecks handles POST /api/v1/checks. It runs one orchestration and
// returns the CheckSummary. The run is detached from the request so a client
// disconnect does not abort it; the checker's run timeout still bounds it.
func (s *Server) RunChecks(c echo.Context) error {
	ctx := context.WithoutCancel(c.Request().Context())

	summary, err := s.runner.Run(ctx)
	switch {
	case err == nil:
	case errors.IsCategory(err, errors.CategoryConflict):
		return s.HandleError(c, err, "a check run is already in progress", http.StatusConflict)
	case errors.IsConfigError(err):
		return s.HandleError(c, err, "check run aborted: required configuration is missing", http.StatusInternalServerError)
	default:
		return s.HandleError(c, err, "check run failed", statusFromError(err))
	}

	s.log.Info("check run triggered over HTTP",
		logger.String("run_id", summary.RunID),
		logger.Int("total_checked", summary.TotalChecked),
		logger.Int("failed", summary.Failed),
		logger.String("ip", c.RealIP()))

	return c.JSON(http.StatusOK, summary)
}

// CheckTarget handles POST /api/v1/checks/:id and returns the CheckResult.
func (s *Server) CheckTarget(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return s.HandleError(c, nil, "target id is required", http.StatusBadRequest)
	}

	result, err := s.runner.CheckOne(context.WithoutCancel(c.Request().Context()), id)
	if err != nil {
		if errors.IsConfigError(err) {
			return s.HandleError(c, err, "check aborted: required configuration is missing", http.StatusInternalServerError)
		}
		return s.HandleError(c, err, "check failed", statusFromError(err))
	}

	return c.JSON(http.StatusOK, result)
}
