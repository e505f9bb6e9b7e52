package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/releasewatch/internal/datastore"
	"github.com/tphakala/releasewatch/internal/logger"
)

const maxReviewPageSize = 500

// ReviewListResponse is the body of GET /api/v1/reviews.
type ReviewListResponse struct {
	Records []datastore.VersionRecord `json:"records"`
	Count   int                       `json:"count"`
}

// EditReviewRequest is the body of PUT /api/v1/reviews/:id.
type EditReviewRequest struct {
	Version         string `json:"version"`
	ConfidenceScore *int   `json:"confidenceScore"`
}

// ListReviews handles GET /api/v1/reviews, newest first.
func (s *Server) ListReviews(c echo.Context) error {
	limit := datastore.DefaultReviewPageSize
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxReviewPageSize {
			return s.HandleError(c, err, "limit must be between 1 and 500", http.StatusBadRequest)
		}
		limit = n
	}

	records, err := s.reviews.ListPendingReview(c.Request().Context(), limit)
	if err != nil {
		return s.HandleError(c, err, "failed to list records awaiting review", statusFromError(err))
	}
	if records == nil {
		records = []datastore.VersionRecord{}
	}

	return c.JSON(http.StatusOK, ReviewListResponse{Records: records, Count: len(records)})
}

// ApproveReview handles POST /api/v1/reviews/:id/approve.
func (s *Server) ApproveReview(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return s.HandleError(c, err, "invalid record id", http.StatusBadRequest)
	}

	rec, err := s.reviews.ApproveVersionRecord(c.Request().Context(), id)
	if err != nil {
		return s.HandleError(c, err, "failed to approve record", statusFromError(err))
	}

	s.log.Info("version record approved",
		logger.Int64("record_id", int64(rec.ID)),
		logger.String("software_id", rec.SoftwareID),
		logger.String("version", rec.Version))
	return c.JSON(http.StatusOK, rec)
}

// EditReview handles PUT /api/v1/reviews/:id: replace version and confidence, then approve.
func (s *Server) EditReview(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return s.HandleError(c, err, "invalid record id", http.StatusBadRequest)
	}

	var req EditReviewRequest
	if err := c.Bind(&req); err != nil {
		return s.HandleError(c, err, "invalid request body", http.StatusBadRequest)
	}
	req.Version = strings.TrimSpace(req.Version)
	if req.Version == "" || req.ConfidenceScore == nil {
		return s.HandleError(c, nil, "version and confidenceScore are required", http.StatusBadRequest)
	}

	rec, err := s.reviews.EditAndApproveVersionRecord(c.Request().Context(), id, req.Version, *req.ConfidenceScore)
	if err != nil {
		return s.HandleError(c, err, "failed to edit record", statusFromError(err))
	}

	s.log.Info("version record edited and approved",
		logger.Int64("record_id", int64(rec.ID)),
		logger.String("software_id", rec.SoftwareID),
		logger.String("version", rec.Version),
		logger.Int("confidence_score", rec.ConfidenceScore))
	return c.JSON(http.StatusOK, rec)
}

// RejectReview handles DELETE /api/v1/reviews/:id. Rejection is the only
// path that deletes a version record.
func (s *Server) RejectReview(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return s.HandleError(c, err, "invalid record id", http.StatusBadRequest)
	}

	if err := s.reviews.RejectVersionRecord(c.Request().Context(), id); err != nil {
		return s.HandleError(c, err, "failed to reject record", statusFromError(err))
	}

	s.log.Info("version record rejected", logger.Int64("record_id", int64(id)))
	return c.NoContent(http.StatusNoContent)
}

func recordID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, strconv.ErrRange
	}
	return uint(id), nil
}
