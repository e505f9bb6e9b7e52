package datastore

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tphakala/releasewatch/internal/errors"
)

// DefaultReviewPageSize bounds ListPendingReview when no limit is given.
const DefaultReviewPageSize = 100

// ListPendingReview returns records flagged for manual review, newest first,
// with their software preloaded.
func (s *GormStore) ListPendingReview(ctx context.Context, limit int) ([]VersionRecord, error) {
	if limit <= 0 {
		limit = DefaultReviewPageSize
	}
	var records []VersionRecord
	err := s.db.WithContext(ctx).
		Preload("Software").
		Where("requires_manual_review = ?", true).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, dbError(err, "list_pending_review")
	}
	return records, nil
}

// GetVersionRecord loads one record by id.
func (s *GormStore) GetVersionRecord(ctx context.Context, id uint) (*VersionRecord, error) {
	var rec VersionRecord
	err := s.db.WithContext(ctx).Preload("Software").First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(ErrVersionRecordNotFound, "version_record_id", id)
	}
	if err != nil {
		return nil, dbError(err, "get_version_record")
	}
	return &rec, nil
}

// ApproveVersionRecord clears the review flag and marks the record verified.
func (s *GormStore) ApproveVersionRecord(ctx context.Context, id uint) (*VersionRecord, error) {
	var rec VersionRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, id).Error; err != nil {
			return err
		}
		rec.RequiresManualReview = false
		rec.NewsletterVerified = true
		return tx.Model(&rec).Updates(map[string]any{
			"requires_manual_review": false,
			"newsletter_verified":    true,
		}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(ErrVersionRecordNotFound, "version_record_id", id)
	}
	if err != nil {
		return nil, dbError(err, "approve_version_record")
	}
	return &rec, nil
}

// EditAndApproveVersionRecord replaces the version string and confidence score,
// then approves the record. Renaming onto a version already stored for the same
// software fails with ErrDuplicateVersion.
func (s *GormStore) EditAndApproveVersionRecord(ctx context.Context, id uint, version string, confidence int) (*VersionRecord, error) {
	version = strings.TrimSpace(version)
	if version == "" || confidence < 0 || confidence > 100 {
		return nil, errors.New(ErrInvalidInput).
			Component("datastore").
			Category(errors.CategoryValidation).
			Context("version_record_id", id).
			Context("reason", "version is required and confidence must be within 0..100").
			Build()
	}

	var rec VersionRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, id).Error; err != nil {
			return err
		}

		if version != rec.Version {
			var clashes int64
			if err := tx.Model(&VersionRecord{}).
				Where("software_id = ? AND version = ? AND id <> ?", rec.SoftwareID, version, rec.ID).
				Count(&clashes).Error; err != nil {
				return err
			}
			if clashes > 0 {
				return ErrDuplicateVersion
			}
		}

		rec.Version = version
		rec.ConfidenceScore = confidence
		rec.RequiresManualReview = false
		rec.NewsletterVerified = true
		return tx.Model(&rec).Updates(map[string]any{
			"version":                version,
			"confidence_score":       confidence,
			"requires_manual_review": false,
			"newsletter_verified":    true,
		}).Error
	})
	switch {
	case err == nil:
		return &rec, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, notFound(ErrVersionRecordNotFound, "version_record_id", id)
	case errors.Is(err, ErrDuplicateVersion):
		return nil, errors.New(ErrDuplicateVersion).
			Component("datastore").
			Category(errors.CategoryConflict).
			Context("version_record_id", id).
			Context("version", version).
			Build()
	default:
		return nil, dbError(err, "edit_version_record")
	}
}

// RejectVersionRecord deletes the record. It is the only deletion path.
func (s *GormStore) RejectVersionRecord(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&VersionRecord{}, id)
	if res.Error != nil {
		return dbError(res.Error, "reject_version_record")
	}
	if res.RowsAffected == 0 {
		return notFound(ErrVersionRecordNotFound, "version_record_id", id)
	}
	return nil
}
