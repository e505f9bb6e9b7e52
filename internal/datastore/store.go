// Package datastore persists the software catalog and observed version records
// with gorm on SQLite or MySQL.
package datastore

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/model"
)

// GormStore persists the catalog and version records with gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an opened and migrated database.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying handle.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Ping verifies the database connection.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return dbError(err, "ping")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dbError(err, "ping")
	}
	return nil
}

// Close closes the connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return dbError(err, "close")
	}
	if err := sqlDB.Close(); err != nil {
		return dbError(err, "close")
	}
	return nil
}

// GetTarget loads one catalog entry by id.
func (s *GormStore) GetTarget(ctx context.Context, id string) (*model.Target, error) {
	var sw Software
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&sw).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(ErrTargetNotFound, "target_id", id)
	}
	if err != nil {
		return nil, dbError(err, "get_target")
	}
	target := sw.ToTarget()
	return &target, nil
}

// ListTargetsWithVersionURL returns every target that has a version-check URL.
func (s *GormStore) ListTargetsWithVersionURL(ctx context.Context) ([]model.Target, error) {
	var rows []Software
	err := s.db.WithContext(ctx).
		Where("version_check_url IS NOT NULL AND version_check_url <> ''").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, dbError(err, "list_targets_with_version_url")
	}
	return toTargets(rows), nil
}

// ListTargets returns the whole catalog ordered by name.
func (s *GormStore) ListTargets(ctx context.Context) ([]model.Target, error) {
	var rows []Software
	if err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, dbError(err, "list_targets")
	}
	return toTargets(rows), nil
}

// UpsertTarget creates a catalog entry or updates its descriptive fields.
// Observed version fields are never overwritten by an import.
func (s *GormStore) UpsertTarget(ctx context.Context, target model.Target) error {
	target.ID = strings.TrimSpace(target.ID)
	target.Name = strings.TrimSpace(target.Name)
	if target.ID == "" || target.Name == "" {
		return errors.New(ErrInvalidInput).
			Component("datastore").
			Category(errors.CategoryValidation).
			Context("target_id", target.ID).
			Context("reason", "id and name are required").
			Build()
	}

	row := Software{
		ID:              target.ID,
		Name:            target.Name,
		Website:         strings.TrimSpace(target.Website),
		VersionCheckURL: strings.TrimSpace(target.VersionCheckURL),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "website", "version_check_url", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return dbError(err, "upsert_target")
	}
	return nil
}

// UpdateTargetCurrentVersion records the newest observed version and the check time.
func (s *GormStore) UpdateTargetCurrentVersion(ctx context.Context, id, version string, releaseDate *time.Time, checkedAt time.Time) error {
	res := s.db.WithContext(ctx).Model(&Software{}).Where("id = ?", id).Updates(map[string]any{
		"current_version":      version,
		"current_version_date": releaseDate,
		"last_checked_at":      checkedAt,
	})
	if res.Error != nil {
		return dbError(res.Error, "update_target_current_version")
	}
	if res.RowsAffected == 0 {
		return notFound(ErrTargetNotFound, "target_id", id)
	}
	return nil
}

// FindVersionRecord looks up the record for (softwareID, version).
func (s *GormStore) FindVersionRecord(ctx context.Context, softwareID, version string) (*VersionRecord, error) {
	var rec VersionRecord
	err := s.db.WithContext(ctx).
		Where("software_id = ? AND version = ?", softwareID, version).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(ErrVersionRecordNotFound, "version", version)
	}
	if err != nil {
		return nil, dbError(err, "find_version_record")
	}
	return &rec, nil
}

// InsertVersionRecord inserts rec unless a record for the same (software, version)
// already exists. It reports whether a row was created.
func (s *GormStore) InsertVersionRecord(ctx context.Context, rec *VersionRecord) (bool, error) {
	if rec == nil || rec.SoftwareID == "" || strings.TrimSpace(rec.Version) == "" {
		return false, errors.New(ErrInvalidInput).
			Component("datastore").
			Category(errors.CategoryValidation).
			Context("reason", "software id and version are required").
			Build()
	}
	if rec.Notes == nil {
		rec.Notes = []string{}
	}

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "software_id"}, {Name: "version"}},
		DoNothing: true,
	}).Create(rec)
	if res.Error != nil {
		return false, dbError(res.Error, "insert_version_record")
	}
	return res.RowsAffected > 0, nil
}

// UpdateVersionRecord refreshes release details of an existing record.
// Review state and score are left untouched.
func (s *GormStore) UpdateVersionRecord(ctx context.Context, id uint, fields VersionRecordUpdate) error {
	notes := fields.Notes
	if notes == nil {
		notes = []string{}
	}
	res := s.db.WithContext(ctx).Model(&VersionRecord{ID: id}).
		Select("release_date", "notes", "type", "build_number", "updated_at").
		Updates(&VersionRecord{
			ReleaseDate: fields.ReleaseDate,
			Notes:       notes,
			Type:        fields.Type,
			BuildNumber: fields.BuildNumber,
			UpdatedAt:   time.Now(),
		})
	if res.Error != nil {
		return dbError(res.Error, "update_version_record")
	}
	if res.RowsAffected == 0 {
		return notFound(ErrVersionRecordNotFound, "version_record_id", id)
	}
	return nil
}

// CountVersionRecords returns how many records exist for softwareID.
func (s *GormStore) CountVersionRecords(ctx context.Context, softwareID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&VersionRecord{}).
		Where("software_id = ?", softwareID).
		Count(&count).Error
	if err != nil {
		return 0, dbError(err, "count_version_records")
	}
	return count, nil
}

func toTargets(rows []Software) []model.Target {
	targets := make([]model.Target, 0, len(rows))
	for i := range rows {
		targets = append(targets, rows[i].ToTarget())
	}
	return targets
}
