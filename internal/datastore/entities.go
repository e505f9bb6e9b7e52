package datastore

import (
	"time"

	"github.com/tphakala/releasewatch/internal/model"
)

// Software is a tracked product in the catalog.
type Software struct {
	ID                 string `gorm:"primaryKey;size:64"`
	Name               string `gorm:"size:255;not null"`
	Website            string `gorm:"size:512"`
	VersionCheckURL    string `gorm:"size:1024"`
	CurrentVersion     string `gorm:"size:128"`
	CurrentVersionDate *time.Time
	LastCheckedAt      *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName pins the table name regardless of naming strategy.
func (Software) TableName() string { return "software" }

// ToTarget converts the row into the value checked by the orchestrator.
func (s *Software) ToTarget() model.Target {
	return model.Target{
		ID:                 s.ID,
		Name:               s.Name,
		Website:            s.Website,
		VersionCheckURL:    s.VersionCheckURL,
		CurrentVersion:     s.CurrentVersion,
		CurrentVersionDate: s.CurrentVersionDate,
		LastCheckedAt:      s.LastCheckedAt,
	}
}

// VersionRecord is one observed release of a product. (software_id, version) is unique.
type VersionRecord struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	SoftwareID           string     `gorm:"size:64;not null;uniqueIndex:idx_version_records_software_version,priority:1" json:"softwareId"`
	Version              string     `gorm:"size:128;not null;uniqueIndex:idx_version_records_software_version,priority:2" json:"version"`
	ReleaseDate          *time.Time `json:"releaseDate,omitempty"`
	Notes                []string   `gorm:"serializer:json;type:text" json:"notes"`
	Type                 string     `gorm:"size:16" json:"type"`
	BuildNumber          string     `gorm:"size:64" json:"buildNumber,omitempty"`
	ConfidenceScore      int        `json:"confidenceScore"`
	RequiresManualReview bool       `gorm:"index" json:"requiresManualReview"`
	NewsletterVerified   bool       `json:"newsletterVerified"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`

	Software *Software `gorm:"foreignKey:SoftwareID;references:ID;constraint:OnDelete:CASCADE" json:"software,omitempty"`
}

// TableName pins the table name regardless of naming strategy.
func (VersionRecord) TableName() string { return "version_records" }

// VersionRecordUpdate holds the fields refreshed when a stored version is observed again.
type VersionRecordUpdate struct {
	ReleaseDate *time.Time
	Notes       []string
	Type        string
	BuildNumber string
}
