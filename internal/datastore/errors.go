package datastore

import (
	"github.com/tphakala/releasewatch/internal/errors"
)

var (
	// ErrTargetNotFound indicates the requested catalog entry does not exist.
	ErrTargetNotFound = errors.NewStd("target not found")

	// ErrVersionRecordNotFound indicates the requested version record does not exist.
	ErrVersionRecordNotFound = errors.NewStd("version record not found")

	// ErrDuplicateVersion indicates an edit would create a second record for the same version.
	ErrDuplicateVersion = errors.NewStd("version already recorded for this software")

	// ErrInvalidInput indicates a write was rejected before reaching the database.
	ErrInvalidInput = errors.NewStd("invalid input")
)

func dbError(err error, operation string) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Build()
}

func notFound(sentinel error, key string, value any) error {
	return errors.New(sentinel).
		Component("datastore").
		Category(errors.CategoryNotFound).
		Context(key, value).
		Build()
}
