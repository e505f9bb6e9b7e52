// Package metrics defines the Prometheus collectors for check runs, collaborator
// calls and the HTTP surface.
package metrics

// Stage labels for per-target pipeline timings.
const (
	StageScrape   = "scrape"
	StageExtract  = "extract"
	StageValidate = "validate"
	StagePersist  = "persist"
)

// Result labels.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusTimeout = "timeout"
	StatusAborted = "aborted"
)

// Histogram bucket layout.
const (
	// BucketStart10ms is the starting bucket for 10ms histograms (10ms to ~40s range).
	BucketStart10ms = 0.01
	// BucketStart1s is the starting bucket for 1s histograms.
	BucketStart1s = 1.0
	// BucketFactor2 is the common exponential growth factor.
	BucketFactor2 = 2
	// BucketCount12 defines 12 exponential buckets.
	BucketCount12 = 12
	// BucketCount15 defines 15 exponential buckets.
	BucketCount15 = 15
)
