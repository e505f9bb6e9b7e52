package checker

// State is a stage of one target's check pipeline.
type State int

const (
	// StatePending indicates the target is queued but has not started
	StatePending State = iota
	// StateScraping indicates the release-notes page is being fetched
	StateScraping
	// StateExtracting indicates the extraction collaborator is running
	StateExtracting
	// StateValidating indicates the extraction is being validated and scored
	StateValidating
	// StatePersisting indicates version records are being written
	StatePersisting
	// StateDone indicates the check completed successfully
	StateDone
	// StateFailed indicates the check stopped on an error
	StateFailed
)

// String returns the upper-case state name used in logs and results.
func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateScraping:
		return "SCRAPING"
	case StateExtracting:
		return "EXTRACTING"
	case StateValidating:
		return "VALIDATING"
	case StatePersisting:
		return "PERSISTING"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// CanTransition reports whether next may follow s. The pipeline advances one
// stage at a time and FAILED is reachable from every non-terminal state.
func (s State) CanTransition(next State) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StateFailed {
		return true
	}
	return next == s+1
}
