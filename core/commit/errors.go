package commit

import (
	"errors"
	"fmt"

	"records-manager/core/reconcile"
)

var (
	// ErrPartialCommit marks a single write that could not be applied inside a committed chunk.
	ErrPartialCommit = errors.New("partial commit failure")
	// ErrCancelled is returned when cancellation was observed between chunks.
	ErrCancelled = errors.New("commit cancelled")
)

// PartialCommitFailure describes an update whose target disappeared between planning
// and commit. It is retryable: re-planning will route the record to insert.
type PartialCommitFailure struct {
	Kind   reconcile.EntityKind `json:"kind"`
	ID     string               `json:"id"`
	Reason string               `json:"reason"`
}

func (e *PartialCommitFailure) Error() string {
	return fmt.Sprintf("%s/%s: %s", e.Kind, e.ID, e.Reason)
}

func (e *PartialCommitFailure) Unwrap() error {
	return ErrPartialCommit
}

// Retryable reports that re-running the import can apply this record.
func (e *PartialCommitFailure) Retryable() bool {
	return true
}
