package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrSyncInProgress is returned when a full sync is refused because
	// one is already running (single-flight).
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrOffline is returned when a full sync is refused because the
	// engine believes the network is unavailable.
	ErrOffline = errors.New("cannot sync while offline")
)

// TransientError wraps a network or server failure during push or
// pull. Transient failures are retryable: they drive scheduler backoff
// and are recorded per outbox entry, but are never surfaced to the
// mutation caller.
type TransientError struct {
	Op    string // "upsert", "delete", "list"
	Table string
	Err   error
}

func (e *TransientError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("remote %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
