package engine

import (
	"context"
	"encoding/json"
)

// RemoteStore is the authoritative server-side store the engine syncs
// against. Concrete transport lives elsewhere; the engine only needs
// these four calls. Any of them may fail with a TransientError, which
// the engine treats as retryable, never fatal.
//
// Records cross this boundary as raw JSON objects with the stable
// snake_case field names from the models package, so push can forward
// outbox payloads untouched.
type RemoteStore interface {
	// Upsert performs an idempotent insert-or-replace keyed by the
	// record's id field.
	Upsert(ctx context.Context, table string, record json.RawMessage) error

	// Delete removes a record by id. Deleting a missing record succeeds.
	Delete(ctx context.Context, table, id string) error

	// ListByGroupIDs fetches all records in table scoped to the given
	// groups.
	ListByGroupIDs(ctx context.Context, table string, groupIDs []string) ([]json.RawMessage, error)

	// ListMembershipsForUser fetches every membership row for a user,
	// which is how pull discovers the groups to sync.
	ListMembershipsForUser(ctx context.Context, userID string) ([]json.RawMessage, error)
}
