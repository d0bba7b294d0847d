package models

import "encoding/json"

// Outbox operations.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Synced table names. These double as the wire-level table identifiers
// sent to the remote store.
const (
	TableGroups      = "groups"
	TableMemberships = "group_members"
	TableExpenses    = "expenses"
	TableSplits      = "expense_splits"
	TableSettlements = "settlements"
)

// SyncedTables lists every table the sync engine pulls, in dependency
// order (parents before children) so a fresh pull never references a
// record it has not stored yet.
var SyncedTables = []string{
	TableGroups,
	TableMemberships,
	TableExpenses,
	TableSplits,
	TableSettlements,
}

// OutboxEntry is a pending local mutation awaiting delivery to the
// remote store. Entries are created synchronously with every local
// write, deleted only once the remote acknowledges the operation, and
// never otherwise mutated except to record the last delivery error.
type OutboxEntry struct {
	// ID is the unique identifier for the entry (UUID format).
	ID string `json:"id"`

	// UserID is the user whose mutation this is.
	UserID string `json:"user_id"`

	// Table is the target table name.
	Table string `json:"table_name"`

	// Op is OpInsert, OpUpdate, or OpDelete.
	Op string `json:"operation"`

	// RecordID is the target record id.
	RecordID string `json:"record_id"`

	// Payload is a full JSON copy of the record for insert/update.
	// Empty for delete.
	Payload json.RawMessage `json:"data,omitempty"`

	// CreatedAt is the enqueue time in epoch milliseconds. Push drains
	// entries oldest first.
	CreatedAt int64 `json:"created_at"`

	// LastError holds the most recent delivery failure, if any.
	LastError string `json:"error,omitempty"`
}
