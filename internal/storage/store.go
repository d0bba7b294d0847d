// Package storage provides abstractions for the durable local cache.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/settleup/internal/models"
)

// ErrNotFound is returned by point lookups when no record with the
// given id exists. Callers distinguish it from storage faults with
// errors.Is.
var ErrNotFound = errors.New("record not found")

// Store is the local cache the rest of the system reads and writes
// through. It exclusively owns all table contents, including the
// outbox; the sync engine never holds its own copy of state across
// calls.
//
// Every operation is durable before it returns. Put methods are
// upserts (insert-or-replace by id), which is what makes the pull
// merge idempotent. Multi-record sequences are NOT atomic; callers
// order their writes so a crash in between cannot leave a dangling
// reference (record first, outbox entry second).
type Store interface {
	// Groups.
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	PutGroup(ctx context.Context, g *models.Group) error
	DeleteGroup(ctx context.Context, id string) error
	GroupByInviteCode(ctx context.Context, code string) (*models.Group, error)
	GroupsByIDs(ctx context.Context, ids []string) ([]models.Group, error)

	// Memberships. At most one membership exists per (group, user)
	// pair; PutMembership fails on a duplicate pair with a different id.
	GetMembership(ctx context.Context, id string) (*models.Membership, error)
	PutMembership(ctx context.Context, m *models.Membership) error
	DeleteMembership(ctx context.Context, id string) error
	MembershipsByGroup(ctx context.Context, groupID string) ([]models.Membership, error)
	MembershipsByUser(ctx context.Context, userID string) ([]models.Membership, error)
	MembershipByGroupUser(ctx context.Context, groupID, userID string) (*models.Membership, error)

	// Expenses.
	GetExpense(ctx context.Context, id string) (*models.Expense, error)
	PutExpense(ctx context.Context, e *models.Expense) error
	DeleteExpense(ctx context.Context, id string) error
	ExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error)

	// Expense splits.
	GetSplit(ctx context.Context, id string) (*models.ExpenseSplit, error)
	PutSplit(ctx context.Context, s *models.ExpenseSplit) error
	DeleteSplit(ctx context.Context, id string) error
	SplitsByExpense(ctx context.Context, expenseID string) ([]models.ExpenseSplit, error)
	SplitsByGroup(ctx context.Context, groupID string) ([]models.ExpenseSplit, error)
	DeleteSplitsByExpense(ctx context.Context, expenseID string) error

	// Settlement records.
	GetSettlement(ctx context.Context, id string) (*models.Settlement, error)
	PutSettlement(ctx context.Context, s *models.Settlement) error
	DeleteSettlement(ctx context.Context, id string) error
	SettlementsByGroup(ctx context.Context, groupID string) ([]models.Settlement, error)

	// Outbox. Entries come back oldest first; SetOutboxError is the
	// only permitted mutation of an existing entry.
	AppendOutbox(ctx context.Context, e *models.OutboxEntry) error
	OutboxForUser(ctx context.Context, userID string) ([]models.OutboxEntry, error)
	DeleteOutbox(ctx context.Context, id string) error
	SetOutboxError(ctx context.Context, id, msg string) error
	CountOutbox(ctx context.Context, userID string) (int, error)

	// ClearAll wipes every table. Used on account sign-out.
	ClearAll(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
