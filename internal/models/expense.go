package models

// Split kinds.
const (
	SplitEqual  = "equal"
	SplitCustom = "custom"
)

// Expense represents a single shared expense within a group.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// Title is the human-readable name for the expense.
	Title string `json:"title"`

	// Amount is the full expense amount in the smallest currency unit.
	// Always positive.
	Amount int64 `json:"amount"`

	// Currency is an ISO currency code (e.g., "INR").
	Currency string `json:"currency"`

	// Category is an optional expense category.
	Category string `json:"category,omitempty"`

	// PaidBy is the user ID of the member who fronted the bill.
	PaidBy string `json:"paid_by"`

	// Date is when the expense occurred, epoch milliseconds.
	Date int64 `json:"date"`

	// GroupID is the owning group.
	GroupID string `json:"group_id"`

	// SplitKind is SplitEqual or SplitCustom.
	SplitKind string `json:"split_type"`

	// CreatedBy is the user ID that recorded the expense.
	CreatedBy string `json:"created_by"`

	// CreatedAt is the creation time in epoch milliseconds.
	CreatedAt int64 `json:"created_at"`

	// LastModifiedAt drives last-write-wins merging.
	LastModifiedAt int64 `json:"last_modified_at"`
}

// ExpenseSplit is one member's share of one expense. For a given
// expense the split amounts sum exactly to the expense amount; the
// payer's own split is marked paid at creation.
//
// GroupID is denormalized from the parent expense so splits can be
// fetched and queried per group like every other table.
type ExpenseSplit struct {
	// ID is the unique identifier for the split (UUID format).
	ID string `json:"id"`

	// ExpenseID is the parent expense.
	ExpenseID string `json:"expense_id"`

	// GroupID is the group owning the parent expense.
	GroupID string `json:"group_id"`

	// UserID identifies the member the share belongs to.
	UserID string `json:"user_id"`

	// UserName is a display name snapshot.
	UserName string `json:"user_name"`

	// Amount is this member's share in the smallest currency unit.
	Amount int64 `json:"amount"`

	// IsPaid marks the share as settled. Bookkeeping only: balance
	// derivation works from raw split amounts, not this flag.
	IsPaid bool `json:"is_paid"`

	// LastModifiedAt drives last-write-wins merging.
	LastModifiedAt int64 `json:"last_modified_at"`
}
