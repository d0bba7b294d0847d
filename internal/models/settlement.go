package models

// Settlement records an acknowledged payment between two group members.
//
// This is an explicit write with its own lifecycle, independent of the
// settlement plan the calculator derives on demand. A settlement with
// IsPaid set adjusts subsequent balance computations; unpaid rows are
// reminders only.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string `json:"id"`

	// GroupID is the group this settlement belongs to.
	GroupID string `json:"group_id"`

	// FromUser is the debtor settling up.
	FromUser string `json:"from_user"`

	// ToUser is the creditor being paid.
	ToUser string `json:"to_user"`

	// Amount is the payment amount in the smallest currency unit.
	Amount int64 `json:"amount"`

	// IsPaid marks the payment as actually made.
	IsPaid bool `json:"is_paid"`

	// PaidAt is when the payment happened, epoch milliseconds. Zero if
	// not yet paid.
	PaidAt int64 `json:"paid_at,omitempty"`

	// CreatedAt is the creation time in epoch milliseconds.
	CreatedAt int64 `json:"created_at"`

	// LastModifiedAt drives last-write-wins merging.
	LastModifiedAt int64 `json:"last_modified_at"`
}
