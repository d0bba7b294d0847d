package models

// Membership roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Group represents a shared expense group.
//
// The invite code is a short, human-shareable token granting join
// rights; it is unique among active groups.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Goa Trip").
	Name string `json:"name"`

	// Description is an optional free-form description.
	Description string `json:"description,omitempty"`

	// InviteCode is the short shareable join token.
	InviteCode string `json:"invite_code"`

	// CreatedBy is the user ID of the group creator.
	CreatedBy string `json:"created_by"`

	// CreatedAt is the creation time in epoch milliseconds.
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the last edit time in epoch milliseconds.
	UpdatedAt int64 `json:"updated_at"`

	// LastModifiedAt drives last-write-wins merging.
	LastModifiedAt int64 `json:"last_modified_at"`
}

// Membership ties a user to a group. At most one membership exists per
// (group, user) pair; the group creator's initial membership has role
// admin.
type Membership struct {
	// ID is the unique identifier for the membership (UUID format).
	ID string `json:"id"`

	// GroupID is the group this membership belongs to.
	GroupID string `json:"group_id"`

	// UserID identifies the member.
	UserID string `json:"user_id"`

	// Name is a display name snapshot taken when the user joined.
	Name string `json:"name"`

	// Role is RoleAdmin or RoleMember.
	Role string `json:"role"`

	// JoinedAt is the join time in epoch milliseconds.
	JoinedAt int64 `json:"joined_at"`

	// LastModifiedAt drives last-write-wins merging.
	LastModifiedAt int64 `json:"last_modified_at"`
}
