package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

const groupColumns = "id, name, description, invite_code, created_by, created_at, updated_at, last_modified_at"

func scanGroup(row interface{ Scan(...any) error }) (*models.Group, error) {
	g := &models.Group{}
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.InviteCode, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt, &g.LastModifiedAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	g, err := scanGroup(s.db.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

// PutGroup inserts or replaces a group by id.
func (s *SQLiteStore) PutGroup(ctx context.Context, g *models.Group) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO groups (`+groupColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			invite_code = excluded.invite_code,
			created_by = excluded.created_by,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			last_modified_at = excluded.last_modified_at`,
		g.ID, g.Name, g.Description, g.InviteCode, g.CreatedBy, g.CreatedAt, g.UpdatedAt, g.LastModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put group: %w", err)
	}
	return nil
}

// DeleteGroup removes a group by id. Deleting a missing group is a no-op.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

// GroupByInviteCode looks up a group by its invite code.
func (s *SQLiteStore) GroupByInviteCode(ctx context.Context, code string) (*models.Group, error) {
	g, err := scanGroup(s.db.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE invite_code = ?", code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invite code %s: %w", code, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group by invite code: %w", err)
	}
	return g, nil
}

// GroupsByIDs retrieves all groups whose id is in ids.
func (s *SQLiteStore) GroupsByIDs(ctx context.Context, ids []string) ([]models.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders, args := inPlaceholders(ids)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE id IN ("+placeholders+") ORDER BY created_at", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

const membershipColumns = "id, group_id, user_id, name, role, joined_at, last_modified_at"

func scanMembership(row interface{ Scan(...any) error }) (*models.Membership, error) {
	m := &models.Membership{}
	err := row.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Name, &m.Role, &m.JoinedAt, &m.LastModifiedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetMembership retrieves a membership by ID.
func (s *SQLiteStore) GetMembership(ctx context.Context, id string) (*models.Membership, error) {
	m, err := scanMembership(s.db.QueryRowContext(ctx,
		"SELECT "+membershipColumns+" FROM group_members WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("membership %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// PutMembership inserts or replaces a membership by id. The unique
// (group_id, user_id) constraint rejects a second membership for the
// same pair under a different id.
func (s *SQLiteStore) PutMembership(ctx context.Context, m *models.Membership) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO group_members (`+membershipColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			group_id = excluded.group_id,
			user_id = excluded.user_id,
			name = excluded.name,
			role = excluded.role,
			joined_at = excluded.joined_at,
			last_modified_at = excluded.last_modified_at`,
		m.ID, m.GroupID, m.UserID, m.Name, m.Role, m.JoinedAt, m.LastModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put membership: %w", err)
	}
	return nil
}

// DeleteMembership removes a membership by id.
func (s *SQLiteStore) DeleteMembership(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM group_members WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	return nil
}

// MembershipsByGroup retrieves the members of a group, oldest joiner
// first. The ordering is load-bearing: equal-split remainders go to
// the first member in this order.
func (s *SQLiteStore) MembershipsByGroup(ctx context.Context, groupID string) ([]models.Membership, error) {
	return s.queryMemberships(ctx,
		"SELECT "+membershipColumns+" FROM group_members WHERE group_id = ? ORDER BY joined_at, id", groupID)
}

// MembershipsByUser retrieves every membership held by a user.
func (s *SQLiteStore) MembershipsByUser(ctx context.Context, userID string) ([]models.Membership, error) {
	return s.queryMemberships(ctx,
		"SELECT "+membershipColumns+" FROM group_members WHERE user_id = ? ORDER BY joined_at, id", userID)
}

// MembershipByGroupUser retrieves the membership for a (group, user) pair.
func (s *SQLiteStore) MembershipByGroupUser(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	m, err := scanMembership(s.db.QueryRowContext(ctx,
		"SELECT "+membershipColumns+" FROM group_members WHERE group_id = ? AND user_id = ?", groupID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("membership %s/%s: %w", groupID, userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

func (s *SQLiteStore) queryMemberships(ctx context.Context, query string, args ...any) ([]models.Membership, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	var members []models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}
	return members, nil
}
