package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// GroupService is the domain CRUD surface for groups and memberships.
// Every mutation writes the record locally, then enqueues it for sync,
// before returning success.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a group with a fresh invite code and makes the
// creator its admin member.
func (s *GroupService) CreateGroup(ctx context.Context, userID, userName, name, description string) (*models.Group, error) {
	if name == "" {
		return nil, validationErrorf("group name is required")
	}

	code, err := s.freshInviteCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	group := &models.Group{
		ID:             uuid.New().String(),
		Name:           name,
		Description:    description,
		InviteCode:     code,
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastModifiedAt: now,
	}

	if err := s.store.PutGroup(ctx, group); err != nil {
		return nil, err
	}
	if err := enqueue(ctx, s.store, userID, models.TableGroups, models.OpInsert, group.ID, group); err != nil {
		return nil, err
	}

	member := &models.Membership{
		ID:             uuid.New().String(),
		GroupID:        group.ID,
		UserID:         userID,
		Name:           userName,
		Role:           models.RoleAdmin,
		JoinedAt:       now,
		LastModifiedAt: now,
	}
	if err := s.store.PutMembership(ctx, member); err != nil {
		return nil, err
	}
	if err := enqueue(ctx, s.store, userID, models.TableMemberships, models.OpInsert, member.ID, member); err != nil {
		return nil, err
	}

	slog.Info("group created", "group_id", group.ID, "invite_code", group.InviteCode)
	return group, nil
}

// JoinGroup adds the user to the group behind an invite code.
func (s *GroupService) JoinGroup(ctx context.Context, userID, userName, inviteCode string) (*models.Group, error) {
	group, err := s.store.GroupByInviteCode(ctx, inviteCode)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, validationErrorf("invalid invite code")
		}
		return nil, err
	}

	if _, err := s.store.MembershipByGroupUser(ctx, group.ID, userID); err == nil {
		return nil, validationErrorf("already a member of this group")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UnixMilli()
	member := &models.Membership{
		ID:             uuid.New().String(),
		GroupID:        group.ID,
		UserID:         userID,
		Name:           userName,
		Role:           models.RoleMember,
		JoinedAt:       now,
		LastModifiedAt: now,
	}
	if err := s.store.PutMembership(ctx, member); err != nil {
		return nil, err
	}
	if err := enqueue(ctx, s.store, userID, models.TableMemberships, models.OpInsert, member.ID, member); err != nil {
		return nil, err
	}

	slog.Info("joined group", "group_id", group.ID, "user_id", userID)
	return group, nil
}

// Groups lists every group the user belongs to.
func (s *GroupService) Groups(ctx context.Context, userID string) ([]models.Group, error) {
	memberships, err := s.store.MembershipsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(memberships))
	for i, m := range memberships {
		ids[i] = m.GroupID
	}
	return s.store.GroupsByIDs(ctx, ids)
}

// Members lists a group's memberships, oldest joiner first.
func (s *GroupService) Members(ctx context.Context, groupID string) ([]models.Membership, error) {
	return s.store.MembershipsByGroup(ctx, groupID)
}

// inviteCodeAlphabet deliberately matches what people can read back
// over the phone: uppercase letters and digits.
const inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const inviteCodeLength = 6

// freshInviteCode generates a code that no cached group currently
// uses. Collisions in a 36^6 space are rare; a few retries cover them.
func (s *GroupService) freshInviteCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateInviteCode()
		if err != nil {
			return "", err
		}
		_, err = s.store.GroupByInviteCode(ctx, code)
		if errors.Is(err, storage.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("failed to generate a unique invite code")
}

func generateInviteCode() (string, error) {
	buf := make([]byte, inviteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}
	for i, b := range buf {
		buf[i] = inviteCodeAlphabet[int(b)%len(inviteCodeAlphabet)]
	}
	return string(buf), nil
}
