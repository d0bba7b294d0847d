package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// ExpenseService is the domain CRUD surface for expenses, splits, and
// settlement records, plus the balance/settlement derivations on top
// of them.
type ExpenseService struct {
	store storage.Store
}

// NewExpenseService creates a new ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

// SplitInput is one caller-supplied share for a custom split.
type SplitInput struct {
	UserID string
	Amount int64
}

// CreateExpenseInput carries everything needed to record an expense.
// For equal splits the shares are derived across all group members and
// Splits is ignored; for custom splits the supplied amounts must sum
// to Amount exactly.
type CreateExpenseInput struct {
	GroupID   string
	Title     string
	Amount    int64
	Currency  string
	Category  string
	PaidBy    string
	SplitKind string
	Splits    []SplitInput
}

// AddExpense validates the input, persists the expense and its splits,
// and enqueues every record for sync. Validation happens before any
// write: a rejected expense persists nothing.
func (s *ExpenseService) AddExpense(ctx context.Context, userID string, in CreateExpenseInput) (*models.Expense, error) {
	if in.Title == "" {
		return nil, validationErrorf("expense title is required")
	}
	if in.Amount <= 0 {
		return nil, validationErrorf("expense amount must be positive, got %d", in.Amount)
	}
	if in.Currency == "" {
		in.Currency = "INR"
	}

	members, err := s.store.MembershipsByGroup(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, validationErrorf("group %s has no members", in.GroupID)
	}

	memberByID := make(map[string]*models.Membership, len(members))
	for i := range members {
		memberByID[members[i].UserID] = &members[i]
	}
	if _, ok := memberByID[in.PaidBy]; !ok {
		return nil, validationErrorf("payer %s is not a member of the group", in.PaidBy)
	}

	shares, err := s.buildShares(in, members, memberByID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	expense := &models.Expense{
		ID:             uuid.New().String(),
		Title:          in.Title,
		Amount:         in.Amount,
		Currency:       in.Currency,
		Category:       in.Category,
		PaidBy:         in.PaidBy,
		Date:           now,
		GroupID:        in.GroupID,
		SplitKind:      in.SplitKind,
		CreatedBy:      userID,
		CreatedAt:      now,
		LastModifiedAt: now,
	}

	if err := s.store.PutExpense(ctx, expense); err != nil {
		return nil, err
	}
	if err := enqueue(ctx, s.store, userID, models.TableExpenses, models.OpInsert, expense.ID, expense); err != nil {
		return nil, err
	}

	for _, share := range shares {
		split := &models.ExpenseSplit{
			ID:             uuid.New().String(),
			ExpenseID:      expense.ID,
			GroupID:        expense.GroupID,
			UserID:         share.UserID,
			UserName:       memberByID[share.UserID].Name,
			Amount:         share.Amount,
			IsPaid:         share.UserID == expense.PaidBy,
			LastModifiedAt: now,
		}
		if err := s.store.PutSplit(ctx, split); err != nil {
			return nil, err
		}
		if err := enqueue(ctx, s.store, userID, models.TableSplits, models.OpInsert, split.ID, split); err != nil {
			return nil, err
		}
	}

	slog.Info("expense added",
		"expense_id", expense.ID, "group_id", expense.GroupID, "amount", expense.Amount, "split", expense.SplitKind)
	return expense, nil
}

// buildShares turns the input into validated (user, amount) shares.
func (s *ExpenseService) buildShares(in CreateExpenseInput, members []models.Membership, memberByID map[string]*models.Membership) ([]SplitInput, error) {
	switch in.SplitKind {
	case models.SplitEqual:
		amounts, err := calculator.EqualSplit(in.Amount, len(members))
		if err != nil {
			return nil, validationErrorf("%v", err)
		}
		shares := make([]SplitInput, len(members))
		for i, m := range members {
			shares[i] = SplitInput{UserID: m.UserID, Amount: amounts[i]}
		}
		return shares, nil

	case models.SplitCustom:
		if len(in.Splits) == 0 {
			return nil, validationErrorf("custom split requires share amounts")
		}
		amounts := make([]int64, len(in.Splits))
		seen := make(map[string]bool, len(in.Splits))
		for i, share := range in.Splits {
			if _, ok := memberByID[share.UserID]; !ok {
				return nil, validationErrorf("split user %s is not a member of the group", share.UserID)
			}
			if seen[share.UserID] {
				return nil, validationErrorf("duplicate split for user %s", share.UserID)
			}
			seen[share.UserID] = true
			amounts[i] = share.Amount
		}
		// Every member gets a split row, zero shares allowed. Balance
		// derivation credits the payer through their own split, so a
		// split set that skips a member (the payer especially) would
		// break the zero-sum invariant.
		if len(in.Splits) != len(members) {
			return nil, validationErrorf("custom split needs a share for each of the %d members, got %d", len(members), len(in.Splits))
		}
		if err := calculator.ValidateCustomSplit(in.Amount, amounts); err != nil {
			return nil, validationErrorf("%v", err)
		}
		return in.Splits, nil

	default:
		return nil, validationErrorf("unknown split kind %q", in.SplitKind)
	}
}

// RemoveExpense deletes an expense and its splits locally and enqueues
// the expense delete; the remote store cascades the splits.
func (s *ExpenseService) RemoveExpense(ctx context.Context, userID, expenseID string) error {
	if _, err := s.store.GetExpense(ctx, expenseID); err != nil {
		return err
	}
	if err := s.store.DeleteSplitsByExpense(ctx, expenseID); err != nil {
		return err
	}
	if err := s.store.DeleteExpense(ctx, expenseID); err != nil {
		return err
	}
	if err := enqueue(ctx, s.store, userID, models.TableExpenses, models.OpDelete, expenseID, nil); err != nil {
		return err
	}
	slog.Info("expense removed", "expense_id", expenseID)
	return nil
}

// GroupExpenses lists a group's expenses, newest first.
func (s *ExpenseService) GroupExpenses(ctx context.Context, groupID string) ([]models.Expense, error) {
	return s.store.ExpensesByGroup(ctx, groupID)
}

// Splits lists the splits of one expense.
func (s *ExpenseService) Splits(ctx context.Context, expenseID string) ([]models.ExpenseSplit, error) {
	return s.store.SplitsByExpense(ctx, expenseID)
}

// Balances derives every member's net balance from the group's current
// local state.
func (s *ExpenseService) Balances(ctx context.Context, groupID string) ([]calculator.MemberBalance, error) {
	members, err := s.store.MembershipsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	splits, err := s.store.SplitsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	settlements, err := s.store.SettlementsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return calculator.Balances(members, expenses, splits, settlements), nil
}

// Settlements derives the minimum-transaction payment plan for a group.
func (s *ExpenseService) Settlements(ctx context.Context, groupID string) ([]calculator.Settlement, error) {
	balances, err := s.Balances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return calculator.CalculateSettlements(balances), nil
}

// RecordSettlement persists an acknowledged payment between two
// members and enqueues it for sync. Paid settlements adjust later
// balance derivations.
func (s *ExpenseService) RecordSettlement(ctx context.Context, userID, groupID, fromUser, toUser string, amount int64) (*models.Settlement, error) {
	if amount <= 0 {
		return nil, validationErrorf("settlement amount must be positive, got %d", amount)
	}
	if fromUser == toUser {
		return nil, validationErrorf("cannot settle with yourself")
	}
	for _, user := range []string{fromUser, toUser} {
		if _, err := s.store.MembershipByGroupUser(ctx, groupID, user); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, validationErrorf("user %s is not a member of the group", user)
			}
			return nil, err
		}
	}

	now := time.Now().UnixMilli()
	settlement := &models.Settlement{
		ID:             uuid.New().String(),
		GroupID:        groupID,
		FromUser:       fromUser,
		ToUser:         toUser,
		Amount:         amount,
		IsPaid:         true,
		PaidAt:         now,
		CreatedAt:      now,
		LastModifiedAt: now,
	}
	if err := s.store.PutSettlement(ctx, settlement); err != nil {
		return nil, err
	}
	if err := enqueue(ctx, s.store, userID, models.TableSettlements, models.OpInsert, settlement.ID, settlement); err != nil {
		return nil, err
	}

	slog.Info("settlement recorded",
		"group_id", groupID, "from", fromUser, "to", toUser, "amount", amount)
	return settlement, nil
}
