package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

const expenseColumns = "id, title, amount, currency, category, paid_by, date, group_id, split_type, created_by, created_at, last_modified_at"

func scanExpense(row interface{ Scan(...any) error }) (*models.Expense, error) {
	e := &models.Expense{}
	err := row.Scan(&e.ID, &e.Title, &e.Amount, &e.Currency, &e.Category, &e.PaidBy, &e.Date,
		&e.GroupID, &e.SplitKind, &e.CreatedBy, &e.CreatedAt, &e.LastModifiedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetExpense retrieves an expense by ID.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	e, err := scanExpense(s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

// PutExpense inserts or replaces an expense by id.
func (s *SQLiteStore) PutExpense(ctx context.Context, e *models.Expense) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			amount = excluded.amount,
			currency = excluded.currency,
			category = excluded.category,
			paid_by = excluded.paid_by,
			date = excluded.date,
			group_id = excluded.group_id,
			split_type = excluded.split_type,
			created_by = excluded.created_by,
			created_at = excluded.created_at,
			last_modified_at = excluded.last_modified_at`,
		e.ID, e.Title, e.Amount, e.Currency, e.Category, e.PaidBy, e.Date,
		e.GroupID, e.SplitKind, e.CreatedBy, e.CreatedAt, e.LastModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put expense: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense by id.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

// ExpensesByGroup retrieves a group's expenses, newest first.
func (s *SQLiteStore) ExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE group_id = ? ORDER BY date DESC, id", groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

const splitColumns = "id, expense_id, group_id, user_id, user_name, amount, is_paid, last_modified_at"

func scanSplit(row interface{ Scan(...any) error }) (*models.ExpenseSplit, error) {
	sp := &models.ExpenseSplit{}
	err := row.Scan(&sp.ID, &sp.ExpenseID, &sp.GroupID, &sp.UserID, &sp.UserName, &sp.Amount, &sp.IsPaid, &sp.LastModifiedAt)
	if err != nil {
		return nil, err
	}
	return sp, nil
}

// GetSplit retrieves an expense split by ID.
func (s *SQLiteStore) GetSplit(ctx context.Context, id string) (*models.ExpenseSplit, error) {
	sp, err := scanSplit(s.db.QueryRowContext(ctx,
		"SELECT "+splitColumns+" FROM expense_splits WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("split %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get split: %w", err)
	}
	return sp, nil
}

// PutSplit inserts or replaces an expense split by id.
func (s *SQLiteStore) PutSplit(ctx context.Context, sp *models.ExpenseSplit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expense_splits (`+splitColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			expense_id = excluded.expense_id,
			group_id = excluded.group_id,
			user_id = excluded.user_id,
			user_name = excluded.user_name,
			amount = excluded.amount,
			is_paid = excluded.is_paid,
			last_modified_at = excluded.last_modified_at`,
		sp.ID, sp.ExpenseID, sp.GroupID, sp.UserID, sp.UserName, sp.Amount, sp.IsPaid, sp.LastModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put split: %w", err)
	}
	return nil
}

// DeleteSplit removes an expense split by id.
func (s *SQLiteStore) DeleteSplit(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM expense_splits WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete split: %w", err)
	}
	return nil
}

// SplitsByExpense retrieves the splits of one expense.
func (s *SQLiteStore) SplitsByExpense(ctx context.Context, expenseID string) ([]models.ExpenseSplit, error) {
	return s.querySplits(ctx,
		"SELECT "+splitColumns+" FROM expense_splits WHERE expense_id = ? ORDER BY id", expenseID)
}

// SplitsByGroup retrieves every split in a group, across all expenses.
func (s *SQLiteStore) SplitsByGroup(ctx context.Context, groupID string) ([]models.ExpenseSplit, error) {
	return s.querySplits(ctx,
		"SELECT "+splitColumns+" FROM expense_splits WHERE group_id = ? ORDER BY id", groupID)
}

// DeleteSplitsByExpense removes all splits belonging to an expense.
func (s *SQLiteStore) DeleteSplitsByExpense(ctx context.Context, expenseID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM expense_splits WHERE expense_id = ?", expenseID); err != nil {
		return fmt.Errorf("failed to delete splits: %w", err)
	}
	return nil
}

func (s *SQLiteStore) querySplits(ctx context.Context, query string, args ...any) ([]models.ExpenseSplit, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query splits: %w", err)
	}
	defer rows.Close()

	var splits []models.ExpenseSplit
	for rows.Next() {
		sp, err := scanSplit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, *sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return splits, nil
}

const settlementColumns = "id, group_id, from_user, to_user, amount, is_paid, paid_at, created_at, last_modified_at"

func scanSettlement(row interface{ Scan(...any) error }) (*models.Settlement, error) {
	st := &models.Settlement{}
	err := row.Scan(&st.ID, &st.GroupID, &st.FromUser, &st.ToUser, &st.Amount, &st.IsPaid, &st.PaidAt, &st.CreatedAt, &st.LastModifiedAt)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// GetSettlement retrieves a settlement record by ID.
func (s *SQLiteStore) GetSettlement(ctx context.Context, id string) (*models.Settlement, error) {
	st, err := scanSettlement(s.db.QueryRowContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settlement %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return st, nil
}

// PutSettlement inserts or replaces a settlement record by id.
func (s *SQLiteStore) PutSettlement(ctx context.Context, st *models.Settlement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settlements (`+settlementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			group_id = excluded.group_id,
			from_user = excluded.from_user,
			to_user = excluded.to_user,
			amount = excluded.amount,
			is_paid = excluded.is_paid,
			paid_at = excluded.paid_at,
			created_at = excluded.created_at,
			last_modified_at = excluded.last_modified_at`,
		st.ID, st.GroupID, st.FromUser, st.ToUser, st.Amount, st.IsPaid, st.PaidAt, st.CreatedAt, st.LastModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put settlement: %w", err)
	}
	return nil
}

// DeleteSettlement removes a settlement record by id.
func (s *SQLiteStore) DeleteSettlement(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM settlements WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete settlement: %w", err)
	}
	return nil
}

// SettlementsByGroup retrieves a group's settlement records, oldest first.
func (s *SQLiteStore) SettlementsByGroup(ctx context.Context, groupID string) ([]models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE group_id = ? ORDER BY created_at, id", groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements: %w", err)
	}
	defer rows.Close()

	var settlements []models.Settlement
	for rows.Next() {
		st, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}
