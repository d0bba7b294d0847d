package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "settleup-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreGroups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := &models.Group{
		ID:             "g1",
		Name:           "Goa Trip",
		Description:    "Beach week",
		InviteCode:     "ABC123",
		CreatedBy:      "alice",
		CreatedAt:      1000,
		UpdatedAt:      1000,
		LastModifiedAt: 1000,
	}

	t.Run("put and get round trip", func(t *testing.T) {
		if err := store.PutGroup(ctx, group); err != nil {
			t.Fatalf("PutGroup failed: %v", err)
		}
		got, err := store.GetGroup(ctx, "g1")
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if *got != *group {
			t.Errorf("GetGroup = %+v, want %+v", got, group)
		}
	})

	t.Run("put is an upsert", func(t *testing.T) {
		updated := *group
		updated.Name = "Goa Trip 2.0"
		updated.LastModifiedAt = 2000
		if err := store.PutGroup(ctx, &updated); err != nil {
			t.Fatalf("PutGroup failed: %v", err)
		}
		got, err := store.GetGroup(ctx, "g1")
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Name != "Goa Trip 2.0" || got.LastModifiedAt != 2000 {
			t.Errorf("upsert did not replace fields: %+v", got)
		}
	})

	t.Run("lookup by invite code", func(t *testing.T) {
		got, err := store.GroupByInviteCode(ctx, "ABC123")
		if err != nil {
			t.Fatalf("GroupByInviteCode failed: %v", err)
		}
		if got.ID != "g1" {
			t.Errorf("GroupByInviteCode returned group %s, want g1", got.ID)
		}
		if _, err := store.GroupByInviteCode(ctx, "NOPE99"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("unknown invite code error = %v, want ErrNotFound", err)
		}
	})

	t.Run("groups by ids", func(t *testing.T) {
		other := &models.Group{ID: "g2", Name: "Flat", InviteCode: "XYZ789", LastModifiedAt: 1000}
		if err := store.PutGroup(ctx, other); err != nil {
			t.Fatalf("PutGroup failed: %v", err)
		}
		got, err := store.GroupsByIDs(ctx, []string{"g1", "g2", "missing"})
		if err != nil {
			t.Fatalf("GroupsByIDs failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("GroupsByIDs returned %d groups, want 2", len(got))
		}
		empty, err := store.GroupsByIDs(ctx, nil)
		if err != nil {
			t.Fatalf("GroupsByIDs(nil) failed: %v", err)
		}
		if len(empty) != 0 {
			t.Errorf("GroupsByIDs(nil) returned %d groups, want 0", len(empty))
		}
	})

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		if _, err := store.GetGroup(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetGroup error = %v, want ErrNotFound", err)
		}
	})

	t.Run("delete removes the group", func(t *testing.T) {
		if err := store.DeleteGroup(ctx, "g2"); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		if _, err := store.GetGroup(ctx, "g2"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetGroup after delete error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteStoreMemberships(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	members := []*models.Membership{
		{ID: "m1", GroupID: "g1", UserID: "alice", Name: "Alice", Role: models.RoleAdmin, JoinedAt: 1000, LastModifiedAt: 1000},
		{ID: "m2", GroupID: "g1", UserID: "bob", Name: "Bob", Role: models.RoleMember, JoinedAt: 2000, LastModifiedAt: 2000},
		{ID: "m3", GroupID: "g2", UserID: "alice", Name: "Alice", Role: models.RoleMember, JoinedAt: 3000, LastModifiedAt: 3000},
	}
	for _, m := range members {
		if err := store.PutMembership(ctx, m); err != nil {
			t.Fatalf("PutMembership(%s) failed: %v", m.ID, err)
		}
	}

	t.Run("memberships by group preserve join order", func(t *testing.T) {
		got, err := store.MembershipsByGroup(ctx, "g1")
		if err != nil {
			t.Fatalf("MembershipsByGroup failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d memberships, want 2", len(got))
		}
		if got[0].UserID != "alice" || got[1].UserID != "bob" {
			t.Errorf("join order wrong: %s, %s", got[0].UserID, got[1].UserID)
		}
	})

	t.Run("memberships by user span groups", func(t *testing.T) {
		got, err := store.MembershipsByUser(ctx, "alice")
		if err != nil {
			t.Fatalf("MembershipsByUser failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("got %d memberships for alice, want 2", len(got))
		}
	})

	t.Run("lookup by group and user", func(t *testing.T) {
		got, err := store.MembershipByGroupUser(ctx, "g1", "bob")
		if err != nil {
			t.Fatalf("MembershipByGroupUser failed: %v", err)
		}
		if got.ID != "m2" {
			t.Errorf("got membership %s, want m2", got.ID)
		}
		if _, err := store.MembershipByGroupUser(ctx, "g1", "carol"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("missing pair error = %v, want ErrNotFound", err)
		}
	})

	t.Run("duplicate group user pair with new id is rejected", func(t *testing.T) {
		dup := &models.Membership{ID: "m4", GroupID: "g1", UserID: "alice", Name: "Alice again", JoinedAt: 4000}
		if err := store.PutMembership(ctx, dup); err == nil {
			t.Error("expected duplicate (group, user) insert to fail")
		}
	})

	t.Run("same id upsert updates in place", func(t *testing.T) {
		renamed := *members[0]
		renamed.Name = "Alice W"
		renamed.LastModifiedAt = 5000
		if err := store.PutMembership(ctx, &renamed); err != nil {
			t.Fatalf("PutMembership upsert failed: %v", err)
		}
		got, err := store.GetMembership(ctx, "m1")
		if err != nil {
			t.Fatalf("GetMembership failed: %v", err)
		}
		if got.Name != "Alice W" {
			t.Errorf("upsert did not update name: %q", got.Name)
		}
	})

	t.Run("delete membership", func(t *testing.T) {
		if err := store.DeleteMembership(ctx, "m3"); err != nil {
			t.Fatalf("DeleteMembership failed: %v", err)
		}
		if _, err := store.GetMembership(ctx, "m3"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetMembership after delete error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteStoreExpensesAndSplits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	expense := &models.Expense{
		ID:             "e1",
		Title:          "Dinner",
		Amount:         300,
		Currency:       "INR",
		Category:       "food",
		PaidBy:         "alice",
		Date:           1000,
		GroupID:        "g1",
		SplitKind:      models.SplitEqual,
		CreatedBy:      "alice",
		CreatedAt:      1000,
		LastModifiedAt: 1000,
	}
	if err := store.PutExpense(ctx, expense); err != nil {
		t.Fatalf("PutExpense failed: %v", err)
	}

	splits := []*models.ExpenseSplit{
		{ID: "s1", ExpenseID: "e1", GroupID: "g1", UserID: "alice", UserName: "Alice", Amount: 100, IsPaid: true, LastModifiedAt: 1000},
		{ID: "s2", ExpenseID: "e1", GroupID: "g1", UserID: "bob", UserName: "Bob", Amount: 100, LastModifiedAt: 1000},
		{ID: "s3", ExpenseID: "e1", GroupID: "g1", UserID: "carol", UserName: "Carol", Amount: 100, LastModifiedAt: 1000},
	}
	for _, sp := range splits {
		if err := store.PutSplit(ctx, sp); err != nil {
			t.Fatalf("PutSplit(%s) failed: %v", sp.ID, err)
		}
	}

	t.Run("expense round trip", func(t *testing.T) {
		got, err := store.GetExpense(ctx, "e1")
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if *got != *expense {
			t.Errorf("GetExpense = %+v, want %+v", got, expense)
		}
	})

	t.Run("expenses by group", func(t *testing.T) {
		got, err := store.ExpensesByGroup(ctx, "g1")
		if err != nil {
			t.Fatalf("ExpensesByGroup failed: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("got %d expenses, want 1", len(got))
		}
		none, err := store.ExpensesByGroup(ctx, "g2")
		if err != nil {
			t.Fatalf("ExpensesByGroup failed: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("got %d expenses for empty group, want 0", len(none))
		}
	})

	t.Run("splits by expense and group", func(t *testing.T) {
		byExpense, err := store.SplitsByExpense(ctx, "e1")
		if err != nil {
			t.Fatalf("SplitsByExpense failed: %v", err)
		}
		if len(byExpense) != 3 {
			t.Errorf("got %d splits by expense, want 3", len(byExpense))
		}
		byGroup, err := store.SplitsByGroup(ctx, "g1")
		if err != nil {
			t.Fatalf("SplitsByGroup failed: %v", err)
		}
		if len(byGroup) != 3 {
			t.Errorf("got %d splits by group, want 3", len(byGroup))
		}
	})

	t.Run("split round trip keeps paid flag", func(t *testing.T) {
		got, err := store.GetSplit(ctx, "s1")
		if err != nil {
			t.Fatalf("GetSplit failed: %v", err)
		}
		if !got.IsPaid {
			t.Error("expected payer split to stay marked paid")
		}
		if got.UserName != "Alice" {
			t.Errorf("UserName = %q, want Alice", got.UserName)
		}
	})

	t.Run("delete splits by expense", func(t *testing.T) {
		if err := store.DeleteSplitsByExpense(ctx, "e1"); err != nil {
			t.Fatalf("DeleteSplitsByExpense failed: %v", err)
		}
		left, err := store.SplitsByExpense(ctx, "e1")
		if err != nil {
			t.Fatalf("SplitsByExpense failed: %v", err)
		}
		if len(left) != 0 {
			t.Errorf("got %d splits after delete, want 0", len(left))
		}
	})

	t.Run("delete expense", func(t *testing.T) {
		if err := store.DeleteExpense(ctx, "e1"); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		if _, err := store.GetExpense(ctx, "e1"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetExpense after delete error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteStoreSettlements(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	settlement := &models.Settlement{
		ID:             "st1",
		GroupID:        "g1",
		FromUser:       "bob",
		ToUser:         "alice",
		Amount:         100,
		IsPaid:         true,
		PaidAt:         2000,
		CreatedAt:      2000,
		LastModifiedAt: 2000,
	}
	if err := store.PutSettlement(ctx, settlement); err != nil {
		t.Fatalf("PutSettlement failed: %v", err)
	}

	got, err := store.GetSettlement(ctx, "st1")
	if err != nil {
		t.Fatalf("GetSettlement failed: %v", err)
	}
	if *got != *settlement {
		t.Errorf("GetSettlement = %+v, want %+v", got, settlement)
	}

	byGroup, err := store.SettlementsByGroup(ctx, "g1")
	if err != nil {
		t.Fatalf("SettlementsByGroup failed: %v", err)
	}
	if len(byGroup) != 1 {
		t.Errorf("got %d settlements, want 1", len(byGroup))
	}

	if err := store.DeleteSettlement(ctx, "st1"); err != nil {
		t.Fatalf("DeleteSettlement failed: %v", err)
	}
	if _, err := store.GetSettlement(ctx, "st1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetSettlement after delete error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStoreOutbox(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := []*models.OutboxEntry{
		{ID: "o1", UserID: "alice", Table: models.TableGroups, Op: models.OpInsert, RecordID: "g1", Payload: []byte(`{"id":"g1"}`), CreatedAt: 1000},
		{ID: "o2", UserID: "alice", Table: models.TableExpenses, Op: models.OpInsert, RecordID: "e1", Payload: []byte(`{"id":"e1"}`), CreatedAt: 2000},
		{ID: "o3", UserID: "alice", Table: models.TableExpenses, Op: models.OpDelete, RecordID: "e1", CreatedAt: 3000},
		{ID: "o4", UserID: "bob", Table: models.TableGroups, Op: models.OpInsert, RecordID: "g2", Payload: []byte(`{"id":"g2"}`), CreatedAt: 500},
	}
	for _, e := range entries {
		if err := store.AppendOutbox(ctx, e); err != nil {
			t.Fatalf("AppendOutbox(%s) failed: %v", e.ID, err)
		}
	}

	t.Run("entries come back oldest first per user", func(t *testing.T) {
		got, err := store.OutboxForUser(ctx, "alice")
		if err != nil {
			t.Fatalf("OutboxForUser failed: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("got %d entries, want 3", len(got))
		}
		for i, wantID := range []string{"o1", "o2", "o3"} {
			if got[i].ID != wantID {
				t.Errorf("entry[%d] = %s, want %s", i, got[i].ID, wantID)
			}
		}
		if string(got[0].Payload) != `{"id":"g1"}` {
			t.Errorf("payload = %s, want preserved JSON", got[0].Payload)
		}
		if len(got[2].Payload) != 0 {
			t.Errorf("delete entry payload = %s, want empty", got[2].Payload)
		}
	})

	t.Run("count is per user", func(t *testing.T) {
		n, err := store.CountOutbox(ctx, "alice")
		if err != nil {
			t.Fatalf("CountOutbox failed: %v", err)
		}
		if n != 3 {
			t.Errorf("CountOutbox(alice) = %d, want 3", n)
		}
		n, err = store.CountOutbox(ctx, "bob")
		if err != nil {
			t.Fatalf("CountOutbox failed: %v", err)
		}
		if n != 1 {
			t.Errorf("CountOutbox(bob) = %d, want 1", n)
		}
	})

	t.Run("set error keeps the entry", func(t *testing.T) {
		if err := store.SetOutboxError(ctx, "o2", "remote unavailable"); err != nil {
			t.Fatalf("SetOutboxError failed: %v", err)
		}
		got, err := store.OutboxForUser(ctx, "alice")
		if err != nil {
			t.Fatalf("OutboxForUser failed: %v", err)
		}
		if got[1].LastError != "remote unavailable" {
			t.Errorf("LastError = %q, want %q", got[1].LastError, "remote unavailable")
		}
	})

	t.Run("delete removes one entry", func(t *testing.T) {
		if err := store.DeleteOutbox(ctx, "o1"); err != nil {
			t.Fatalf("DeleteOutbox failed: %v", err)
		}
		n, err := store.CountOutbox(ctx, "alice")
		if err != nil {
			t.Fatalf("CountOutbox failed: %v", err)
		}
		if n != 2 {
			t.Errorf("CountOutbox after delete = %d, want 2", n)
		}
	})
}

func TestSQLiteStoreClearAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.PutGroup(ctx, &models.Group{ID: "g1", Name: "Trip", InviteCode: "AAAAAA"}); err != nil {
		t.Fatalf("PutGroup failed: %v", err)
	}
	if err := store.PutMembership(ctx, &models.Membership{ID: "m1", GroupID: "g1", UserID: "alice"}); err != nil {
		t.Fatalf("PutMembership failed: %v", err)
	}
	if err := store.PutExpense(ctx, &models.Expense{ID: "e1", GroupID: "g1", Amount: 100}); err != nil {
		t.Fatalf("PutExpense failed: %v", err)
	}
	if err := store.AppendOutbox(ctx, &models.OutboxEntry{ID: "o1", UserID: "alice", Table: models.TableGroups, Op: models.OpInsert, RecordID: "g1", CreatedAt: 1}); err != nil {
		t.Fatalf("AppendOutbox failed: %v", err)
	}

	if err := store.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}

	if _, err := store.GetGroup(ctx, "g1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("group survived ClearAll: err = %v", err)
	}
	if _, err := store.GetExpense(ctx, "e1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expense survived ClearAll: err = %v", err)
	}
	n, err := store.CountOutbox(ctx, "alice")
	if err != nil {
		t.Fatalf("CountOutbox failed: %v", err)
	}
	if n != 0 {
		t.Errorf("outbox survived ClearAll: %d entries", n)
	}
}
