package calculator

import "github.com/mmynk/settleup/internal/models"

// MemberBalance is one member's net position within a group.
// Positive means the group owes them, negative means they owe the group.
type MemberBalance struct {
	UserID  string
	Name    string
	Balance int64
}

// Balances derives the net balance of every group member from the raw
// expense and split history, then applies paid settlement records.
//
// For each split: the expense payer fronted the whole bill but only
// owes their own share, so their balance gains (expense.amount -
// split.amount); every other member's balance loses their split
// amount. Because splits sum exactly to the expense amount, the
// balances always sum to zero.
//
// A settlement record with IsPaid set moves money the same way a
// payment does: the debtor's balance rises, the creditor's falls.
// Unpaid settlement rows and per-split paid flags are ignored.
func Balances(members []models.Membership, expenses []models.Expense, splits []models.ExpenseSplit, settlements []models.Settlement) []MemberBalance {
	index := make(map[string]int, len(members))
	balances := make([]MemberBalance, len(members))
	for i, m := range members {
		index[m.UserID] = i
		balances[i] = MemberBalance{UserID: m.UserID, Name: m.Name}
	}

	expenseByID := make(map[string]*models.Expense, len(expenses))
	for i := range expenses {
		expenseByID[expenses[i].ID] = &expenses[i]
	}

	for _, sp := range splits {
		exp, ok := expenseByID[sp.ExpenseID]
		if !ok {
			continue // orphaned split, parent not pulled yet
		}
		i, ok := index[sp.UserID]
		if !ok {
			continue // split for a departed member
		}
		if sp.UserID == exp.PaidBy {
			balances[i].Balance += exp.Amount - sp.Amount
		} else {
			balances[i].Balance -= sp.Amount
		}
	}

	for _, st := range settlements {
		if !st.IsPaid {
			continue
		}
		if i, ok := index[st.FromUser]; ok {
			balances[i].Balance += st.Amount
		}
		if i, ok := index[st.ToUser]; ok {
			balances[i].Balance -= st.Amount
		}
	}

	return balances
}
