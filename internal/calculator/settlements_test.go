package calculator

import "testing"

func TestCalculateSettlements(t *testing.T) {
	tests := []struct {
		name     string
		balances []MemberBalance
		want     []Settlement
	}{
		{
			name:     "empty input yields empty plan",
			balances: nil,
			want:     nil,
		},
		{
			name: "all zero yields empty plan",
			balances: []MemberBalance{
				{UserID: "alice", Balance: 0},
				{UserID: "bob", Balance: 0},
			},
			want: nil,
		},
		{
			name: "one creditor two debtors",
			balances: []MemberBalance{
				{UserID: "alice", Name: "Alice", Balance: 200},
				{UserID: "bob", Name: "Bob", Balance: -100},
				{UserID: "carol", Name: "Carol", Balance: -100},
			},
			want: []Settlement{
				{FromUser: "bob", FromName: "Bob", ToUser: "alice", ToName: "Alice", Amount: 100},
				{FromUser: "carol", FromName: "Carol", ToUser: "alice", ToName: "Alice", Amount: 100},
			},
		},
		{
			name: "single pair settles directly",
			balances: []MemberBalance{
				{UserID: "alice", Name: "Alice", Balance: 50},
				{UserID: "bob", Name: "Bob", Balance: -50},
			},
			want: []Settlement{
				{FromUser: "bob", FromName: "Bob", ToUser: "alice", ToName: "Alice", Amount: 50},
			},
		},
		{
			name: "big debtor pays two creditors",
			balances: []MemberBalance{
				{UserID: "alice", Name: "Alice", Balance: 70},
				{UserID: "bob", Name: "Bob", Balance: 30},
				{UserID: "carol", Name: "Carol", Balance: -100},
			},
			want: []Settlement{
				{FromUser: "carol", FromName: "Carol", ToUser: "alice", ToName: "Alice", Amount: 70},
				{FromUser: "carol", FromName: "Carol", ToUser: "bob", ToName: "Bob", Amount: 30},
			},
		},
		{
			name: "zero balance member receives no payment",
			balances: []MemberBalance{
				{UserID: "alice", Balance: 100},
				{UserID: "bob", Balance: 0},
				{UserID: "carol", Balance: -100},
			},
			want: []Settlement{
				{FromUser: "carol", ToUser: "alice", Amount: 100},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateSettlements(tt.balances)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d settlements, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, s := range got {
				w := tt.want[i]
				if s.FromUser != w.FromUser || s.ToUser != w.ToUser || s.Amount != w.Amount {
					t.Errorf("settlement[%d] = %s->%s %d, want %s->%s %d",
						i, s.FromUser, s.ToUser, s.Amount, w.FromUser, w.ToUser, w.Amount)
				}
				if s.FromName != w.FromName || s.ToName != w.ToName {
					t.Errorf("settlement[%d] names = %q->%q, want %q->%q",
						i, s.FromName, s.ToName, w.FromName, w.ToName)
				}
			}
		})
	}
}

// applyPlan plays a settlement plan back against the balances it was
// derived from and returns the resulting positions.
func applyPlan(balances []MemberBalance, plan []Settlement) map[string]int64 {
	after := make(map[string]int64, len(balances))
	for _, b := range balances {
		after[b.UserID] = b.Balance
	}
	for _, s := range plan {
		after[s.FromUser] += s.Amount
		after[s.ToUser] -= s.Amount
	}
	return after
}

func TestCalculateSettlementsZeroesAllBalances(t *testing.T) {
	cases := [][]MemberBalance{
		{
			{UserID: "a", Balance: 200},
			{UserID: "b", Balance: -100},
			{UserID: "c", Balance: -100},
		},
		{
			{UserID: "a", Balance: 170},
			{UserID: "b", Balance: -40},
			{UserID: "c", Balance: -130},
		},
		{
			{UserID: "a", Balance: 1},
			{UserID: "b", Balance: 2},
			{UserID: "c", Balance: 3},
			{UserID: "d", Balance: -6},
		},
		{
			{UserID: "a", Balance: 999},
			{UserID: "b", Balance: -500},
			{UserID: "c", Balance: -499},
			{UserID: "d", Balance: 0},
		},
	}

	for _, balances := range cases {
		plan := CalculateSettlements(balances)

		nonZero := 0
		for _, b := range balances {
			if b.Balance != 0 {
				nonZero++
			}
		}
		if nonZero > 0 && len(plan) > nonZero-1 {
			t.Errorf("plan has %d settlements for %d nonzero balances, want at most %d",
				len(plan), nonZero, nonZero-1)
		}

		for userID, remaining := range applyPlan(balances, plan) {
			if remaining != 0 {
				t.Errorf("after plan, %s still holds %d", userID, remaining)
			}
		}
		for _, s := range plan {
			if s.Amount <= 0 {
				t.Errorf("plan contains non-positive payment %+v", s)
			}
		}
	}
}

func TestCalculateSettlementsDoesNotMutateInput(t *testing.T) {
	balances := []MemberBalance{
		{UserID: "a", Balance: 100},
		{UserID: "b", Balance: -100},
	}
	CalculateSettlements(balances)
	if balances[0].Balance != 100 || balances[1].Balance != -100 {
		t.Errorf("input balances mutated: %+v", balances)
	}
}
