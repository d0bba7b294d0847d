package calculator

import "sort"

// Settlement is a computed payment from one member to another that
// moves both balances toward zero. It is derived on demand, never
// authoritative.
type Settlement struct {
	FromUser string
	FromName string
	ToUser   string
	ToName   string
	Amount   int64
}

// CalculateSettlements computes a minimal payment plan that zeroes all
// balances, using greedy two-pointer debt netting: biggest debtor pays
// biggest creditor the smaller of the two outstanding amounts, which
// fully settles at least one of them per payment. For n members with
// nonzero balance this emits at most n-1 settlements.
//
// The input balances must sum to zero; an all-zero input yields an
// empty plan.
func CalculateSettlements(balances []MemberBalance) []Settlement {
	working := make([]MemberBalance, len(balances))
	copy(working, balances)

	// Debtors (most negative) first, creditors last. The UserID
	// tiebreak keeps the plan deterministic for equal balances.
	sort.Slice(working, func(i, j int) bool {
		if working[i].Balance != working[j].Balance {
			return working[i].Balance < working[j].Balance
		}
		return working[i].UserID < working[j].UserID
	})

	var settlements []Settlement
	low, high := 0, len(working)-1
	for low < high {
		debtor := &working[low]
		creditor := &working[high]

		if debtor.Balance >= 0 {
			low++
			continue
		}
		if creditor.Balance <= 0 {
			high--
			continue
		}

		amount := min(-debtor.Balance, creditor.Balance)
		settlements = append(settlements, Settlement{
			FromUser: debtor.UserID,
			FromName: debtor.Name,
			ToUser:   creditor.UserID,
			ToName:   creditor.Name,
			Amount:   amount,
		})

		debtor.Balance += amount
		creditor.Balance -= amount
		if debtor.Balance == 0 {
			low++
		}
		if creditor.Balance == 0 {
			high--
		}
	}

	return settlements
}
