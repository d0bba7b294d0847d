// Package calculator holds the pure money math: split construction,
// balance derivation, and the minimum-transaction settlement plan.
// Everything operates on int64 amounts in the smallest currency unit.
package calculator

import "fmt"

// EqualSplit divides amount into n shares using integer division. Any
// remainder goes entirely to the first share, so the shares always sum
// to amount exactly.
func EqualSplit(amount int64, n int) ([]int64, error) {
	if n < 1 {
		return nil, fmt.Errorf("must have at least one participant")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", amount)
	}

	quotient := amount / int64(n)
	remainder := amount - quotient*int64(n)

	shares := make([]int64, n)
	for i := range shares {
		shares[i] = quotient
	}
	shares[0] += remainder
	return shares, nil
}

// ValidateCustomSplit checks that caller-supplied shares sum to the
// expense amount exactly. Mismatches are rejected, never adjusted.
func ValidateCustomSplit(amount int64, shares []int64) error {
	if len(shares) == 0 {
		return fmt.Errorf("must have at least one share")
	}
	var sum int64
	for _, share := range shares {
		if share < 0 {
			return fmt.Errorf("share amounts must not be negative, got %d", share)
		}
		sum += share
	}
	if sum != amount {
		return fmt.Errorf("share amounts sum to %d, expense amount is %d", sum, amount)
	}
	return nil
}
