// Package types provides common types used across debate.
package types

import (
	"fmt"
	"strconv"
)

// Credits is an amount of the in-app currency. One unit is the smallest
// indivisible credit, so all arithmetic is integer-only.
type Credits int64

// Add returns c + other.
func (c Credits) Add(other Credits) Credits { return c + other }

// CheckedAdd returns c + other and false when the sum does not fit in an
// int64.
func (c Credits) CheckedAdd(other Credits) (Credits, bool) {
	sum := c + other
	if (other > 0 && sum < c) || (other < 0 && sum > c) {
		return c, false
	}
	return sum, true
}

// Negate returns -c.
func (c Credits) Negate() Credits { return -c }

// IsZero returns true if the amount is zero.
func (c Credits) IsZero() bool { return c == 0 }

// IsPositive returns true if the amount is greater than zero.
func (c Credits) IsPositive() bool { return c > 0 }

// IsNegative returns true if the amount is less than zero.
func (c Credits) IsNegative() bool { return c < 0 }

// Covers reports whether c is enough to pay cost.
func (c Credits) Covers(cost Credits) bool { return c >= cost }

// String formats the amount for display, e.g. "5 credits" or "-1 credit".
func (c Credits) String() string {
	if c == 1 || c == -1 {
		return fmt.Sprintf("%d credit", int64(c))
	}
	return strconv.FormatInt(int64(c), 10) + " credits"
}

// Sum adds up a list of amounts.
func Sum(amounts ...Credits) Credits {
	var total Credits
	for _, a := range amounts {
		total += a
	}
	return total
}
