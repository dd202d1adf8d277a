package types

import (
	"math"
	"testing"
	"time"
)

func TestCreditsString(t *testing.T) {
	tests := []struct {
		amount Credits
		want   string
	}{
		{0, "0 credits"},
		{1, "1 credit"},
		{-1, "-1 credit"},
		{5, "5 credits"},
		{-10, "-10 credits"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.amount.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCreditsArithmetic(t *testing.T) {
	var c Credits = 10
	if got := c.Add(-4).Add(1); got != 7 {
		t.Errorf("10 - 4 + 1 = %d, want 7", got)
	}
	if got := c.Negate(); got != -10 {
		t.Errorf("Negate() = %d, want -10", got)
	}
	if !Credits(5).Covers(5) {
		t.Error("5 should cover 5")
	}
	if Credits(4).Covers(5) {
		t.Error("4 should not cover 5")
	}
	if !Credits(0).IsZero() || Credits(1).IsNegative() || !Credits(-1).IsNegative() {
		t.Error("sign predicates are wrong")
	}
}

func TestCheckedAdd(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Credits
		want   Credits
		wantOK bool
	}{
		{"small", 3, 4, 7, true},
		{"negative", 3, -5, -2, true},
		{"max", math.MaxInt64 - 1, 1, math.MaxInt64, true},
		{"overflow", math.MaxInt64, 1, math.MaxInt64, false},
		{"underflow", math.MinInt64, -1, math.MinInt64, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.CheckedAdd(tt.b)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("CheckedAdd = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSum(t *testing.T) {
	if got := Sum(10, -5, 3); got != 8 {
		t.Errorf("Sum = %d, want 8", got)
	}
	if got := Sum(); got != 0 {
		t.Errorf("empty Sum = %d, want 0", got)
	}
}

func TestEntity(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	e := NewEntityAt(start)
	if !e.CreatedAt.Equal(start) || !e.UpdatedAt.Equal(start) {
		t.Fatalf("unexpected timestamps: %+v", e)
	}

	later := start.Add(time.Hour)
	e.Touch(later)
	if !e.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", e.UpdatedAt, later)
	}
	if !e.CreatedAt.Equal(start) {
		t.Error("Touch must not change CreatedAt")
	}
	if got := e.Age(later); got != time.Hour {
		t.Errorf("Age = %v, want 1h", got)
	}
}
