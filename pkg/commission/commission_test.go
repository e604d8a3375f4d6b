package commission

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefaultPolicyFivePercent(t *testing.T) {
	t.Parallel()

	policy := Default()

	subtotal := decimal.NewFromInt(100)
	if got := policy.PayableAmount(subtotal); !got.Equal(decimal.NewFromInt(95)) {
		t.Fatalf("expected payable 95, got %s", got)
	}
	if got := policy.Commission(subtotal); !got.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected commission 5, got %s", got)
	}
}

func TestPayableAmountFractional(t *testing.T) {
	t.Parallel()

	policy := Default()

	subtotal := decimal.NewFromInt(30)
	want := decimal.RequireFromString("28.5")
	if got := policy.PayableAmount(subtotal); !got.Equal(want) {
		t.Fatalf("expected payable 28.5, got %s", got)
	}
}

func TestNewPolicyRejectsOutOfRangeRates(t *testing.T) {
	t.Parallel()

	if _, err := NewPolicy(decimal.NewFromInt(-1)); err == nil {
		t.Fatal("expected error for negative rate")
	}
	if _, err := NewPolicy(decimal.NewFromInt(1)); err == nil {
		t.Fatal("expected error for rate >= 1")
	}
	if _, err := NewPolicy(decimal.Zero); err != nil {
		t.Fatalf("zero rate should be allowed: %v", err)
	}
}
