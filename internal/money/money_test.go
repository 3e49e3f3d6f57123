package money_test

import (
	"errors"
	"math"
	"testing"

	"BattleLedger/internal/money"
)

func TestCheckedAdd_Overflow(t *testing.T) {
	if _, err := money.CheckedAdd(math.MaxUint64, 1); !errors.Is(err, money.ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}

	sum, err := money.CheckedAdd(math.MaxUint64-1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum != math.MaxUint64 {
		t.Errorf("got %d, want %d", sum, uint64(math.MaxUint64))
	}
}

func TestCheckedSub_Underflow(t *testing.T) {
	if _, err := money.CheckedSub(5, 6); !errors.Is(err, money.ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}

	diff, err := money.CheckedSub(5, 5)
	if err != nil || diff != 0 {
		t.Errorf("got (%d, %v), want (0, nil)", diff, err)
	}
}

func TestCheckedMul_Overflow(t *testing.T) {
	if _, err := money.CheckedMul(math.MaxUint64, 2); !errors.Is(err, money.ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}

	// Zero operand never overflows.
	if p, err := money.CheckedMul(0, math.MaxUint64); err != nil || p != 0 {
		t.Errorf("got (%d, %v), want (0, nil)", p, err)
	}
}

func TestCheckedDiv_Floor(t *testing.T) {
	q, err := money.CheckedDiv(7, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q != 3 {
		t.Errorf("got %d, want 3 (floor)", q)
	}

	if _, err := money.CheckedDiv(1, 0); !errors.Is(err, money.ErrDivideByZero) {
		t.Errorf("expected ErrDivideByZero, got %v", err)
	}
}

func TestPlatformFee(t *testing.T) {
	// The reference scenario: 50 total fees at 10% -> 5.
	fee, err := money.PlatformFee(50, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fee != 5 {
		t.Errorf("got %d, want 5", fee)
	}

	// Truncation: 55 * 10 / 100 = 5 (floor), not 6.
	fee, _ = money.PlatformFee(55, 10)
	if fee != 5 {
		t.Errorf("got %d, want 5", fee)
	}

	if _, err := money.PlatformFee(math.MaxUint64, 10); !errors.Is(err, money.ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}

func TestValidateFeeBP(t *testing.T) {
	if err := money.ValidateFeeBP(500, 500); err != nil {
		t.Errorf("1000 bp combined should be allowed: %v", err)
	}
	if err := money.ValidateFeeBP(501, 500); !errors.Is(err, money.ErrFeeTooHigh) {
		t.Errorf("expected ErrFeeTooHigh, got %v", err)
	}
	if err := money.ValidateFeeBP(math.MaxUint64, 1); !errors.Is(err, money.ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}

func TestSplitTrade(t *testing.T) {
	// amount=100, price=50 -> trade_value=5000
	// creator 250bp -> 125, platform 250bp -> 125, seller 4750
	split, err := money.SplitTrade(100, 50, 250, 250)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if split.TradeValue != 5000 {
		t.Errorf("TradeValue = %d, want 5000", split.TradeValue)
	}
	if split.CreatorFee != 125 || split.PlatformFee != 125 {
		t.Errorf("fees = (%d, %d), want (125, 125)", split.CreatorFee, split.PlatformFee)
	}
	if split.SellerReceives != 4750 {
		t.Errorf("SellerReceives = %d, want 4750", split.SellerReceives)
	}
}

func TestSplitTrade_FloorFees(t *testing.T) {
	// trade_value=999, 100bp -> 999*100/10000 = 9 (floor)
	split, err := money.SplitTrade(999, 1, 100, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if split.CreatorFee != 9 || split.PlatformFee != 9 {
		t.Errorf("fees = (%d, %d), want (9, 9)", split.CreatorFee, split.PlatformFee)
	}
	if split.SellerReceives != 999-18 {
		t.Errorf("SellerReceives = %d, want %d", split.SellerReceives, 999-18)
	}
}

func TestSplitTrade_ValueOverflow(t *testing.T) {
	if _, err := money.SplitTrade(math.MaxUint64, 2, 100, 100); !errors.Is(err, money.ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}

func TestCurveUnitPrice(t *testing.T) {
	// Below the divisor the quadratic term vanishes: base price only.
	price, err := money.CurveUnitPrice(9_999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != money.CurveBasePriceMicro {
		t.Errorf("got %d, want base price %d", price, uint64(money.CurveBasePriceMicro))
	}

	// supply=20_000 -> base=2 -> 4*1e6 + 10_000
	price, err = money.CurveUnitPrice(20_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := uint64(4_000_000 + 10_000); price != want {
		t.Errorf("got %d, want %d", price, want)
	}

	if _, err := money.CurveUnitPrice(math.MaxUint64); !errors.Is(err, money.ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}

func TestCurveCapReached(t *testing.T) {
	reached, err := money.CurveCapReached(999_999, 1)
	if err != nil || reached {
		t.Errorf("cap should not be reached below 1e6 micro-units")
	}

	reached, err = money.CurveCapReached(1_000_000, 1)
	if err != nil || !reached {
		t.Errorf("cap should be reached at exactly the threshold")
	}
}

func TestTreasuryCut(t *testing.T) {
	treasury, holder := money.TreasuryCut(1000)
	if treasury != 10 || holder != 990 {
		t.Errorf("got (%d, %d), want (10, 990)", treasury, holder)
	}

	// Amounts below 100 floor to a zero treasury cut — accepted rounding rule.
	treasury, holder = money.TreasuryCut(99)
	if treasury != 0 || holder != 99 {
		t.Errorf("got (%d, %d), want (0, 99)", treasury, holder)
	}
}
