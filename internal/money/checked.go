package money

import "errors"

// ErrOverflow signals that an arithmetic step would exceed the uint64 range
// (or underflow below zero). Amounts are never wrapped or saturated — the
// whole operation that hit the overflow must be rejected.
var ErrOverflow = errors.New("arithmetic overflow")

// ErrDivideByZero signals a zero divisor in fee math.
var ErrDivideByZero = errors.New("divide by zero")

// CheckedAdd returns a+b or ErrOverflow.
func CheckedAdd(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

// CheckedSub returns a-b or ErrOverflow on underflow.
func CheckedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// CheckedMul returns a*b or ErrOverflow.
func CheckedMul(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	product := a * b
	if product/a != b {
		return 0, ErrOverflow
	}
	return product, nil
}

// CheckedDiv returns a/b (floor) or ErrDivideByZero.
func CheckedDiv(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a / b, nil
}

// MulDiv computes a*b/denom with floor division, failing on multiply overflow
// or a zero denominator. Truncation is intentional: downstream sums depend on
// deterministic floor semantics, never rounding.
func MulDiv(a, b, denom uint64) (uint64, error) {
	product, err := CheckedMul(a, b)
	if err != nil {
		return 0, err
	}
	return CheckedDiv(product, denom)
}
