package money

import "errors"

// ErrFeeTooHigh signals a creator/platform fee pair above the allowed ceilings.
var ErrFeeTooHigh = errors.New("combined fees exceed ceiling")

// Fee percentages on battle rooms are whole percents (0-100); token-level
// fees are basis points (1 bp = 1/100 of 1%).
const (
	PercentDenominator    = 100
	BasisPointDenominator = 10_000

	// MaxCombinedFeeBP is the standard ceiling for creator+platform fees.
	MaxCombinedFeeBP = 1_000 // 10%

	// HardFeeCeilingBP is the absolute ceiling no fee configuration may
	// cross, regardless of variant. Enforced together with MaxCombinedFeeBP.
	HardFeeCeilingBP = 2_000 // 20%
)

// PlatformFee computes totalFees * percentage / 100 with floor division.
func PlatformFee(totalFees, percentage uint64) (uint64, error) {
	return MulDiv(totalFees, percentage, PercentDenominator)
}

// ValidateFeeBP checks a creator/platform fee pair against both ceilings.
func ValidateFeeBP(creatorBP, platformBP uint64) error {
	combined, err := CheckedAdd(creatorBP, platformBP)
	if err != nil {
		return err
	}
	if combined > MaxCombinedFeeBP || combined > HardFeeCeilingBP {
		return ErrFeeTooHigh
	}
	return nil
}

// TradeSplit is the settlement breakdown of a single token trade.
type TradeSplit struct {
	TradeValue     uint64
	CreatorFee     uint64
	PlatformFee    uint64
	SellerReceives uint64
}

// SplitTrade computes the fee split for amount*price. Each arithmetic step is
// independently checked; any overflow aborts the whole split.
func SplitTrade(amount, price, creatorFeeBP, platformFeeBP uint64) (TradeSplit, error) {
	tradeValue, err := CheckedMul(amount, price)
	if err != nil {
		return TradeSplit{}, err
	}

	creatorFee, err := MulDiv(tradeValue, creatorFeeBP, BasisPointDenominator)
	if err != nil {
		return TradeSplit{}, err
	}

	platformFee, err := MulDiv(tradeValue, platformFeeBP, BasisPointDenominator)
	if err != nil {
		return TradeSplit{}, err
	}

	totalFees, err := CheckedAdd(creatorFee, platformFee)
	if err != nil {
		return TradeSplit{}, err
	}

	sellerReceives, err := CheckedSub(tradeValue, totalFees)
	if err != nil {
		return TradeSplit{}, err
	}

	return TradeSplit{
		TradeValue:     tradeValue,
		CreatorFee:     creatorFee,
		PlatformFee:    platformFee,
		SellerReceives: sellerReceives,
	}, nil
}
