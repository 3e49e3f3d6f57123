package money

// Bonding-curve constants. The quadratic curve prices a unit at
// (supply/10000)^2 + 0.01, expressed in micro-units (1e6 per whole unit) so
// all arithmetic stays in integers:
//
//	unitPrice = (supply/10000)^2 * 1_000_000 + 10_000
const (
	CurveSupplyDivisor = 10_000
	MicroUnitScale     = 1_000_000
	CurveBasePriceMicro = 10_000 // 0.01 in micro-units

	// TreasuryDivisor reserves 1% of every mint for the treasury bucket.
	// Floor division: amounts below 100 round to a zero treasury cut.
	TreasuryDivisor = 100
)

// CurveUnitPrice returns the micro-unit price for the current cumulative
// supply while the bonding curve is active.
func CurveUnitPrice(totalSupply uint64) (uint64, error) {
	base := totalSupply / CurveSupplyDivisor

	squared, err := CheckedMul(base, base)
	if err != nil {
		return 0, err
	}

	scaled, err := CheckedMul(squared, MicroUnitScale)
	if err != nil {
		return 0, err
	}

	return CheckedAdd(scaled, CurveBasePriceMicro)
}

// CurveCapReached reports whether cumulative market cap has hit the
// deactivation threshold (curveCap whole units, compared in micro-units).
func CurveCapReached(marketCap, curveCap uint64) (bool, error) {
	threshold, err := CheckedMul(curveCap, MicroUnitScale)
	if err != nil {
		return false, err
	}
	return marketCap >= threshold, nil
}

// TreasuryCut returns the 1% treasury reservation and the holder remainder
// for a minted amount.
func TreasuryCut(amount uint64) (treasury, holder uint64) {
	treasury = amount / TreasuryDivisor
	holder = amount - treasury
	return treasury, holder
}
