package token

import (
	"time"

	"github.com/google/uuid"
)

const (
	MaxSymbolLen = 8
	MaxNameLen   = 32

	// DefaultCurveCap is the bonding-curve deactivation threshold in whole
	// units, used when a token is initialized without an explicit cap.
	DefaultCurveCap = 1_000_000

	// PostCurveUnitPrice is the fixed micro-unit price applied to mints
	// after the bonding curve deactivates.
	PostCurveUnitPrice = 1_000_000
)

// Account is a launchpad token account: fee configuration, authority,
// emergency-freeze flag and bonding-curve issuance state.
type Account struct {
	Symbol        string
	Name          string
	CreatorFeeBP  uint64
	PlatformFeeBP uint64
	Authority     uuid.UUID
	Treasury      uuid.UUID
	MetadataURI   string
	Frozen        bool

	// Bonding-curve state. CurveActive flips to false permanently once
	// MarketCap reaches CurveCap (monotone one-way flag).
	TotalSupply    uint64
	MarketCap      uint64
	CurveActive    bool
	CurveCap       uint64
	TreasuryUnits  uint64 // cumulative 1% mint reservations
	TradeVolume    uint64 // cumulative settled trade value
	CreatedAt      time.Time
}

// MintResult is the settlement breakdown of one mint.
type MintResult struct {
	UnitPrice      uint64
	TotalPrice     uint64
	TreasuryAmount uint64
	HolderAmount   uint64
	CurveActive    bool // state after this mint
}
