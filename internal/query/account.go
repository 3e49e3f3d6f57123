package query

import (
	"github.com/google/uuid"
)

// AccountResponse represents launchpad token account state for API queries
type AccountResponse struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	CreatorFeeBP  uint64    `json:"creator_fee_bp"`
	PlatformFeeBP uint64    `json:"platform_fee_bp"`
	Authority     uuid.UUID `json:"authority"`
	Treasury      uuid.UUID `json:"treasury"`
	MetadataURI   string    `json:"metadata_uri"`
	Frozen        bool      `json:"frozen"`

	// Bonding-curve state
	TotalSupply   uint64 `json:"total_supply"`
	MarketCap     uint64 `json:"market_cap"`
	CurveActive   bool   `json:"curve_active"`
	CurveCap      uint64 `json:"curve_cap"`
	TreasuryUnits uint64 `json:"treasury_units"`
	TradeVolume   uint64 `json:"trade_volume"`

	// Metadata
	AsOfSequence int64 `json:"as_of_sequence"` // last applied command sequence
}
