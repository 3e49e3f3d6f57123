package event

import (
	"time"

	"github.com/google/uuid"
)

// Domain events are emitted after a command commits, one or more per
// successful operation, for external indexers. Delivery is fire-and-forget
// and never part of the operation's success/failure contract.

// Event is the interface all outbound domain events implement.
type Event interface {
	// EventName returns the wire name used as NATS subject token and
	// event_type column value.
	EventName() string
}

// BattleRoomCreated announces a new room.
type BattleRoomCreated struct {
	Room            string    `json:"room_id"`
	Admin           uuid.UUID `json:"admin"`
	MaxParticipants uint8     `json:"max_participants"`
	CreatedAt       time.Time `json:"created_at"`
	BattleStart     time.Time `json:"battle_start"`
	BattleEnd       time.Time `json:"battle_end"`
}

func (BattleRoomCreated) EventName() string { return "battle_room_created" }

// TokenJoinedBattle announces a new participant token.
type TokenJoinedBattle struct {
	Room             string    `json:"room_id"`
	TokenSymbol      string    `json:"token_symbol"`
	TokenName        string    `json:"token_name"`
	Creator          uuid.UUID `json:"creator"`
	InitialSupply    uint64    `json:"initial_supply"`
	ParticipantCount uint8     `json:"participant_count"`
	JoinedAt         time.Time `json:"joined_at"`
}

func (TokenJoinedBattle) EventName() string { return "token_joined_battle" }

// BattleStarted announces the Open|Full -> Active transition.
type BattleStarted struct {
	Room             string    `json:"room_id"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	ParticipantCount uint8     `json:"participant_count"`
}

func (BattleStarted) EventName() string { return "battle_started" }

// TradeRecorded carries one appended trade and its fee accrual.
type TradeRecorded struct {
	Room        string    `json:"room_id"`
	TokenSymbol string    `json:"token_symbol"`
	Trader      uuid.UUID `json:"trader"`
	Amount      uint64    `json:"amount"`
	Fee         uint64    `json:"fee"`
	TradeType   string    `json:"trade_type"`
	MarketCap   uint64    `json:"market_cap"`
	Timestamp   time.Time `json:"timestamp"`
}

func (TradeRecorded) EventName() string { return "trade_recorded" }

// BattleClosed carries the settlement figures. The platform fee is the
// computed "would transfer" amount — actual custody is external.
type BattleClosed struct {
	Room        string    `json:"room_id"`
	TotalFees   uint64    `json:"total_fees"`
	PlatformFee uint64    `json:"platform_fee"`
	ClosedAt    time.Time `json:"closed_at"`
}

func (BattleClosed) EventName() string { return "battle_closed" }

// WinnerSet marks the single victorious token of a closed room.
type WinnerSet struct {
	Room        string `json:"room_id"`
	TokenSymbol string `json:"token_symbol"`
}

func (WinnerSet) EventName() string { return "winner_set" }

// RewardClaimed records a trader claim against the winner.
type RewardClaimed struct {
	Room        string    `json:"room_id"`
	TokenSymbol string    `json:"token_symbol"`
	Trader      uuid.UUID `json:"trader"`
	Amount      uint64    `json:"amount"`
	ClaimedAt   time.Time `json:"claimed_at"`
}

func (RewardClaimed) EventName() string { return "reward_claimed" }

// TokenInitialized announces a launchpad token account.
type TokenInitialized struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	CreatorFeeBP  uint64    `json:"creator_fee_bp"`
	PlatformFeeBP uint64    `json:"platform_fee_bp"`
	Authority     uuid.UUID `json:"authority"`
	CurveCap      uint64    `json:"curve_cap"`
}

func (TokenInitialized) EventName() string { return "token_initialized" }

// FeesUpdated carries a fee-config change.
type FeesUpdated struct {
	Symbol        string    `json:"symbol"`
	CreatorFeeBP  uint64    `json:"creator_fee_bp"`
	PlatformFeeBP uint64    `json:"platform_fee_bp"`
	Authority     uuid.UUID `json:"authority"`
}

func (FeesUpdated) EventName() string { return "fees_updated" }

// AccountFrozen announces an emergency freeze.
type AccountFrozen struct {
	Symbol    string    `json:"symbol"`
	Authority uuid.UUID `json:"authority"`
}

func (AccountFrozen) EventName() string { return "account_frozen" }

// AccountUnfrozen announces a lifted freeze.
type AccountUnfrozen struct {
	Symbol    string    `json:"symbol"`
	Authority uuid.UUID `json:"authority"`
}

func (AccountUnfrozen) EventName() string { return "account_unfrozen" }

// TokensMinted carries a bonding-curve mint settlement.
type TokensMinted struct {
	Symbol         string    `json:"symbol"`
	Holder         uuid.UUID `json:"holder"`
	Amount         uint64    `json:"amount"`
	UnitPrice      uint64    `json:"unit_price"`
	TotalPrice     uint64    `json:"total_price"`
	TreasuryAmount uint64    `json:"treasury_amount"`
	HolderAmount   uint64    `json:"holder_amount"`
	Treasury       uuid.UUID `json:"treasury"`
	CurveActive    bool      `json:"curve_active"`
}

func (TokensMinted) EventName() string { return "tokens_minted" }

// TradeExecuted carries a basis-point fee-split settlement.
type TradeExecuted struct {
	Symbol         string    `json:"symbol"`
	Trader         uuid.UUID `json:"trader"`
	Amount         uint64    `json:"amount"`
	Price          uint64    `json:"price"`
	TradeValue     uint64    `json:"trade_value"`
	CreatorFee     uint64    `json:"creator_fee"`
	PlatformFee    uint64    `json:"platform_fee"`
	SellerReceives uint64    `json:"seller_receives"`
}

func (TradeExecuted) EventName() string { return "trade_executed" }

// TreasuryUpdated announces a treasury wallet change.
type TreasuryUpdated struct {
	Symbol   string    `json:"symbol"`
	Treasury uuid.UUID `json:"treasury"`
}

func (TreasuryUpdated) EventName() string { return "treasury_updated" }

// MetadataUpdated announces a metadata URI change.
type MetadataUpdated struct {
	Symbol      string `json:"symbol"`
	MetadataURI string `json:"metadata_uri"`
}

func (MetadataUpdated) EventName() string { return "metadata_updated" }

// OwnershipTransferred announces an authority handover.
type OwnershipTransferred struct {
	Symbol       string    `json:"symbol"`
	OldAuthority uuid.UUID `json:"old_authority"`
	NewAuthority uuid.UUID `json:"new_authority"`
}

func (OwnershipTransferred) EventName() string { return "ownership_transferred" }
