package command

import (
	"time"

	"github.com/google/uuid"
)

// TradeType represents trade direction
type TradeType int32

const (
	TradeTypeBuy TradeType = iota
	TradeTypeSell
)

func (tt TradeType) String() string {
	if tt == TradeTypeSell {
		return "sell"
	}
	return "buy"
}

// CreateBattleRoom opens a new battle room.
// Idempotency key: command_id (UUID from upstream).
type CreateBattleRoom struct {
	CommandID       uuid.UUID // Idempotency key
	Room            string
	Admin           uuid.UUID
	MaxParticipants uint8
	DurationSeconds int64
	Sequence        int64     // Source sequence from upstream
	Timestamp       time.Time // Versioned input timestamp (NOT wall-clock)
}

func (c *CreateBattleRoom) IdempotencyKey() string      { return c.CommandID.String() }
func (c *CreateBattleRoom) CommandType() CommandType    { return CommandTypeCreateBattleRoom }
func (c *CreateBattleRoom) RoomID() *string             { r := c.Room; return &r }
func (c *CreateBattleRoom) SourceSequence() int64       { return c.Sequence }

// JoinBattleRoom admits a new token into an open room.
type JoinBattleRoom struct {
	CommandID     uuid.UUID
	Room          string
	TokenSymbol   string
	TokenName     string
	Creator       uuid.UUID
	InitialSupply uint64
	Sequence      int64
	Timestamp     time.Time
}

func (c *JoinBattleRoom) IdempotencyKey() string   { return c.CommandID.String() }
func (c *JoinBattleRoom) CommandType() CommandType { return CommandTypeJoinBattleRoom }
func (c *JoinBattleRoom) RoomID() *string          { r := c.Room; return &r }
func (c *JoinBattleRoom) SourceSequence() int64    { return c.Sequence }

// StartBattle transitions a room into its active trading phase.
type StartBattle struct {
	CommandID uuid.UUID
	Room      string
	Caller    uuid.UUID
	Sequence  int64
	Timestamp time.Time
}

func (c *StartBattle) IdempotencyKey() string   { return c.CommandID.String() }
func (c *StartBattle) CommandType() CommandType { return CommandTypeStartBattle }
func (c *StartBattle) RoomID() *string          { r := c.Room; return &r }
func (c *StartBattle) SourceSequence() int64    { return c.Sequence }

// RecordTrade appends a trade against a battle token and accrues its fee.
// Idempotency key: trade_id (UUID from the trading venue).
type RecordTrade struct {
	TradeID         uuid.UUID // Idempotency key
	Room            string
	TokenSymbol     string
	Trader          uuid.UUID
	Amount          uint64
	Fee             uint64
	Type            TradeType
	MarketCapUpdate uint64 // Latest-write-wins market cap observation
	Sequence        int64
	Timestamp       time.Time
}

func (c *RecordTrade) IdempotencyKey() string   { return c.TradeID.String() }
func (c *RecordTrade) CommandType() CommandType { return CommandTypeRecordTrade }
func (c *RecordTrade) RoomID() *string          { r := c.Room; return &r }
func (c *RecordTrade) SourceSequence() int64    { return c.Sequence }

// CloseBattle settles a room after its end time.
type CloseBattle struct {
	CommandID uuid.UUID
	Room      string
	Caller    uuid.UUID
	Sequence  int64
	Timestamp time.Time
}

func (c *CloseBattle) IdempotencyKey() string   { return c.CommandID.String() }
func (c *CloseBattle) CommandType() CommandType { return CommandTypeCloseBattle }
func (c *CloseBattle) RoomID() *string          { r := c.Room; return &r }
func (c *CloseBattle) SourceSequence() int64    { return c.Sequence }

// SetWinner marks the victorious token of a closed room. Admin-only.
type SetWinner struct {
	CommandID   uuid.UUID
	Room        string
	TokenSymbol string
	Caller      uuid.UUID
	Sequence    int64
	Timestamp   time.Time
}

func (c *SetWinner) IdempotencyKey() string   { return c.CommandID.String() }
func (c *SetWinner) CommandType() CommandType { return CommandTypeSetWinner }
func (c *SetWinner) RoomID() *string          { r := c.Room; return &r }
func (c *SetWinner) SourceSequence() int64    { return c.Sequence }

// ClaimReward records a trader's claim against the winning token.
// Idempotency key: claim_id.
type ClaimReward struct {
	ClaimID     uuid.UUID
	Room        string
	TokenSymbol string
	Trader      uuid.UUID
	Amount      uint64
	Sequence    int64
	Timestamp   time.Time
}

func (c *ClaimReward) IdempotencyKey() string   { return c.ClaimID.String() }
func (c *ClaimReward) CommandType() CommandType { return CommandTypeClaimReward }
func (c *ClaimReward) RoomID() *string          { r := c.Room; return &r }
func (c *ClaimReward) SourceSequence() int64    { return c.Sequence }
