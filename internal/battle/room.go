package battle

import (
	"time"

	"github.com/google/uuid"
)

// RoomStatus is the battle-room lifecycle state.
// Open -> Full -> Active -> Closed; Full is reachable only from Open,
// Active from Open or Full. Closed is terminal. No back-transitions.
type RoomStatus int32

const (
	RoomStatusOpen RoomStatus = iota
	RoomStatusFull
	RoomStatusActive
	RoomStatusClosed
)

func (s RoomStatus) String() string {
	switch s {
	case RoomStatusOpen:
		return "open"
	case RoomStatusFull:
		return "full"
	case RoomStatusActive:
		return "active"
	case RoomStatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Domain limits. The waiting window is fixed; duration bounds come from the
// room protocol (1 hour to 24 hours).
const (
	MinParticipants = 2
	MaxParticipants = 5

	MinBattleDuration = 3600 * time.Second
	MaxBattleDuration = 86400 * time.Second

	WaitingWindow = 60 * time.Second

	DefaultPlatformFeePct = 10

	MaxRoomIDLen      = 32
	MaxTokenSymbolLen = 8
	MaxTokenNameLen   = 32
)

// Room is the root aggregate of one time-boxed battle. Rooms are never
// deleted — a closed room is retained as a historical record.
type Room struct {
	ID                 string
	Admin              uuid.UUID
	MaxParticipants    uint8
	Status             RoomStatus
	CreatedAt          time.Time
	WaitingTimeEnd     time.Time
	BattleEndTime      time.Time
	PlatformFeePct     uint64
	ParticipantCount   uint8
	TotalFeesCollected uint64
	WinnerToken        string // empty until a winner is set, then immutable
}

// Token is one participant entry, owned by its room.
type Token struct {
	Symbol           string
	Name             string
	Creator          uuid.UUID
	Room             string
	InitialSupply    uint64
	CurrentMarketCap uint64
	TotalFees        uint64
	CreatedAt        time.Time
	IsWinner         bool
}

// Trade is an immutable record of one buy/sell against a battle token.
type Trade struct {
	TradeID     uuid.UUID
	Room        string
	TokenSymbol string
	Trader      uuid.UUID
	Amount      uint64
	Fee         uint64
	TradeType   string // "buy" | "sell"
	Timestamp   time.Time
}

// Claim is an immutable post-settlement reward claim. The amount is
// caller-asserted; entitlement verification is external to this core.
type Claim struct {
	ClaimID     uuid.UUID
	Room        string
	TokenSymbol string
	Trader      uuid.UUID
	Amount      uint64
	ClaimedAt   time.Time
}
