package query

import (
	"time"

	"github.com/google/uuid"
)

// RoomResponse represents a battle room for API queries.
type RoomResponse struct {
	RoomID           string    `json:"room_id"`
	Admin            uuid.UUID `json:"admin"`
	MaxParticipants  uint8     `json:"max_participants"`
	Status           int32     `json:"status"`
	ParticipantCount uint8     `json:"participant_count"`
	TotalFees        uint64    `json:"total_fees"`
	PlatformFee      uint64    `json:"platform_fee"`
	WinnerToken      string    `json:"winner_token,omitempty"`
	WaitingTimeEnd   time.Time `json:"waiting_time_end"`
	BattleEndTime    time.Time `json:"battle_end_time"`
	AsOfSequence     int64     `json:"as_of_sequence"`
}

// TokenStandingResponse is one leaderboard entry, ranked by market cap.
type TokenStandingResponse struct {
	TokenSymbol  string    `json:"token_symbol"`
	RoomID       string    `json:"room_id"`
	Creator      uuid.UUID `json:"creator"`
	MarketCap    uint64    `json:"market_cap"`
	TotalFees    uint64    `json:"total_fees"`
	IsWinner     bool      `json:"is_winner"`
	Rank         int       `json:"rank"`
	AsOfSequence int64     `json:"as_of_sequence"`
}

// TradeResponse represents a recorded trade for API queries.
type TradeResponse struct {
	TradeID      string    `json:"trade_id"`
	RoomID       *string   `json:"room_id,omitempty"`
	TokenSymbol  string    `json:"token_symbol"`
	Trader       uuid.UUID `json:"trader"`
	Amount       int64     `json:"amount"`
	Value        int64     `json:"value"`
	Fee          int64     `json:"fee"`
	TradeType    string    `json:"trade_type"`
	Sequence     int64     `json:"sequence"`
	Timestamp    time.Time `json:"timestamp"`
	AsOfSequence int64     `json:"as_of_sequence"`
}

// ClaimResponse represents a reward claim for API queries.
type ClaimResponse struct {
	ClaimID      string    `json:"claim_id"`
	RoomID       string    `json:"room_id"`
	TokenSymbol  string    `json:"token_symbol"`
	Trader       uuid.UUID `json:"trader"`
	Amount       int64     `json:"amount"`
	Sequence     int64     `json:"sequence"`
	Timestamp    time.Time `json:"timestamp"`
	AsOfSequence int64     `json:"as_of_sequence"`
}

// IntegrityReport is the result of an integrity verification check.
type IntegrityReport struct {
	IsHealthy       bool          `json:"is_healthy"`
	HashChainBreaks []int64       `json:"hash_chain_breaks,omitempty"`
	FeeMismatches   []FeeMismatch `json:"fee_mismatches,omitempty"`
}

// FeeMismatch represents a room whose fee total diverges from the sum of
// its token fee accruals.
type FeeMismatch struct {
	RoomID    string `json:"room_id"`
	RoomFees  int64  `json:"room_fees"`
	TokenFees int64  `json:"token_fees"`
}
