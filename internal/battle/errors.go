package battle

import (
	"errors"

	"BattleLedger/internal/money"
)

// Typed, non-retryable validation failures. None are transient: callers must
// correct input, wait for a timing gate, or accept that the operation is
// permanently inapplicable.
var (
	// Range/shape validation
	ErrInvalidRoomID          = errors.New("room id must be 1-32 characters")
	ErrInvalidMaxParticipants = errors.New("invalid maximum participants (must be between 2 and 5)")
	ErrInvalidBattleDuration  = errors.New("invalid battle duration (must be between 1 hour and 24 hours)")
	ErrInvalidTokenSymbol     = errors.New("token symbol must be 1-8 characters")
	ErrInvalidTokenName       = errors.New("token name must be 1-32 characters")

	// Registry
	ErrRoomExists    = errors.New("room already exists")
	ErrRoomNotFound  = errors.New("room not found")
	ErrTokenExists   = errors.New("token already joined this room")
	ErrTokenNotFound = errors.New("token not found in room")

	// State-machine violations
	ErrRoomNotOpen          = errors.New("room is not open for registration")
	ErrRoomFull             = errors.New("room is already full")
	ErrWaitingTimePassed    = errors.New("waiting time has already passed")
	ErrWaitingTimeNotPassed = errors.New("waiting time has not passed yet")
	ErrNotEnoughParticipants = errors.New("not enough participants (minimum 2 required)")
	ErrInvalidRoomStatus    = errors.New("invalid room status for this operation")
	ErrBattleNotActive      = errors.New("battle is not active")
	ErrBattleEnded          = errors.New("battle has already ended")
	ErrBattleNotEnded       = errors.New("battle has not ended yet")
	ErrBattleNotClosed      = errors.New("battle is not closed")

	// Authorization
	ErrUnauthorized = errors.New("unauthorized operation")

	// Domain invariants
	ErrTokenNotWinner   = errors.New("token is not the winner")
	ErrWinnerAlreadySet = errors.New("winner already set for this room")
)

// ErrArithmeticOverflow aliases the money package's overflow sentinel so the
// state machine surfaces a single error identity for fee-math failures.
var ErrArithmeticOverflow = money.ErrOverflow
