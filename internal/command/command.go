package command

// CommandType discriminator for command payloads
type CommandType int32

const (
	CommandTypeUnknown CommandType = iota
	CommandTypeCreateBattleRoom
	CommandTypeJoinBattleRoom
	CommandTypeStartBattle
	CommandTypeRecordTrade
	CommandTypeCloseBattle
	CommandTypeSetWinner
	CommandTypeClaimReward
	CommandTypeInitializeToken
	CommandTypeUpdateFees
	CommandTypeEmergencyFreeze
	CommandTypeEmergencyUnfreeze
	CommandTypeMintTokens
	CommandTypeExecuteTrade
	CommandTypeSetTreasury
	CommandTypeUpdateMetadata
	CommandTypeTransferOwnership
)

// UnsequencedSource marks a command injected outside an ordered upstream
// (admin HTTP inject). The sequence validator accepts it without advancing
// the partition counter, so manual injection cannot open a gap against
// NATS-sequenced traffic on the same partition.
const UnsequencedSource int64 = -1

// Command is the interface all inbound operations must implement.
// Timestamps are versioned inputs supplied by the caller — the core never
// reads the wall clock.
type Command interface {
	// IdempotencyKey returns the stable dedup key
	IdempotencyKey() string

	// CommandType returns the discriminator
	CommandType() CommandType

	// RoomID returns the battle-room context (nil for token-account commands)
	RoomID() *string

	// SourceSequence returns the upstream ordering key
	SourceSequence() int64
}

func (ct CommandType) String() string {
	switch ct {
	case CommandTypeCreateBattleRoom:
		return "CreateBattleRoom"
	case CommandTypeJoinBattleRoom:
		return "JoinBattleRoom"
	case CommandTypeStartBattle:
		return "StartBattle"
	case CommandTypeRecordTrade:
		return "RecordTrade"
	case CommandTypeCloseBattle:
		return "CloseBattle"
	case CommandTypeSetWinner:
		return "SetWinner"
	case CommandTypeClaimReward:
		return "ClaimReward"
	case CommandTypeInitializeToken:
		return "InitializeToken"
	case CommandTypeUpdateFees:
		return "UpdateFees"
	case CommandTypeEmergencyFreeze:
		return "EmergencyFreeze"
	case CommandTypeEmergencyUnfreeze:
		return "EmergencyUnfreeze"
	case CommandTypeMintTokens:
		return "MintTokens"
	case CommandTypeExecuteTrade:
		return "ExecuteTrade"
	case CommandTypeSetTreasury:
		return "SetTreasury"
	case CommandTypeUpdateMetadata:
		return "UpdateMetadata"
	case CommandTypeTransferOwnership:
		return "TransferOwnership"
	default:
		return "Unknown"
	}
}
