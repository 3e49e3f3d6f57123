package ingestion

import (
	"BattleLedger/internal/command"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ParseRawCommand converts a RawCommand (JSON bytes + command type string)
// into a typed command.Command. The ingestion shell validates, parses, and
// converts raw commands before sending to the core.
func ParseRawCommand(raw RawCommand, commandType string) (command.Command, error) {
	switch commandType {
	case "CreateBattleRoom":
		return parseCreateBattleRoom(raw.Data)
	case "JoinBattleRoom":
		return parseJoinBattleRoom(raw.Data)
	case "StartBattle":
		return parseStartBattle(raw.Data)
	case "RecordTrade":
		return parseRecordTrade(raw.Data)
	case "CloseBattle":
		return parseCloseBattle(raw.Data)
	case "SetWinner":
		return parseSetWinner(raw.Data)
	case "ClaimReward":
		return parseClaimReward(raw.Data)
	case "InitializeToken":
		return parseInitializeToken(raw.Data)
	case "UpdateFees":
		return parseUpdateFees(raw.Data)
	case "EmergencyFreeze":
		return parseEmergencyFreeze(raw.Data)
	case "EmergencyUnfreeze":
		return parseEmergencyUnfreeze(raw.Data)
	case "MintTokens":
		return parseMintTokens(raw.Data)
	case "ExecuteTrade":
		return parseExecuteTrade(raw.Data)
	case "SetTreasury":
		return parseSetTreasury(raw.Data)
	case "UpdateMetadata":
		return parseUpdateMetadata(raw.Data)
	case "TransferOwnership":
		return parseTransferOwnership(raw.Data)
	default:
		return nil, fmt.Errorf("unknown command type: %s", commandType)
	}
}

// --- JSON wire formats ---
// These structs represent the JSON payloads received from NATS.
// Field names use snake_case to match upstream producers.

type createRoomJSON struct {
	CommandID       string `json:"command_id"`
	RoomID          string `json:"room_id"`
	Admin           string `json:"admin"`
	MaxParticipants uint8  `json:"max_participants"`
	DurationSeconds int64  `json:"duration_seconds"`
	Sequence        int64  `json:"sequence"`
	TimestampUs     int64  `json:"timestamp_us"`
}

func parseCreateBattleRoom(data []byte) (*command.CreateBattleRoom, error) {
	var j createRoomJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse CreateBattleRoom: %w", err)
	}
	commandID, err := uuid.Parse(j.CommandID)
	if err != nil {
		return nil, fmt.Errorf("parse command_id: %w", err)
	}
	admin, err := uuid.Parse(j.Admin)
	if err != nil {
		return nil, fmt.Errorf("parse admin: %w", err)
	}
	return &command.CreateBattleRoom{
		CommandID:       commandID,
		Room:            j.RoomID,
		Admin:           admin,
		MaxParticipants: j.MaxParticipants,
		DurationSeconds: j.DurationSeconds,
		Sequence:        j.Sequence,
		Timestamp:       time.UnixMicro(j.TimestampUs),
	}, nil
}

type joinRoomJSON struct {
	CommandID     string `json:"command_id"`
	RoomID        string `json:"room_id"`
	TokenSymbol   string `json:"token_symbol"`
	TokenName     string `json:"token_name"`
	Creator       string `json:"creator"`
	InitialSupply uint64 `json:"initial_supply"`
	Sequence      int64  `json:"sequence"`
	TimestampUs   int64  `json:"timestamp_us"`
}

func parseJoinBattleRoom(data []byte) (*command.JoinBattleRoom, error) {
	var j joinRoomJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse JoinBattleRoom: %w", err)
	}
	commandID, err := uuid.Parse(j.CommandID)
	if err != nil {
		return nil, fmt.Errorf("parse command_id: %w", err)
	}
	creator, err := uuid.Parse(j.Creator)
	if err != nil {
		return nil, fmt.Errorf("parse creator: %w", err)
	}
	return &command.JoinBattleRoom{
		CommandID:     commandID,
		Room:          j.RoomID,
		TokenSymbol:   j.TokenSymbol,
		TokenName:     j.TokenName,
		Creator:       creator,
		InitialSupply: j.InitialSupply,
		Sequence:      j.Sequence,
		Timestamp:     time.UnixMicro(j.TimestampUs),
	}, nil
}

type roomActionJSON struct {
	CommandID   string `json:"command_id"`
	RoomID      string `json:"room_id"`
	Caller      string `json:"caller"`
	Sequence    int64  `json:"sequence"`
	TimestampUs int64  `json:"timestamp_us"`
}

func parseStartBattle(data []byte) (*command.StartBattle, error) {
	var j roomActionJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse StartBattle: %w", err)
	}
	commandID, err := uuid.Parse(j.CommandID)
	if err != nil {
		return nil, fmt.Errorf("parse command_id: %w", err)
	}
	caller, err := uuid.Parse(j.Caller)
	if err != nil {
		return nil, fmt.Errorf("parse caller: %w", err)
	}
	return &command.StartBattle{
		CommandID: commandID,
		Room:      j.RoomID,
		Caller:    caller,
		Sequence:  j.Sequence,
		Timestamp: time.UnixMicro(j.TimestampUs),
	}, nil
}

func parseCloseBattle(data []byte) (*command.CloseBattle, error) {
	var j roomActionJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse CloseBattle: %w", err)
	}
	commandID, err := uuid.Parse(j.CommandID)
	if err != nil {
		return nil, fmt.Errorf("parse command_id: %w", err)
	}
	caller, err := uuid.Parse(j.Caller)
	if err != nil {
		return nil, fmt.Errorf("parse caller: %w", err)
	}
	return &command.CloseBattle{
		CommandID: commandID,
		Room:      j.RoomID,
		Caller:    caller,
		Sequence:  j.Sequence,
		Timestamp: time.UnixMicro(j.TimestampUs),
	}, nil
}

type recordTradeJSON struct {
	TradeID         string `json:"trade_id"`
	RoomID          string `json:"room_id"`
	TokenSymbol     string `json:"token_symbol"`
	Trader          string `json:"trader"`
	Amount          uint64 `json:"amount"`
	Fee             uint64 `json:"fee"`
	TradeType       string `json:"trade_type"` // "buy" or "sell"
	MarketCapUpdate uint64 `json:"market_cap_update"`
	Sequence        int64  `json:"sequence"`
	TimestampUs     int64  `json:"timestamp_us"`
}

func parseRecordTrade(data []byte) (*command.RecordTrade, error) {
	var j recordTradeJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse RecordTrade: %w", err)
	}
	tradeID, err := uuid.Parse(j.TradeID)
	if err != nil {
		return nil, fmt.Errorf("parse trade_id: %w", err)
	}
	trader, err := uuid.Parse(j.Trader)
	if err != nil {
		return nil, fmt.Errorf("parse trader: %w", err)
	}

	tradeType := command.TradeTypeBuy
	if j.TradeType == "sell" {
		tradeType = command.TradeTypeSell
	}

	return &command.RecordTrade{
		TradeID:         tradeID,
		Room:            j.RoomID,
		TokenSymbol:     j.TokenSymbol,
		Trader:          trader,
		Amount:          j.Amount,
		Fee:             j.Fee,
		Type:            tradeType,
		MarketCapUpdate: j.MarketCapUpdate,
		Sequence:        j.Sequence,
		Timestamp:       time.UnixMicro(j.TimestampUs),
	}, nil
}

type setWinnerJSON struct {
	CommandID   string `json:"command_id"`
	RoomID      string `json:"room_id"`
	TokenSymbol string `json:"token_symbol"`
	Caller      string `json:"caller"`
	Sequence    int64  `json:"sequence"`
	TimestampUs int64  `json:"timestamp_us"`
}

func parseSetWinner(data []byte) (*command.SetWinner, error) {
	var j setWinnerJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse SetWinner: %w", err)
	}
	commandID, err := uuid.Parse(j.CommandID)
	if err != nil {
		return nil, fmt.Errorf("parse command_id: %w", err)
	}
	caller, err := uuid.Parse(j.Caller)
	if err != nil {
		return nil, fmt.Errorf("parse caller: %w", err)
	}
	return &command.SetWinner{
		CommandID:   commandID,
		Room:        j.RoomID,
		TokenSymbol: j.TokenSymbol,
		Caller:      caller,
		Sequence:    j.Sequence,
		Timestamp:   time.UnixMicro(j.TimestampUs),
	}, nil
}

type claimRewardJSON struct {
	ClaimID     string `json:"claim_id"`
	RoomID      string `json:"room_id"`
	TokenSymbol string `json:"token_symbol"`
	Trader      string `json:"trader"`
	Amount      uint64 `json:"amount"`
	Sequence    int64  `json:"sequence"`
	TimestampUs int64  `json:"timestamp_us"`
}

func parseClaimReward(data []byte) (*command.ClaimReward, error) {
	var j claimRewardJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse ClaimReward: %w", err)
	}
	claimID, err := uuid.Parse(j.ClaimID)
	if err != nil {
		return nil, fmt.Errorf("parse claim_id: %w", err)
	}
	trader, err := uuid.Parse(j.Trader)
	if err != nil {
		return nil, fmt.Errorf("parse trader: %w", err)
	}
	return &command.ClaimReward{
		ClaimID:     claimID,
		Room:        j.RoomID,
		TokenSymbol: j.TokenSymbol,
		Trader:      trader,
		Amount:      j.Amount,
		Sequence:    j.Sequence,
		Timestamp:   time.UnixMicro(j.TimestampUs),
	}, nil
}

type initializeTokenJSON struct {
	CommandID     string `json:"command_id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	CreatorFeeBP  uint64 `json:"creator_fee_bp"`
	PlatformFeeBP uint64 `json:"platform_fee_bp"`
	Authority     string `json:"authority"`
	CurveCap      uint64 `json:"curve_cap"`
	Sequence      int64  `json:"sequence"`
	TimestampUs   int64  `json:"timestamp_us"`
}

func parseInitializeToken(data []byte) (*command.InitializeToken, error) {
	var j initializeTokenJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse InitializeToken: %w", err)
	}
	commandID, err := uuid.Parse(j.CommandID)
	if err != nil {
		return nil, fmt.Errorf("parse command_id: %w", err)
	}
	authority, err := uuid.Parse(j.Authority)
	if err != nil {
		return nil, fmt.Errorf("parse authority: %w", err)
	}
	return &command.InitializeToken{
		CommandID:     commandID,
		Symbol:        j.Symbol,
		Name:          j.Name,
		CreatorFeeBP:  j.CreatorFeeBP,
		PlatformFeeBP: j.PlatformFeeBP,
		Authority:     authority,
		CurveCap:      j.CurveCap,
		Sequence:      j.Sequence,
		Timestamp:     time.UnixMicro(j.TimestampUs),
	}, nil
}

type updateFeesJSON struct {
	CommandID     string `json:"command_id"`
	Symbol        string `json:"symbol"`
	CreatorFeeBP  uint64 `json:"creator_fee_bp"`
	PlatformFeeBP uint64 `json:"platform_fee_bp"`
	Caller        string `json:"caller"`
	Sequence      int64  `json:"sequence"`
	TimestampUs   int64  `json:"timestamp_us"`
}

func parseUpdateFees(data []byte) (*command.UpdateFees, error) {
	var j updateFeesJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse UpdateFees: %w", err)
	}
	commandID, err := uuid.Parse(j.CommandID)
	if err != nil {
		return nil, fmt.Errorf("parse command_id: %w", err)
	}
	caller, err := uuid.Parse(j.Caller)
	if err != nil {
		return nil, fmt.Errorf("parse caller: %w", err)
	}
	return &command.UpdateFees{
		CommandID:     commandID,
		Symbol:        j.Symbol,
		CreatorFeeBP:  j.CreatorFeeBP,
		PlatformFeeBP: j.PlatformFeeBP,
		Caller:        caller,
		Sequence:      j.Sequence,
		Timestamp:     time.UnixMicro(j.TimestampUs),
	}, nil
}

type tokenActionJSON struct {
	CommandID   string `json:"command_id"`
	Symbol      string `json:"symbol"`
	Caller      string `json:"caller"`
	Sequence    int64  `json:"sequence"`
	TimestampUs int64  `json:"timestamp_us"`
}

func parseEmergencyFreeze(data []byte) (*command.EmergencyFreeze, error) {
	var j tokenActionJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse EmergencyFreeze: %w", err)
	}
	commandID, err := uuid.Parse(j.CommandID)
	if err != nil {
		return nil, fmt.Errorf("parse command_id: %w", err)
	}
	caller, err := uuid.Parse(j.Caller)
	if err != nil {
		return nil, fmt.Errorf("parse caller: %w", err)
	}
	return &command.EmergencyFreeze{
		CommandID: commandID,
		Symbol:    j.Symbol,
		Caller:    caller,
		Sequence:  j.Sequence,
		Timestamp: time.UnixMicro(j.TimestampUs),
	}, nil
}

func parseEmergencyUnfreeze(data []byte) (*command.EmergencyUnfreeze, error) {
	var j tokenActionJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse EmergencyUnfreeze: %w", err)
	}
	commandID, err := uuid.Parse(j.CommandID)
	if err != nil {
		return nil, fmt.Errorf("parse command_id: %w", err)
	}
	caller, err := uuid.Parse(j.Caller)
	if err != nil {
		return nil, fmt.Errorf("parse caller: %w", err)
	}
	return &command.EmergencyUnfreeze{
		CommandID: commandID,
		Symbol:    j.Symbol,
		Caller:    caller,
		Sequence:  j.Sequence,
		Timestamp: time.UnixMicro(j.TimestampUs),
	}, nil
}

type mintTokensJSON struct {
	CommandID   string `json:"command_id"`
	Symbol      string `json:"symbol"`
	Amount      uint64 `json:"amount"`
	Holder      string `json:"holder"`
	Caller      string `json:"caller"`
	Sequence    int64  `json:"sequence"`
	TimestampUs int64  `json:"timestamp_us"`
}

func parseMintTokens(data []byte) (*command.MintTokens, error) {
	var j mintTokensJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse MintTokens: %w", err)
	}
	commandID, err := uuid.Parse(j.CommandID)
	if err != nil {
		return nil, fmt.Errorf("parse command_id: %w", err)
	}
	holder, err := uuid.Parse(j.Holder)
	if err != nil {
		return nil, fmt.Errorf("parse holder: %w", err)
	}
	caller, err := uuid.Parse(j.Caller)
	if err != nil {
		return nil, fmt.Errorf("parse caller: %w", err)
	}
	return &command.MintTokens{
		CommandID: commandID,
		Symbol:    j.Symbol,
		Amount:    j.Amount,
		Holder:    holder,
		Caller:    caller,
		Sequence:  j.Sequence,
		Timestamp: time.UnixMicro(j.TimestampUs),
	}, nil
}

type executeTradeJSON struct {
	TradeID     string `json:"trade_id"`
	Symbol      string `json:"symbol"`
	Trader      string `json:"trader"`
	Amount      uint64 `json:"amount"`
	Price       uint64 `json:"price"`
	Sequence    int64  `json:"sequence"`
	TimestampUs int64  `json:"timestamp_us"`
}

func parseExecuteTrade(data []byte) (*command.ExecuteTrade, error) {
	var j executeTradeJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse ExecuteTrade: %w", err)
	}
	tradeID, err := uuid.Parse(j.TradeID)
	if err != nil {
		return nil, fmt.Errorf("parse trade_id: %w", err)
	}
	trader, err := uuid.Parse(j.Trader)
	if err != nil {
		return nil, fmt.Errorf("parse trader: %w", err)
	}
	return &command.ExecuteTrade{
		TradeID:   tradeID,
		Symbol:    j.Symbol,
		Trader:    trader,
		Amount:    j.Amount,
		Price:     j.Price,
		Sequence:  j.Sequence,
		Timestamp: time.UnixMicro(j.TimestampUs),
	}, nil
}

type setTreasuryJSON struct {
	CommandID   string `json:"command_id"`
	Symbol      string `json:"symbol"`
	Treasury    string `json:"treasury"`
	Caller      string `json:"caller"`
	Sequence    int64  `json:"sequence"`
	TimestampUs int64  `json:"timestamp_us"`
}

func parseSetTreasury(data []byte) (*command.SetTreasury, error) {
	var j setTreasuryJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse SetTreasury: %w", err)
	}
	commandID, err := uuid.Parse(j.CommandID)
	if err != nil {
		return nil, fmt.Errorf("parse command_id: %w", err)
	}
	treasury, err := uuid.Parse(j.Treasury)
	if err != nil {
		return nil, fmt.Errorf("parse treasury: %w", err)
	}
	caller, err := uuid.Parse(j.Caller)
	if err != nil {
		return nil, fmt.Errorf("parse caller: %w", err)
	}
	return &command.SetTreasury{
		CommandID: commandID,
		Symbol:    j.Symbol,
		Treasury:  treasury,
		Caller:    caller,
		Sequence:  j.Sequence,
		Timestamp: time.UnixMicro(j.TimestampUs),
	}, nil
}

type updateMetadataJSON struct {
	CommandID   string `json:"command_id"`
	Symbol      string `json:"symbol"`
	MetadataURI string `json:"metadata_uri"`
	Caller      string `json:"caller"`
	Sequence    int64  `json:"sequence"`
	TimestampUs int64  `json:"timestamp_us"`
}

func parseUpdateMetadata(data []byte) (*command.UpdateMetadata, error) {
	var j updateMetadataJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse UpdateMetadata: %w", err)
	}
	commandID, err := uuid.Parse(j.CommandID)
	if err != nil {
		return nil, fmt.Errorf("parse command_id: %w", err)
	}
	caller, err := uuid.Parse(j.Caller)
	if err != nil {
		return nil, fmt.Errorf("parse caller: %w", err)
	}
	return &command.UpdateMetadata{
		CommandID:   commandID,
		Symbol:      j.Symbol,
		MetadataURI: j.MetadataURI,
		Caller:      caller,
		Sequence:    j.Sequence,
		Timestamp:   time.UnixMicro(j.TimestampUs),
	}, nil
}

type transferOwnershipJSON struct {
	CommandID    string `json:"command_id"`
	Symbol       string `json:"symbol"`
	NewAuthority string `json:"new_authority"`
	Caller       string `json:"caller"`
	Sequence     int64  `json:"sequence"`
	TimestampUs  int64  `json:"timestamp_us"`
}

func parseTransferOwnership(data []byte) (*command.TransferOwnership, error) {
	var j transferOwnershipJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse TransferOwnership: %w", err)
	}
	commandID, err := uuid.Parse(j.CommandID)
	if err != nil {
		return nil, fmt.Errorf("parse command_id: %w", err)
	}
	newAuthority, err := uuid.Parse(j.NewAuthority)
	if err != nil {
		return nil, fmt.Errorf("parse new_authority: %w", err)
	}
	caller, err := uuid.Parse(j.Caller)
	if err != nil {
		return nil, fmt.Errorf("parse caller: %w", err)
	}
	return &command.TransferOwnership{
		CommandID:    commandID,
		Symbol:       j.Symbol,
		NewAuthority: newAuthority,
		Caller:       caller,
		Sequence:     j.Sequence,
		Timestamp:    time.UnixMicro(j.TimestampUs),
	}, nil
}
