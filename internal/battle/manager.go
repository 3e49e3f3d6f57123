package battle

import (
	"time"

	"github.com/google/uuid"

	"BattleLedger/internal/event"
	"BattleLedger/internal/money"
)

// TokenKey addresses a battle token inside its room.
type TokenKey struct {
	Room   string
	Symbol string
}

// Manager owns all battle-room and battle-token state.
// Not thread-safe — only accessed from the single-threaded deterministic core.
// Every operation front-loads its precondition checks (status, timing gates,
// authority, arithmetic bounds) before any field is written, so a failed
// operation leaves all records untouched.
type Manager struct {
	rooms  map[string]*Room
	tokens map[TokenKey]*Token
}

func NewManager() *Manager {
	return &Manager{
		rooms:  make(map[string]*Room),
		tokens: make(map[TokenKey]*Token),
	}
}

// GetRoom returns the room or nil.
func (m *Manager) GetRoom(roomID string) *Room {
	return m.rooms[roomID]
}

// GetToken returns the token or nil.
func (m *Manager) GetToken(roomID, symbol string) *Token {
	return m.tokens[TokenKey{Room: roomID, Symbol: symbol}]
}

// RoomTokens returns all tokens of a room. Ordering is not guaranteed;
// callers needing determinism must sort by symbol.
func (m *Manager) RoomTokens(roomID string) []*Token {
	var out []*Token
	for key, tok := range m.tokens {
		if key.Room == roomID {
			out = append(out, tok)
		}
	}
	return out
}

// CreateRoom initializes a room in state Open with the fixed waiting window
// and default platform fee.
func (m *Manager) CreateRoom(roomID string, admin uuid.UUID, maxParticipants uint8, duration time.Duration, now time.Time) (*Room, event.BattleRoomCreated, error) {
	if roomID == "" || len(roomID) > MaxRoomIDLen {
		return nil, event.BattleRoomCreated{}, ErrInvalidRoomID
	}
	if maxParticipants < MinParticipants || maxParticipants > MaxParticipants {
		return nil, event.BattleRoomCreated{}, ErrInvalidMaxParticipants
	}
	if duration < MinBattleDuration || duration > MaxBattleDuration {
		return nil, event.BattleRoomCreated{}, ErrInvalidBattleDuration
	}
	if _, exists := m.rooms[roomID]; exists {
		return nil, event.BattleRoomCreated{}, ErrRoomExists
	}

	waitingEnd := now.Add(WaitingWindow)
	room := &Room{
		ID:              roomID,
		Admin:           admin,
		MaxParticipants: maxParticipants,
		Status:          RoomStatusOpen,
		CreatedAt:       now,
		WaitingTimeEnd:  waitingEnd,
		BattleEndTime:   waitingEnd.Add(duration),
		PlatformFeePct:  DefaultPlatformFeePct,
	}
	m.rooms[roomID] = room

	evt := event.BattleRoomCreated{
		Room:            roomID,
		Admin:           admin,
		MaxParticipants: maxParticipants,
		CreatedAt:       now,
		BattleStart:     room.WaitingTimeEnd,
		BattleEnd:       room.BattleEndTime,
	}
	return room, evt, nil
}

// Join admits a new token into an Open room before the waiting window ends.
// The room transitions to Full exactly when the count reaches the maximum.
func (m *Manager) Join(roomID, symbol, name string, creator uuid.UUID, initialSupply uint64, now time.Time) (*Token, event.TokenJoinedBattle, error) {
	var zero event.TokenJoinedBattle

	if symbol == "" || len(symbol) > MaxTokenSymbolLen {
		return nil, zero, ErrInvalidTokenSymbol
	}
	if name == "" || len(name) > MaxTokenNameLen {
		return nil, zero, ErrInvalidTokenName
	}

	room := m.rooms[roomID]
	if room == nil {
		return nil, zero, ErrRoomNotFound
	}
	if room.Status != RoomStatusOpen {
		return nil, zero, ErrRoomNotOpen
	}
	if room.ParticipantCount >= room.MaxParticipants {
		return nil, zero, ErrRoomFull
	}
	if !now.Before(room.WaitingTimeEnd) {
		return nil, zero, ErrWaitingTimePassed
	}

	key := TokenKey{Room: roomID, Symbol: symbol}
	if _, exists := m.tokens[key]; exists {
		return nil, zero, ErrTokenExists
	}

	token := &Token{
		Symbol:        symbol,
		Name:          name,
		Creator:       creator,
		Room:          roomID,
		InitialSupply: initialSupply,
		CreatedAt:     now,
	}
	m.tokens[key] = token

	room.ParticipantCount++
	if room.ParticipantCount == room.MaxParticipants {
		room.Status = RoomStatusFull
	}

	evt := event.TokenJoinedBattle{
		Room:             roomID,
		TokenSymbol:      symbol,
		TokenName:        name,
		Creator:          creator,
		InitialSupply:    initialSupply,
		ParticipantCount: room.ParticipantCount,
		JoinedAt:         now,
	}
	return token, evt, nil
}

// Start transitions Open|Full -> Active once the waiting window has passed
// and at least two tokens joined. Not idempotent: a second call fails the
// status check.
func (m *Manager) Start(roomID string, now time.Time) (event.BattleStarted, error) {
	var zero event.BattleStarted

	room := m.rooms[roomID]
	if room == nil {
		return zero, ErrRoomNotFound
	}
	if room.Status != RoomStatusOpen && room.Status != RoomStatusFull {
		return zero, ErrInvalidRoomStatus
	}
	if now.Before(room.WaitingTimeEnd) {
		return zero, ErrWaitingTimeNotPassed
	}
	if room.ParticipantCount < MinParticipants {
		return zero, ErrNotEnoughParticipants
	}

	room.Status = RoomStatusActive

	return event.BattleStarted{
		Room:             roomID,
		StartTime:        now,
		EndTime:          room.BattleEndTime,
		ParticipantCount: room.ParticipantCount,
	}, nil
}

// RecordTrade appends a trade against a token of an Active room, overwrites
// the token's market cap (latest-write-wins) and accrues the fee into both
// the token and room totals with checked addition. Both sums are computed
// before either field is written, so an overflow leaves prior state unchanged.
func (m *Manager) RecordTrade(tradeID uuid.UUID, roomID, symbol string, trader uuid.UUID, amount, fee uint64, tradeType string, marketCapUpdate uint64, now time.Time) (*Trade, event.TradeRecorded, error) {
	var zero event.TradeRecorded

	room := m.rooms[roomID]
	if room == nil {
		return nil, zero, ErrRoomNotFound
	}
	if room.Status != RoomStatusActive {
		return nil, zero, ErrBattleNotActive
	}
	if now.After(room.BattleEndTime) {
		return nil, zero, ErrBattleEnded
	}

	token := m.tokens[TokenKey{Room: roomID, Symbol: symbol}]
	if token == nil {
		return nil, zero, ErrTokenNotFound
	}

	newTokenFees, err := money.CheckedAdd(token.TotalFees, fee)
	if err != nil {
		return nil, zero, err
	}
	newRoomFees, err := money.CheckedAdd(room.TotalFeesCollected, fee)
	if err != nil {
		return nil, zero, err
	}

	token.CurrentMarketCap = marketCapUpdate
	token.TotalFees = newTokenFees
	room.TotalFeesCollected = newRoomFees

	trade := &Trade{
		TradeID:     tradeID,
		Room:        roomID,
		TokenSymbol: symbol,
		Trader:      trader,
		Amount:      amount,
		Fee:         fee,
		TradeType:   tradeType,
		Timestamp:   now,
	}

	evt := event.TradeRecorded{
		Room:        roomID,
		TokenSymbol: symbol,
		Trader:      trader,
		Amount:      amount,
		Fee:         fee,
		TradeType:   tradeType,
		MarketCap:   marketCapUpdate,
		Timestamp:   now,
	}
	return trade, evt, nil
}

// Close transitions Active -> Closed after the battle end time and computes
// the platform fee (floor of total * pct / 100) with checked multiplication.
// The returned fee is the "would transfer" amount for the custody hook.
func (m *Manager) Close(roomID string, now time.Time) (uint64, event.BattleClosed, error) {
	var zero event.BattleClosed

	room := m.rooms[roomID]
	if room == nil {
		return 0, zero, ErrRoomNotFound
	}
	if room.Status != RoomStatusActive {
		return 0, zero, ErrInvalidRoomStatus
	}
	if now.Before(room.BattleEndTime) {
		return 0, zero, ErrBattleNotEnded
	}

	platformFee, err := money.PlatformFee(room.TotalFeesCollected, room.PlatformFeePct)
	if err != nil {
		return 0, zero, err
	}

	room.Status = RoomStatusClosed

	evt := event.BattleClosed{
		Room:        roomID,
		TotalFees:   room.TotalFeesCollected,
		PlatformFee: platformFee,
		ClosedAt:    now,
	}
	return platformFee, evt, nil
}

// SetWinner marks a token of a Closed room as the winner. Admin-only; the
// winner field is immutable once set, so a second call is rejected rather
// than silently overwriting.
func (m *Manager) SetWinner(roomID, symbol string, caller uuid.UUID) (event.WinnerSet, error) {
	var zero event.WinnerSet

	room := m.rooms[roomID]
	if room == nil {
		return zero, ErrRoomNotFound
	}
	if room.Admin != caller {
		return zero, ErrUnauthorized
	}
	if room.Status != RoomStatusClosed {
		return zero, ErrBattleNotClosed
	}
	if room.WinnerToken != "" {
		return zero, ErrWinnerAlreadySet
	}

	token := m.tokens[TokenKey{Room: roomID, Symbol: symbol}]
	if token == nil {
		return zero, ErrTokenNotFound
	}

	room.WinnerToken = symbol
	token.IsWinner = true

	return event.WinnerSet{Room: roomID, TokenSymbol: symbol}, nil
}

// Claim records a reward claim against the winning token of a Closed room.
// The amount is caller-asserted and recorded as-is.
func (m *Manager) Claim(claimID uuid.UUID, roomID, symbol string, trader uuid.UUID, amount uint64, now time.Time) (*Claim, event.RewardClaimed, error) {
	var zero event.RewardClaimed

	room := m.rooms[roomID]
	if room == nil {
		return nil, zero, ErrRoomNotFound
	}
	token := m.tokens[TokenKey{Room: roomID, Symbol: symbol}]
	if token == nil {
		return nil, zero, ErrTokenNotFound
	}
	if !token.IsWinner {
		return nil, zero, ErrTokenNotWinner
	}
	if room.Status != RoomStatusClosed {
		return nil, zero, ErrBattleNotClosed
	}

	claim := &Claim{
		ClaimID:     claimID,
		Room:        roomID,
		TokenSymbol: symbol,
		Trader:      trader,
		Amount:      amount,
		ClaimedAt:   now,
	}

	evt := event.RewardClaimed{
		Room:        roomID,
		TokenSymbol: symbol,
		Trader:      trader,
		Amount:      amount,
		ClaimedAt:   now,
	}
	return claim, evt, nil
}

// Snapshot / restore support ---------------------------------------------

// Rooms returns the full room map (read-only use by snapshot and digest code).
func (m *Manager) Rooms() map[string]*Room {
	return m.rooms
}

// Tokens returns the full token map (read-only use by snapshot and digest code).
func (m *Manager) Tokens() map[TokenKey]*Token {
	return m.tokens
}

// RestoreRoom reinstates a room record from a snapshot.
func (m *Manager) RestoreRoom(room *Room) {
	m.rooms[room.ID] = room
}

// RestoreToken reinstates a token record from a snapshot.
func (m *Manager) RestoreToken(token *Token) {
	m.tokens[TokenKey{Room: token.Room, Symbol: token.Symbol}] = token
}
