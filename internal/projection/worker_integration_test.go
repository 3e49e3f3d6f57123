package projection

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"BattleLedger/internal/event"
	"BattleLedger/internal/testutil"
)

func projectionOutput(t *testing.T, seq int64, evt event.Event, roomID string) ProjectionOutput {
	t.Helper()
	payload, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal %s: %v", evt.EventName(), err)
	}
	var room *string
	if roomID != "" {
		room = &roomID
	}
	return ProjectionOutput{
		Sequence:  seq,
		EventName: evt.EventName(),
		RoomID:    room,
		Payload:   payload,
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestProjection_JoinSeedsZeroMarketCap(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	inputChan := make(chan ProjectionOutput)
	pw := NewProjectionWorker(db, inputChan)

	admin := uuid.New()
	creator := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)

	created := projectionOutput(t, 1, event.BattleRoomCreated{
		Room:            "room-1",
		Admin:           admin,
		MaxParticipants: 3,
		CreatedAt:       now,
		BattleStart:     now.Add(time.Minute),
		BattleEnd:       now.Add(time.Hour),
	}, "room-1")
	if err := pw.processOutput(ctx, created); err != nil {
		t.Fatalf("apply room created: %v", err)
	}

	joined := projectionOutput(t, 2, event.TokenJoinedBattle{
		Room:             "room-1",
		TokenSymbol:      "DOGE",
		TokenName:        "DOGE Token",
		Creator:          creator,
		InitialSupply:    1_000_000,
		ParticipantCount: 1,
		JoinedAt:         now,
	}, "room-1")
	if err := pw.processOutput(ctx, joined); err != nil {
		t.Fatalf("apply token joined: %v", err)
	}

	// A token has no market cap until its first trade reports one.
	var marketCap, initialSupply uint64
	err := db.QueryRow(`
		SELECT market_cap, initial_supply FROM projections.tokens
		WHERE token_symbol = 'DOGE' AND room_id = 'room-1'
	`).Scan(&marketCap, &initialSupply)
	if err != nil {
		t.Fatalf("query token projection: %v", err)
	}
	if marketCap != 0 {
		t.Errorf("post-join market_cap = %d, want 0", marketCap)
	}
	if initialSupply != 1_000_000 {
		t.Errorf("initial_supply = %d, want 1000000", initialSupply)
	}

	var participantCount int
	if err := db.QueryRow(`
		SELECT participant_count FROM projections.rooms WHERE room_id = 'room-1'
	`).Scan(&participantCount); err != nil {
		t.Fatalf("query room projection: %v", err)
	}
	if participantCount != 1 {
		t.Errorf("participant_count = %d, want 1", participantCount)
	}

	traded := projectionOutput(t, 3, event.TradeRecorded{
		Room:        "room-1",
		TokenSymbol: "DOGE",
		Trader:      uuid.New(),
		Amount:      500,
		Fee:         5,
		TradeType:   "buy",
		MarketCap:   42_000,
		Timestamp:   now.Add(2 * time.Minute),
	}, "room-1")
	if err := pw.processOutput(ctx, traded); err != nil {
		t.Fatalf("apply trade recorded: %v", err)
	}

	if err := db.QueryRow(`
		SELECT market_cap FROM projections.tokens
		WHERE token_symbol = 'DOGE' AND room_id = 'room-1'
	`).Scan(&marketCap); err != nil {
		t.Fatalf("query token projection after trade: %v", err)
	}
	if marketCap != 42_000 {
		t.Errorf("post-trade market_cap = %d, want 42000", marketCap)
	}
}
