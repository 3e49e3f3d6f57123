package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"BattleLedger/internal/command"
	"BattleLedger/internal/core"
	"BattleLedger/internal/custody"
	"BattleLedger/internal/event"
	"BattleLedger/internal/ingestion"
	"BattleLedger/internal/observability"
	"BattleLedger/internal/persistence"
	"BattleLedger/internal/projection"
)

func TestBridge_ReturnsOnShutdownWhenPersistBlocked(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	persistIn := make(chan core.CoreOutput, 1)
	projectionIn := make(chan core.CoreOutput)
	persistOut := make(chan persistence.CoreOutput) // no reader: send blocks
	projectionOut := make(chan projection.ProjectionOutput, 1)
	publishOut := make(chan ingestion.PublishableEvent, 1)

	roomID := "room-1"
	evt := event.BattleStarted{
		Room:      roomID,
		StartTime: time.Now(),
		EndTime:   time.Now().Add(time.Hour),
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	persistIn <- core.CoreOutput{
		Envelope: &event.Envelope{
			Sequence:       0,
			IdempotencyKey: uuid.NewString(),
			CommandType:    command.CommandTypeStartBattle,
			RoomID:         &roomID,
			Timestamp:      time.Now(),
			Payload:        payload,
		},
		Event: evt,
	}

	done := make(chan struct{})
	go func() {
		bridgeCoreOutputs(ctx, persistIn, projectionIn, persistOut, projectionOut, publishOut,
			custody.NewNoopTransferer(observability.NewLogger("custody")), uuid.New())
		close(done)
	}()

	// Let the bridge pick up the output and block on the persist send,
	// then cancel. The bridge must return instead of panicking once the
	// orchestrator closes the downstream channel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not return after cancellation while persist send was blocked")
	}
}
