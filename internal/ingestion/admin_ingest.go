package ingestion

import (
	"BattleLedger/internal/command"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AdminIngestService provides admin/manual command injection via the HTTP
// admin surface. Admin inject exists for operational intervention, not for
// high-throughput ingestion (use NATS for that).
type AdminIngestService struct {
	commandChan chan<- command.Command
}

func NewAdminIngestService(commandChan chan<- command.Command) *AdminIngestService {
	return &AdminIngestService{commandChan: commandChan}
}

// InjectCreateRoom manually injects a CreateBattleRoom command.
func (s *AdminIngestService) InjectCreateRoom(
	ctx context.Context,
	roomID string,
	admin uuid.UUID,
	maxParticipants uint8,
	durationSeconds int64,
) error {
	if roomID == "" {
		return fmt.Errorf("room id must not be empty")
	}
	if durationSeconds <= 0 {
		return fmt.Errorf("duration must be positive")
	}

	cmd := &command.CreateBattleRoom{
		CommandID:       uuid.New(),
		Room:            roomID,
		Admin:           admin,
		MaxParticipants: maxParticipants,
		DurationSeconds: durationSeconds,
		Sequence:        command.UnsequencedSource,
		Timestamp:       time.Now(),
	}

	select {
	case s.commandChan <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InjectStartBattle manually injects a StartBattle command.
func (s *AdminIngestService) InjectStartBattle(
	ctx context.Context,
	roomID string,
	caller uuid.UUID,
) error {
	if roomID == "" {
		return fmt.Errorf("room id must not be empty")
	}

	cmd := &command.StartBattle{
		CommandID: uuid.New(),
		Room:      roomID,
		Caller:    caller,
		Sequence:  command.UnsequencedSource,
		Timestamp: time.Now(),
	}

	select {
	case s.commandChan <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InjectCloseBattle manually injects a CloseBattle command.
func (s *AdminIngestService) InjectCloseBattle(
	ctx context.Context,
	roomID string,
	caller uuid.UUID,
) error {
	if roomID == "" {
		return fmt.Errorf("room id must not be empty")
	}

	cmd := &command.CloseBattle{
		CommandID: uuid.New(),
		Room:      roomID,
		Caller:    caller,
		Sequence:  command.UnsequencedSource,
		Timestamp: time.Now(),
	}

	select {
	case s.commandChan <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InjectSetWinner manually injects a SetWinner command.
func (s *AdminIngestService) InjectSetWinner(
	ctx context.Context,
	roomID string,
	tokenSymbol string,
	caller uuid.UUID,
) error {
	if roomID == "" || tokenSymbol == "" {
		return fmt.Errorf("room id and token symbol must not be empty")
	}

	cmd := &command.SetWinner{
		CommandID:   uuid.New(),
		Room:        roomID,
		TokenSymbol: tokenSymbol,
		Caller:      caller,
		Sequence:    command.UnsequencedSource,
		Timestamp:   time.Now(),
	}

	select {
	case s.commandChan <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InjectFreeze manually injects an EmergencyFreeze command.
func (s *AdminIngestService) InjectFreeze(
	ctx context.Context,
	symbol string,
	caller uuid.UUID,
) error {
	if symbol == "" {
		return fmt.Errorf("symbol must not be empty")
	}

	cmd := &command.EmergencyFreeze{
		CommandID: uuid.New(),
		Symbol:    symbol,
		Caller:    caller,
		Sequence:  command.UnsequencedSource,
		Timestamp: time.Now(),
	}

	select {
	case s.commandChan <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InjectUnfreeze manually injects an EmergencyUnfreeze command.
func (s *AdminIngestService) InjectUnfreeze(
	ctx context.Context,
	symbol string,
	caller uuid.UUID,
) error {
	if symbol == "" {
		return fmt.Errorf("symbol must not be empty")
	}

	cmd := &command.EmergencyUnfreeze{
		CommandID: uuid.New(),
		Symbol:    symbol,
		Caller:    caller,
		Sequence:  command.UnsequencedSource,
		Timestamp: time.Now(),
	}

	select {
	case s.commandChan <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
