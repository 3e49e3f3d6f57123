package projection

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"BattleLedger/internal/event"
)

// ProjectionOutput mirrors the data needed by projection workers.
// The orchestrator bridges between core.CoreOutput and this.
type ProjectionOutput struct {
	Sequence  int64
	EventName string
	RoomID    *string
	Payload   []byte // JSON-encoded event payload
	Timestamp time.Time
}

// ProjectionWorker updates projection tables from processed commands.
// The projection channel is non-blocking with drop; if projections fall
// behind, they can be rebuilt from the command log.
type ProjectionWorker struct {
	db        *sql.DB
	inputChan <-chan ProjectionOutput
	history   *TradeHistoryProjection
	lastSeq   int64
}

func NewProjectionWorker(db *sql.DB, inputChan <-chan ProjectionOutput) *ProjectionWorker {
	return &ProjectionWorker{
		db:        db,
		inputChan: inputChan,
		history:   NewTradeHistoryProjection(0),
	}
}

// History exposes the in-memory recent-trades window for read paths.
func (pw *ProjectionWorker) History() *TradeHistoryProjection {
	return pw.history
}

// Run starts the projection worker loop.
func (pw *ProjectionWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case output, ok := <-pw.inputChan:
			if !ok {
				return nil
			}

			if err := pw.processOutput(ctx, output); err != nil {
				log.Printf("WARN: projection update failed at seq=%d: %v", output.Sequence, err)
				// Continue — projections are eventually consistent
				// and can be rebuilt from the command log
			}

			pw.lastSeq = output.Sequence
		}
	}
}

func (pw *ProjectionWorker) processOutput(ctx context.Context, output ProjectionOutput) error {
	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := pw.applyEvent(ctx, tx, output); err != nil {
		return err
	}

	// Update projection watermark
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO projections.watermark (worker_id, last_sequence, updated_at)
		VALUES ('main', $1, NOW())
		ON CONFLICT (worker_id) DO UPDATE SET last_sequence = $1, updated_at = NOW()
	`, output.Sequence); err != nil {
		return fmt.Errorf("watermark update: %w", err)
	}

	return tx.Commit()
}

func (pw *ProjectionWorker) applyEvent(ctx context.Context, tx *sql.Tx, output ProjectionOutput) error {
	switch output.EventName {
	case "battle_room_created":
		var e event.BattleRoomCreated
		if err := json.Unmarshal(output.Payload, &e); err != nil {
			return fmt.Errorf("unmarshal %s: %w", output.EventName, err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projections.rooms
				(room_id, admin, max_participants, status, participant_count,
				 total_fees, winner_token, waiting_time_end, battle_end_time, last_sequence)
			VALUES ($1, $2, $3, 0, 0, 0, '', $4, $5, $6)
			ON CONFLICT (room_id) DO NOTHING
		`, e.Room, e.Admin.String(), e.MaxParticipants, e.BattleStart, e.BattleEnd, output.Sequence)
		return err

	case "token_joined_battle":
		var e event.TokenJoinedBattle
		if err := json.Unmarshal(output.Payload, &e); err != nil {
			return fmt.Errorf("unmarshal %s: %w", output.EventName, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO projections.tokens
				(token_symbol, room_id, creator, initial_supply,
				 market_cap, total_fees, is_winner, last_sequence)
			VALUES ($1, $2, $3, $4, 0, 0, FALSE, $5)
			ON CONFLICT (token_symbol, room_id) DO NOTHING
		`, e.TokenSymbol, e.Room, e.Creator.String(), e.InitialSupply, output.Sequence); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE projections.rooms
			SET participant_count = $2,
			    status = CASE WHEN $2 >= max_participants THEN 1 ELSE status END,
			    last_sequence = $3
			WHERE room_id = $1
		`, e.Room, e.ParticipantCount, output.Sequence)
		return err

	case "battle_started":
		var e event.BattleStarted
		if err := json.Unmarshal(output.Payload, &e); err != nil {
			return fmt.Errorf("unmarshal %s: %w", output.EventName, err)
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE projections.rooms
			SET status = 2, last_sequence = $2
			WHERE room_id = $1
		`, e.Room, output.Sequence)
		return err

	case "trade_recorded":
		var e event.TradeRecorded
		if err := json.Unmarshal(output.Payload, &e); err != nil {
			return fmt.Errorf("unmarshal %s: %w", output.EventName, err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE projections.tokens
			SET market_cap = $3, total_fees = total_fees + $4, last_sequence = $5
			WHERE token_symbol = $1 AND room_id = $2
		`, e.TokenSymbol, e.Room, e.MarketCap, e.Fee, output.Sequence); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE projections.rooms
			SET total_fees = total_fees + $2, last_sequence = $3
			WHERE room_id = $1
		`, e.Room, e.Fee, output.Sequence); err != nil {
			return err
		}
		pw.history.AddEntry(TradeHistoryEntry{
			RoomID:      e.Room,
			TokenSymbol: e.TokenSymbol,
			Trader:      e.Trader,
			Amount:      e.Amount,
			Fee:         e.Fee,
			TradeType:   e.TradeType,
			Sequence:    output.Sequence,
			Timestamp:   e.Timestamp.UnixMicro(),
		})
		return nil

	case "battle_closed":
		var e event.BattleClosed
		if err := json.Unmarshal(output.Payload, &e); err != nil {
			return fmt.Errorf("unmarshal %s: %w", output.EventName, err)
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE projections.rooms
			SET status = 3, platform_fee = $2, closed_at = $3, last_sequence = $4
			WHERE room_id = $1
		`, e.Room, e.PlatformFee, e.ClosedAt, output.Sequence)
		return err

	case "winner_set":
		var e event.WinnerSet
		if err := json.Unmarshal(output.Payload, &e); err != nil {
			return fmt.Errorf("unmarshal %s: %w", output.EventName, err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE projections.rooms
			SET winner_token = $2, last_sequence = $3
			WHERE room_id = $1
		`, e.Room, e.TokenSymbol, output.Sequence); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE projections.tokens
			SET is_winner = TRUE, last_sequence = $3
			WHERE token_symbol = $2 AND room_id = $1
		`, e.Room, e.TokenSymbol, output.Sequence)
		return err

	case "reward_claimed":
		// Claim rows are written durably by the persistence worker;
		// nothing to project beyond the watermark.
		return nil

	case "token_initialized":
		var e event.TokenInitialized
		if err := json.Unmarshal(output.Payload, &e); err != nil {
			return fmt.Errorf("unmarshal %s: %w", output.EventName, err)
		}
		// Treasury defaults to the authority until SetTreasury.
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projections.accounts
				(symbol, name, creator_fee_bp, platform_fee_bp, authority, treasury,
				 metadata_uri, frozen, total_supply, market_cap, curve_active,
				 curve_cap, treasury_units, trade_volume, last_sequence)
			VALUES ($1, $2, $3, $4, $5, $5, '', FALSE, 0, 0, TRUE, $6, 0, 0, $7)
			ON CONFLICT (symbol) DO NOTHING
		`, e.Symbol, e.Name, e.CreatorFeeBP, e.PlatformFeeBP, e.Authority.String(), e.CurveCap, output.Sequence)
		return err

	case "fees_updated":
		var e event.FeesUpdated
		if err := json.Unmarshal(output.Payload, &e); err != nil {
			return fmt.Errorf("unmarshal %s: %w", output.EventName, err)
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE projections.accounts
			SET creator_fee_bp = $2, platform_fee_bp = $3, last_sequence = $4
			WHERE symbol = $1
		`, e.Symbol, e.CreatorFeeBP, e.PlatformFeeBP, output.Sequence)
		return err

	case "account_frozen", "account_unfrozen":
		frozen := output.EventName == "account_frozen"
		var e event.AccountFrozen
		if err := json.Unmarshal(output.Payload, &e); err != nil {
			return fmt.Errorf("unmarshal %s: %w", output.EventName, err)
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE projections.accounts
			SET frozen = $2, last_sequence = $3
			WHERE symbol = $1
		`, e.Symbol, frozen, output.Sequence)
		return err

	case "tokens_minted":
		var e event.TokensMinted
		if err := json.Unmarshal(output.Payload, &e); err != nil {
			return fmt.Errorf("unmarshal %s: %w", output.EventName, err)
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE projections.accounts
			SET total_supply = total_supply + $2,
			    market_cap = market_cap + $3,
			    curve_active = $4,
			    treasury_units = treasury_units + $5,
			    last_sequence = $6
			WHERE symbol = $1
		`, e.Symbol, e.Amount, e.TotalPrice, e.CurveActive, e.TreasuryAmount, output.Sequence)
		return err

	case "trade_executed":
		var e event.TradeExecuted
		if err := json.Unmarshal(output.Payload, &e); err != nil {
			return fmt.Errorf("unmarshal %s: %w", output.EventName, err)
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE projections.accounts
			SET trade_volume = trade_volume + $2, last_sequence = $3
			WHERE symbol = $1
		`, e.Symbol, e.TradeValue, output.Sequence)
		return err

	case "treasury_updated":
		var e event.TreasuryUpdated
		if err := json.Unmarshal(output.Payload, &e); err != nil {
			return fmt.Errorf("unmarshal %s: %w", output.EventName, err)
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE projections.accounts
			SET treasury = $2, last_sequence = $3
			WHERE symbol = $1
		`, e.Symbol, e.Treasury.String(), output.Sequence)
		return err

	case "metadata_updated":
		var e event.MetadataUpdated
		if err := json.Unmarshal(output.Payload, &e); err != nil {
			return fmt.Errorf("unmarshal %s: %w", output.EventName, err)
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE projections.accounts
			SET metadata_uri = $2, last_sequence = $3
			WHERE symbol = $1
		`, e.Symbol, e.MetadataURI, output.Sequence)
		return err

	case "ownership_transferred":
		var e event.OwnershipTransferred
		if err := json.Unmarshal(output.Payload, &e); err != nil {
			return fmt.Errorf("unmarshal %s: %w", output.EventName, err)
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE projections.accounts
			SET authority = $2, last_sequence = $3
			WHERE symbol = $1
		`, e.Symbol, e.NewAuthority.String(), output.Sequence)
		return err

	default:
		// Unknown event names are skipped; the watermark still advances.
		return nil
	}
}

// RebuildProjections rebuilds room and token projections from the command
// log by replaying envelope payloads in sequence order. Account and trade
// state is rebuilt the same way.
func RebuildProjections(ctx context.Context, db *sql.DB, inputChanSize int) error {
	truncateStatements := []string{
		`TRUNCATE projections.rooms`,
		`TRUNCATE projections.tokens`,
		`TRUNCATE projections.accounts`,
		`DELETE FROM projections.watermark WHERE worker_id = 'main'`,
	}

	for _, stmt := range truncateStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("truncate failed: %w", err)
		}
	}

	rebuildChan := make(chan ProjectionOutput, inputChanSize)
	worker := NewProjectionWorker(db, rebuildChan)

	done := make(chan error, 1)
	go func() {
		done <- worker.Run(ctx)
	}()

	rows, err := db.QueryContext(ctx, `
		SELECT c.sequence, c.command_type, c.room_id, c.payload, c.timestamp
		FROM command_log.commands c
		ORDER BY c.sequence ASC
	`)
	if err != nil {
		close(rebuildChan)
		<-done
		return fmt.Errorf("read command log: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var out ProjectionOutput
		var commandType string
		if err := rows.Scan(&out.Sequence, &commandType, &out.RoomID, &out.Payload, &out.Timestamp); err != nil {
			close(rebuildChan)
			<-done
			return err
		}
		out.EventName = eventNameForCommandType(commandType)
		rebuildChan <- out
	}
	close(rebuildChan)

	if err := <-done; err != nil && err != context.Canceled {
		return err
	}

	log.Println("INFO: projection rebuild complete")
	return rows.Err()
}

// eventNameForCommandType maps stored command types to the event payloads
// written alongside them.
func eventNameForCommandType(commandType string) string {
	switch commandType {
	case "CreateBattleRoom":
		return "battle_room_created"
	case "JoinBattleRoom":
		return "token_joined_battle"
	case "StartBattle":
		return "battle_started"
	case "RecordTrade":
		return "trade_recorded"
	case "CloseBattle":
		return "battle_closed"
	case "SetWinner":
		return "winner_set"
	case "ClaimReward":
		return "reward_claimed"
	case "InitializeToken":
		return "token_initialized"
	case "UpdateFees":
		return "fees_updated"
	case "EmergencyFreeze":
		return "account_frozen"
	case "EmergencyUnfreeze":
		return "account_unfrozen"
	case "MintTokens":
		return "tokens_minted"
	case "ExecuteTrade":
		return "trade_executed"
	case "SetTreasury":
		return "treasury_updated"
	case "UpdateMetadata":
		return "metadata_updated"
	case "TransferOwnership":
		return "ownership_transferred"
	default:
		return ""
	}
}
