package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
)

// CommandLogWriter writes command envelopes and journal rows to Postgres
// using batch inserts. Multi-row INSERT is a portable alternative to the
// COPY protocol; switch to pgx CopyFrom if write throughput becomes a
// bottleneck.
type CommandLogWriter struct {
	db           *sql.DB
	batchSize    int
	flushTimeout time.Duration
}

// CommandRow represents a row in command_log.commands
type CommandRow struct {
	Sequence       int64
	CommandType    string
	IdempotencyKey string
	RoomID         *string
	Payload        []byte // JSON-encoded event payload
	StateHash      []byte
	PrevHash       []byte
	Timestamp      time.Time
	SourceSequence int64
}

// TradeRow represents a row in command_log.trades. Battle trades and
// launchpad fee-split trades share the table; room_id is NULL for the
// latter.
type TradeRow struct {
	TradeID     string
	RoomID      *string
	TokenSymbol string
	Trader      string
	Amount      int64
	Value       int64
	Fee         int64
	TradeType   string
	Sequence    int64
	Timestamp   time.Time
}

// ClaimRow represents a row in command_log.claims
type ClaimRow struct {
	ClaimID     string
	RoomID      string
	TokenSymbol string
	Trader      string
	Amount      int64
	Sequence    int64
	Timestamp   time.Time
}

func NewCommandLogWriter(db *sql.DB, batchSize int, flushTimeout time.Duration) *CommandLogWriter {
	return &CommandLogWriter{
		db:           db,
		batchSize:    batchSize,
		flushTimeout: flushTimeout,
	}
}

// WriteCommandBatch writes a batch of envelopes to command_log.commands
// using multi-row INSERT inside the caller's transaction.
func (w *CommandLogWriter) WriteCommandBatch(ctx context.Context, tx *sql.Tx, commands []CommandRow) error {
	if len(commands) == 0 {
		return nil
	}

	query := `INSERT INTO command_log.commands
		(sequence, command_type, idempotency_key, room_id, payload, state_hash, prev_hash, timestamp, source_sequence)
		VALUES `

	values := make([]string, 0, len(commands))
	args := make([]interface{}, 0, len(commands)*9)

	for i, c := range commands {
		base := i * 9
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9,
		))
		args = append(args,
			c.Sequence, c.CommandType, c.IdempotencyKey, c.RoomID,
			c.Payload, c.StateHash, c.PrevHash, c.Timestamp, c.SourceSequence,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (sequence) DO NOTHING" // Idempotent writes

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// WriteTradeBatch writes a batch of trade rows to command_log.trades.
func (w *CommandLogWriter) WriteTradeBatch(ctx context.Context, tx *sql.Tx, trades []TradeRow) error {
	if len(trades) == 0 {
		return nil
	}

	query := `INSERT INTO command_log.trades
		(trade_id, room_id, token_symbol, trader, amount, value, fee, trade_type, sequence, timestamp)
		VALUES `

	values := make([]string, 0, len(trades))
	args := make([]interface{}, 0, len(trades)*10)

	for i, t := range trades {
		base := i * 10
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10,
		))
		args = append(args,
			t.TradeID, t.RoomID, t.TokenSymbol, t.Trader,
			t.Amount, t.Value, t.Fee, t.TradeType, t.Sequence, t.Timestamp,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (trade_id) DO NOTHING"

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// WriteClaimBatch writes a batch of claim rows to command_log.claims.
func (w *CommandLogWriter) WriteClaimBatch(ctx context.Context, tx *sql.Tx, claims []ClaimRow) error {
	if len(claims) == 0 {
		return nil
	}

	query := `INSERT INTO command_log.claims
		(claim_id, room_id, token_symbol, trader, amount, sequence, timestamp)
		VALUES `

	values := make([]string, 0, len(claims))
	args := make([]interface{}, 0, len(claims)*7)

	for i, c := range claims {
		base := i * 7
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		args = append(args,
			c.ClaimID, c.RoomID, c.TokenSymbol, c.Trader,
			c.Amount, c.Sequence, c.Timestamp,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (claim_id) DO NOTHING"

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// MarshalPayload is a convenience wrapper for JSON-encoding event payloads.
func MarshalPayload(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("WARN: failed to marshal payload: %v", err)
		return []byte("{}")
	}
	return data
}
