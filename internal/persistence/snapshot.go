package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SnapshotManager handles creating and loading state snapshots for recovery.
// Snapshots contain rooms, battle tokens, launchpad accounts, the
// idempotency LRU keys, partition sequence counters, and the last state hash.
type SnapshotManager struct {
	db *sql.DB
}

// SnapshotData contains the full in-memory state at a point in time.
type SnapshotData struct {
	Sequence        int64             `json:"sequence"`
	StateHash       []byte            `json:"state_hash"`
	PrevHash        []byte            `json:"prev_hash"`
	Rooms           []RoomSnapshot    `json:"rooms"`
	Tokens          []TokenSnapshot   `json:"tokens"`
	Accounts        []AccountSnapshot `json:"accounts"`
	SequenceState   map[string]int64  `json:"sequence_state"`   // partition -> next expected seq
	IdempotencyKeys []string          `json:"idempotency_keys"` // Recent keys for LRU warming
	CreatedAt       time.Time         `json:"created_at"`
}

// RoomSnapshot is a serializable battle room.
type RoomSnapshot struct {
	ID                 string    `json:"id"`
	Admin              string    `json:"admin"`
	MaxParticipants    uint8     `json:"max_participants"`
	Status             int32     `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	WaitingTimeEnd     time.Time `json:"waiting_time_end"`
	BattleEndTime      time.Time `json:"battle_end_time"`
	PlatformFeePct     uint64    `json:"platform_fee_pct"`
	ParticipantCount   uint8     `json:"participant_count"`
	TotalFeesCollected uint64    `json:"total_fees_collected"`
	WinnerToken        string    `json:"winner_token"`
}

// TokenSnapshot is a serializable battle-token entry.
type TokenSnapshot struct {
	Symbol           string    `json:"symbol"`
	Name             string    `json:"name"`
	Creator          string    `json:"creator"`
	Room             string    `json:"room"`
	InitialSupply    uint64    `json:"initial_supply"`
	CurrentMarketCap uint64    `json:"current_market_cap"`
	TotalFees        uint64    `json:"total_fees"`
	CreatedAt        time.Time `json:"created_at"`
	IsWinner         bool      `json:"is_winner"`
}

// AccountSnapshot is a serializable launchpad token account.
type AccountSnapshot struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	CreatorFeeBP  uint64    `json:"creator_fee_bp"`
	PlatformFeeBP uint64    `json:"platform_fee_bp"`
	Authority     string    `json:"authority"`
	Treasury      string    `json:"treasury"`
	MetadataURI   string    `json:"metadata_uri"`
	Frozen        bool      `json:"frozen"`
	TotalSupply   uint64    `json:"total_supply"`
	MarketCap     uint64    `json:"market_cap"`
	CurveActive   bool      `json:"curve_active"`
	CurveCap      uint64    `json:"curve_cap"`
	TreasuryUnits uint64    `json:"treasury_units"`
	TradeVolume   uint64    `json:"trade_volume"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewSnapshotManager(db *sql.DB) *SnapshotManager {
	return &SnapshotManager{db: db}
}

// SaveSnapshot persists a snapshot to Postgres. Snapshots are taken
// periodically and verified by replaying commands from the snapshot
// sequence forward.
func (sm *SnapshotManager) SaveSnapshot(ctx context.Context, snap *SnapshotData) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	snapshotID := uuid.New()
	sizeBytes := len(data)
	formatVersion := int32(1) // v1: JSON-encoded SnapshotData

	_, err = sm.db.ExecContext(ctx, `
		INSERT INTO command_log.snapshots
			(snapshot_id, sequence, data, state_hash, format_version, size_bytes, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)
		ON CONFLICT (sequence) DO UPDATE SET data = $3, state_hash = $4, size_bytes = $6
	`, snapshotID, snap.Sequence, data, snap.StateHash, formatVersion, sizeBytes, snap.CreatedAt)

	return err
}

// LoadLatestSnapshot loads the most recent verified snapshot.
// On warm restart, load latest snapshot then replay from snapshot.sequence+1.
func (sm *SnapshotManager) LoadLatestSnapshot(ctx context.Context) (*SnapshotData, error) {
	row := sm.db.QueryRowContext(ctx, `
		SELECT data FROM command_log.snapshots
		WHERE verified = TRUE
		ORDER BY sequence DESC
		LIMIT 1
	`)

	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No snapshot — cold start
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snap SnapshotData
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snap, nil
}

// MarkVerified marks a snapshot as verified after integrity check.
func (sm *SnapshotManager) MarkVerified(ctx context.Context, sequence int64) error {
	_, err := sm.db.ExecContext(ctx, `
		UPDATE command_log.snapshots SET verified = TRUE WHERE sequence = $1
	`, sequence)
	return err
}

// LoadCommandsFrom loads envelopes from a given sequence for replay.
// Used for warm restart (replay from snapshot) and cold restart (replay all).
func (sm *SnapshotManager) LoadCommandsFrom(ctx context.Context, fromSequence int64, limit int) ([]CommandRow, error) {
	rows, err := sm.db.QueryContext(ctx, `
		SELECT sequence, command_type, idempotency_key, room_id, payload,
		       state_hash, prev_hash, timestamp, source_sequence
		FROM command_log.commands
		WHERE sequence >= $1
		ORDER BY sequence ASC
		LIMIT $2
	`, fromSequence, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commands []CommandRow
	for rows.Next() {
		var c CommandRow
		if err := rows.Scan(
			&c.Sequence, &c.CommandType, &c.IdempotencyKey, &c.RoomID,
			&c.Payload, &c.StateHash, &c.PrevHash, &c.Timestamp, &c.SourceSequence,
		); err != nil {
			return nil, err
		}
		commands = append(commands, c)
	}

	return commands, rows.Err()
}

// GetLatestSequence returns the highest sequence in the command log.
func (sm *SnapshotManager) GetLatestSequence(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := sm.db.QueryRowContext(ctx, `
		SELECT MAX(sequence) FROM command_log.commands
	`).Scan(&seq)
	if err != nil {
		return 0, err
	}
	if !seq.Valid {
		return 0, nil // Empty command log
	}
	return seq.Int64, nil
}
