package query

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// QueryService provides read-only access to projection tables.
// Queries are served over HTTP/JSON, reading from PostgreSQL projection
// tables. All responses include as_of_sequence for freshness semantics.
type QueryService struct {
	db *sql.DB
}

func NewQueryService(db *sql.DB) *QueryService {
	return &QueryService{db: db}
}

// GetRoom returns a battle room's current projected state.
func (qs *QueryService) GetRoom(
	ctx context.Context,
	roomID string,
) (*RoomResponse, error) {
	asOfSeq, err := qs.getWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}

	var r RoomResponse
	var admin string
	var platformFee sql.NullInt64
	r.RoomID = roomID
	r.AsOfSequence = asOfSeq

	err = qs.db.QueryRowContext(ctx, `
		SELECT admin, max_participants, status, participant_count,
		       total_fees, COALESCE(platform_fee, 0), winner_token,
		       waiting_time_end, battle_end_time
		FROM projections.rooms
		WHERE room_id = $1
	`, roomID).Scan(
		&admin, &r.MaxParticipants, &r.Status, &r.ParticipantCount,
		&r.TotalFees, &platformFee, &r.WinnerToken,
		&r.WaitingTimeEnd, &r.BattleEndTime,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.Admin, err = uuid.Parse(admin)
	if err != nil {
		return nil, fmt.Errorf("parse admin: %w", err)
	}
	r.PlatformFee = uint64(platformFee.Int64)

	return &r, nil
}

// GetLeaderboard returns a room's tokens ranked by market cap descending.
// Ties break by symbol for a stable ordering.
func (qs *QueryService) GetLeaderboard(
	ctx context.Context,
	roomID string,
) ([]TokenStandingResponse, error) {
	asOfSeq, err := qs.getWatermark(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := qs.db.QueryContext(ctx, `
		SELECT token_symbol, creator, market_cap, total_fees, is_winner
		FROM projections.tokens
		WHERE room_id = $1
		ORDER BY market_cap DESC, token_symbol ASC
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var standings []TokenStandingResponse
	rank := 0
	for rows.Next() {
		rank++
		var s TokenStandingResponse
		var creator string
		s.RoomID = roomID
		s.Rank = rank
		s.AsOfSequence = asOfSeq
		if err := rows.Scan(
			&s.TokenSymbol, &creator, &s.MarketCap, &s.TotalFees, &s.IsWinner,
		); err != nil {
			return nil, err
		}
		s.Creator, err = uuid.Parse(creator)
		if err != nil {
			return nil, fmt.Errorf("parse creator: %w", err)
		}
		standings = append(standings, s)
	}

	return standings, rows.Err()
}

// GetTrades returns trades in a room with cursor-based pagination.
func (qs *QueryService) GetTrades(
	ctx context.Context,
	roomID string,
	tokenSymbol *string,
	limit int,
	afterSequence *int64,
) ([]TradeResponse, error) {
	asOfSeq, err := qs.getWatermark(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT trade_id, room_id, token_symbol, trader, amount, value, fee,
		       trade_type, sequence, timestamp
		FROM command_log.trades
		WHERE room_id = $1
	`
	args := []interface{}{roomID}
	argIdx := 2

	if tokenSymbol != nil {
		query += fmt.Sprintf(" AND token_symbol = $%d", argIdx)
		args = append(args, *tokenSymbol)
		argIdx++
	}

	if afterSequence != nil {
		query += fmt.Sprintf(" AND sequence < $%d", argIdx)
		args = append(args, *afterSequence)
		argIdx++
	}

	query += " ORDER BY sequence DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, limit)

	rows, err := qs.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []TradeResponse
	for rows.Next() {
		var t TradeResponse
		var trader string
		t.AsOfSequence = asOfSeq
		if err := rows.Scan(
			&t.TradeID, &t.RoomID, &t.TokenSymbol, &trader, &t.Amount,
			&t.Value, &t.Fee, &t.TradeType, &t.Sequence, &t.Timestamp,
		); err != nil {
			return nil, err
		}
		t.Trader, err = uuid.Parse(trader)
		if err != nil {
			return nil, fmt.Errorf("parse trader: %w", err)
		}
		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// GetTraderTrades returns a trader's trades across rooms with pagination.
func (qs *QueryService) GetTraderTrades(
	ctx context.Context,
	trader uuid.UUID,
	limit int,
	afterSequence *int64,
) ([]TradeResponse, error) {
	asOfSeq, err := qs.getWatermark(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT trade_id, room_id, token_symbol, trader, amount, value, fee,
		       trade_type, sequence, timestamp
		FROM command_log.trades
		WHERE trader = $1
	`
	args := []interface{}{trader.String()}
	argIdx := 2

	if afterSequence != nil {
		query += fmt.Sprintf(" AND sequence < $%d", argIdx)
		args = append(args, *afterSequence)
		argIdx++
	}

	query += " ORDER BY sequence DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, limit)

	rows, err := qs.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []TradeResponse
	for rows.Next() {
		var t TradeResponse
		var traderCol string
		t.AsOfSequence = asOfSeq
		if err := rows.Scan(
			&t.TradeID, &t.RoomID, &t.TokenSymbol, &traderCol, &t.Amount,
			&t.Value, &t.Fee, &t.TradeType, &t.Sequence, &t.Timestamp,
		); err != nil {
			return nil, err
		}
		t.Trader = trader
		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// GetClaims returns reward claims in a room, newest first.
func (qs *QueryService) GetClaims(
	ctx context.Context,
	roomID string,
	limit int,
) ([]ClaimResponse, error) {
	asOfSeq, err := qs.getWatermark(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := qs.db.QueryContext(ctx, `
		SELECT claim_id, token_symbol, trader, amount, sequence, timestamp
		FROM command_log.claims
		WHERE room_id = $1
		ORDER BY sequence DESC
		LIMIT $2
	`, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []ClaimResponse
	for rows.Next() {
		var c ClaimResponse
		var trader string
		c.RoomID = roomID
		c.AsOfSequence = asOfSeq
		if err := rows.Scan(
			&c.ClaimID, &c.TokenSymbol, &trader, &c.Amount, &c.Sequence, &c.Timestamp,
		); err != nil {
			return nil, err
		}
		c.Trader, err = uuid.Parse(trader)
		if err != nil {
			return nil, fmt.Errorf("parse trader: %w", err)
		}
		claims = append(claims, c)
	}

	return claims, rows.Err()
}

// GetAccount returns a launchpad token account's projected state.
func (qs *QueryService) GetAccount(
	ctx context.Context,
	symbol string,
) (*AccountResponse, error) {
	asOfSeq, err := qs.getWatermark(ctx)
	if err != nil {
		return nil, err
	}

	var a AccountResponse
	var authority, treasury string
	a.Symbol = symbol
	a.AsOfSequence = asOfSeq

	err = qs.db.QueryRowContext(ctx, `
		SELECT name, creator_fee_bp, platform_fee_bp, authority, treasury,
		       metadata_uri, frozen, total_supply, market_cap, curve_active,
		       curve_cap, treasury_units, trade_volume
		FROM projections.accounts
		WHERE symbol = $1
	`, symbol).Scan(
		&a.Name, &a.CreatorFeeBP, &a.PlatformFeeBP, &authority, &treasury,
		&a.MetadataURI, &a.Frozen, &a.TotalSupply, &a.MarketCap, &a.CurveActive,
		&a.CurveCap, &a.TreasuryUnits, &a.TradeVolume,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	a.Authority, err = uuid.Parse(authority)
	if err != nil {
		return nil, fmt.Errorf("parse authority: %w", err)
	}
	a.Treasury, err = uuid.Parse(treasury)
	if err != nil {
		return nil, fmt.Errorf("parse treasury: %w", err)
	}

	return &a, nil
}

// --- Admin APIs ---

// VerifyIntegrity checks hash chain and fee conservation invariants.
func (qs *QueryService) VerifyIntegrity(ctx context.Context) (*IntegrityReport, error) {
	report := &IntegrityReport{}

	// Check hash chain continuity
	rows, err := qs.db.QueryContext(ctx, `
		SELECT c1.sequence, c1.prev_hash, c2.state_hash
		FROM command_log.commands c1
		LEFT JOIN command_log.commands c2 ON c2.sequence = c1.sequence - 1
		WHERE c1.sequence > 0 AND c1.prev_hash != COALESCE(c2.state_hash, c1.prev_hash)
		LIMIT 10
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var seq int64
		var prevHash, expectedHash []byte
		if err := rows.Scan(&seq, &prevHash, &expectedHash); err != nil {
			return nil, err
		}
		report.HashChainBreaks = append(report.HashChainBreaks, seq)
	}

	// Check fee conservation: each room's fee total must equal the sum of
	// its tokens' fee accruals
	feeRows, err := qs.db.QueryContext(ctx, `
		SELECT r.room_id, r.total_fees, COALESCE(SUM(t.total_fees), 0) AS token_fees
		FROM projections.rooms r
		LEFT JOIN projections.tokens t ON t.room_id = r.room_id
		GROUP BY r.room_id, r.total_fees
		HAVING r.total_fees != COALESCE(SUM(t.total_fees), 0)
	`)
	if err != nil {
		return nil, err
	}
	defer feeRows.Close()

	for feeRows.Next() {
		var m FeeMismatch
		if err := feeRows.Scan(&m.RoomID, &m.RoomFees, &m.TokenFees); err != nil {
			return nil, err
		}
		report.FeeMismatches = append(report.FeeMismatches, m)
	}

	report.IsHealthy = len(report.HashChainBreaks) == 0 && len(report.FeeMismatches) == 0
	return report, nil
}

// --- helpers ---

func (qs *QueryService) getWatermark(ctx context.Context) (int64, error) {
	var seq int64
	err := qs.db.QueryRowContext(ctx, `
		SELECT COALESCE(last_sequence, 0) FROM projections.watermark WHERE worker_id = 'main'
	`).Scan(&seq)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return seq, err
}
