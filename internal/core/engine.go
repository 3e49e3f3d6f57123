package core

import (
	"BattleLedger/internal/battle"
	"BattleLedger/internal/command"
	"BattleLedger/internal/event"
	"BattleLedger/internal/money"
	"BattleLedger/internal/observability"
	"BattleLedger/internal/token"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Core is the single-threaded command processor
type Core struct {
	sequence          int64
	hasher            *StateHasher
	battles           *battle.Manager
	tokens            *token.Manager
	idempotency       *IdempotencyChecker
	sequenceValidator *SequenceValidator
	metrics           *observability.Metrics

	persistChan    chan<- CoreOutput
	projectionChan chan<- CoreOutput
}

// CoreOutput carries one processed command to the persistence and
// projection workers: the log envelope plus the typed domain event.
type CoreOutput struct {
	Envelope *event.Envelope
	Event    event.Event
}

func NewCore(
	startSequence int64,
	persistChan, projectionChan chan<- CoreOutput,
	dbChecker DBIdempotencyChecker,
	metrics *observability.Metrics,
	lruCapacity int,
) *Core {
	if lruCapacity <= 0 {
		lruCapacity = 1_000_000
	}
	idempotencyChecker := NewIdempotencyChecker(lruCapacity, dbChecker)

	return &Core{
		sequence:          startSequence,
		hasher:            NewStateHasher(),
		battles:           battle.NewManager(),
		tokens:            token.NewManager(),
		idempotency:       idempotencyChecker,
		sequenceValidator: NewSequenceValidator(),
		metrics:           metrics,
		persistChan:       persistChan,
		projectionChan:    projectionChan,
	}
}

// ProcessCommand is the main processing pipeline
func (c *Core) ProcessCommand(cmd command.Command) error {
	start := time.Now()
	commandType := cmd.CommandType().String()
	idempotencyKey := cmd.IdempotencyKey()

	// Step 1: Idempotency check (two-tier)
	isDuplicate := c.idempotency.IsDuplicate(commandType, idempotencyKey)

	// Step 2: Sequence validation
	partition := c.getPartition(cmd)
	sourceSequence := cmd.SourceSequence()

	if err := c.sequenceValidator.ValidateSequence(partition, sourceSequence, idempotencyKey, isDuplicate); err != nil {
		return fmt.Errorf("sequence validation failed: %w", err)
	}

	// If duplicate, skip processing
	if isDuplicate {
		if c.metrics != nil {
			c.metrics.CoreCommandsRejected.WithLabelValues(commandType, "duplicate").Inc()
		}
		return nil
	}

	// Step 3: Dispatch - all precondition checks and mutations happen
	// inside the managers; a returned error means state is untouched.
	evt, err := c.dispatch(cmd)
	if err != nil {
		if c.metrics != nil {
			c.metrics.CoreCommandsRejected.WithLabelValues(commandType, "rejected").Inc()
		}
		return fmt.Errorf("dispatch failed: %w", err)
	}

	// Step 4: Compute state digest over the affected aggregate
	stateDigest := c.computeStateDigest(cmd)

	// Step 5: Compute state hash
	prevHash := c.hasher.GetPrevHash()
	stateHash := c.hasher.ComputeHash(c.sequence, stateDigest)

	// Step 6: Encode the domain event as the envelope payload
	payload, err := json.Marshal(evt)
	if err != nil {
		panic(fmt.Sprintf("FATAL: cannot encode event %s: %v", evt.EventName(), err))
	}

	envelope := &event.Envelope{
		Sequence:       c.sequence,
		IdempotencyKey: idempotencyKey,
		CommandType:    cmd.CommandType(),
		RoomID:         cmd.RoomID(),
		Timestamp:      c.getCommandTimestamp(cmd),
		SourceSequence: sourceSequence,
		Payload:        payload,
		StateHash:      stateHash,
		PrevHash:       prevHash,
	}

	output := CoreOutput{
		Envelope: envelope,
		Event:    evt,
	}

	c.sequence++

	// Step 7: Post-checks
	if err := c.postCheckInvariants(cmd); err != nil {
		panic(fmt.Sprintf("FATAL: invariant violated: %v", err))
	}

	// Step 8: Emit outputs.
	// Persistence: blocking send (backpressure) so no command is lost.
	// Projections: non-blocking send with silent drop; projection workers
	// can rebuild from the command log if they fall behind.
	c.persistChan <- output

	select {
	case c.projectionChan <- output:
	default:
		// Silently dropped; projection will catch up via rebuild
	}

	// Step 9: Mark as processed (add to LRU)
	c.idempotency.MarkProcessed(commandType, idempotencyKey)

	// Record metrics
	if c.metrics != nil {
		c.metrics.CoreCommandsApplied.WithLabelValues(commandType).Inc()
		c.metrics.CoreCommandDuration.WithLabelValues(commandType).Observe(time.Since(start).Seconds())
		c.metrics.CoreSequence.Set(float64(c.sequence))
		c.recordDomainMetrics(evt)
	}

	return nil
}

func (c *Core) recordDomainMetrics(evt event.Event) {
	switch e := evt.(type) {
	case event.BattleRoomCreated:
		c.metrics.RoomsCreated.Inc()
	case event.TokenJoinedBattle:
		c.metrics.TokensJoined.Inc()
	case event.BattleStarted:
		c.metrics.RoomsStarted.Inc()
		c.metrics.ActiveRooms.Inc()
	case event.TradeRecorded:
		c.metrics.TradesRecorded.WithLabelValues(e.TradeType).Inc()
		c.metrics.FeesCollected.WithLabelValues(e.Room).Add(float64(e.Fee))
	case event.BattleClosed:
		c.metrics.RoomsClosed.Inc()
		c.metrics.ActiveRooms.Dec()
	case event.WinnerSet:
		c.metrics.WinnersSet.Inc()
	case event.RewardClaimed:
		c.metrics.ClaimsRecorded.Inc()
	case event.TokensMinted:
		c.metrics.TokenMints.WithLabelValues(e.Symbol).Inc()
	case event.TradeExecuted:
		c.metrics.TokenTrades.WithLabelValues(e.Symbol).Inc()
	case event.AccountFrozen:
		c.metrics.TokenFreezes.WithLabelValues("freeze").Inc()
	case event.AccountUnfrozen:
		c.metrics.TokenFreezes.WithLabelValues("unfreeze").Inc()
	}
}

// ProcessReplay re-applies a logged command during startup recovery.
// It skips the duplicate check and emits nothing: the log rows already
// exist and downstream consumers have seen them. The hash chain is
// recomputed so the post-replay chain tip matches the stored one.
func (c *Core) ProcessReplay(cmd command.Command) error {
	partition := c.getPartition(cmd)
	if err := c.sequenceValidator.ValidateSequence(partition, cmd.SourceSequence(), cmd.IdempotencyKey(), false); err != nil {
		return fmt.Errorf("sequence validation failed: %w", err)
	}

	if _, err := c.dispatch(cmd); err != nil {
		return fmt.Errorf("dispatch failed: %w", err)
	}

	stateDigest := c.computeStateDigest(cmd)
	c.hasher.ComputeHash(c.sequence, stateDigest)
	c.sequence++

	c.idempotency.MarkProcessed(cmd.CommandType().String(), cmd.IdempotencyKey())
	return nil
}

// getPartition determines partition key for sequence validation.
// Battle-room commands order per room; token-account commands per symbol.
func (c *Core) getPartition(cmd command.Command) string {
	if roomID := cmd.RoomID(); roomID != nil {
		return fmt.Sprintf("room:%s", *roomID)
	}
	if symbol := commandSymbol(cmd); symbol != "" {
		return fmt.Sprintf("token:%s", symbol)
	}
	return "global"
}

// commandSymbol extracts the token-account symbol from account-scoped commands.
func commandSymbol(cmd command.Command) string {
	switch m := cmd.(type) {
	case *command.InitializeToken:
		return m.Symbol
	case *command.UpdateFees:
		return m.Symbol
	case *command.EmergencyFreeze:
		return m.Symbol
	case *command.EmergencyUnfreeze:
		return m.Symbol
	case *command.MintTokens:
		return m.Symbol
	case *command.ExecuteTrade:
		return m.Symbol
	case *command.SetTreasury:
		return m.Symbol
	case *command.UpdateMetadata:
		return m.Symbol
	case *command.TransferOwnership:
		return m.Symbol
	default:
		return ""
	}
}

// getCommandTimestamp extracts the versioned timestamp from the command.
// The core MUST NOT call time.Now(); all timestamps are versioned inputs.
func (c *Core) getCommandTimestamp(cmd command.Command) time.Time {
	switch m := cmd.(type) {
	case *command.CreateBattleRoom:
		return m.Timestamp
	case *command.JoinBattleRoom:
		return m.Timestamp
	case *command.StartBattle:
		return m.Timestamp
	case *command.RecordTrade:
		return m.Timestamp
	case *command.CloseBattle:
		return m.Timestamp
	case *command.SetWinner:
		return m.Timestamp
	case *command.ClaimReward:
		return m.Timestamp
	case *command.InitializeToken:
		return m.Timestamp
	case *command.UpdateFees:
		return m.Timestamp
	case *command.EmergencyFreeze:
		return m.Timestamp
	case *command.EmergencyUnfreeze:
		return m.Timestamp
	case *command.MintTokens:
		return m.Timestamp
	case *command.ExecuteTrade:
		return m.Timestamp
	case *command.SetTreasury:
		return m.Timestamp
	case *command.UpdateMetadata:
		return m.Timestamp
	case *command.TransferOwnership:
		return m.Timestamp
	default:
		panic(fmt.Sprintf("FATAL: getCommandTimestamp called with unhandled command type %T; the core cannot use wall-clock time", cmd))
	}
}

func (c *Core) dispatch(cmd command.Command) (event.Event, error) {
	switch m := cmd.(type) {
	case *command.CreateBattleRoom:
		_, evt, err := c.battles.CreateRoom(m.Room, m.Admin, m.MaxParticipants,
			time.Duration(m.DurationSeconds)*time.Second, m.Timestamp)
		return evt, err
	case *command.JoinBattleRoom:
		_, evt, err := c.battles.Join(m.Room, m.TokenSymbol, m.TokenName, m.Creator, m.InitialSupply, m.Timestamp)
		return evt, err
	case *command.StartBattle:
		evt, err := c.battles.Start(m.Room, m.Timestamp)
		return evt, err
	case *command.RecordTrade:
		_, evt, err := c.battles.RecordTrade(m.TradeID, m.Room, m.TokenSymbol, m.Trader,
			m.Amount, m.Fee, m.Type.String(), m.MarketCapUpdate, m.Timestamp)
		return evt, err
	case *command.CloseBattle:
		_, evt, err := c.battles.Close(m.Room, m.Timestamp)
		return evt, err
	case *command.SetWinner:
		evt, err := c.battles.SetWinner(m.Room, m.TokenSymbol, m.Caller)
		return evt, err
	case *command.ClaimReward:
		_, evt, err := c.battles.Claim(m.ClaimID, m.Room, m.TokenSymbol, m.Trader, m.Amount, m.Timestamp)
		return evt, err
	case *command.InitializeToken:
		_, evt, err := c.tokens.Initialize(m.Symbol, m.Name, m.CreatorFeeBP, m.PlatformFeeBP,
			m.Authority, m.CurveCap, m.Timestamp)
		return evt, err
	case *command.UpdateFees:
		evt, err := c.tokens.UpdateFees(m.Symbol, m.CreatorFeeBP, m.PlatformFeeBP, m.Caller)
		return evt, err
	case *command.EmergencyFreeze:
		evt, err := c.tokens.Freeze(m.Symbol, m.Caller)
		return evt, err
	case *command.EmergencyUnfreeze:
		evt, err := c.tokens.Unfreeze(m.Symbol, m.Caller)
		return evt, err
	case *command.MintTokens:
		_, evt, err := c.tokens.Mint(m.Symbol, m.Amount, m.Holder, m.Caller)
		return evt, err
	case *command.ExecuteTrade:
		_, evt, err := c.tokens.ExecuteTrade(m.Symbol, m.Amount, m.Price, m.Trader)
		return evt, err
	case *command.SetTreasury:
		evt, err := c.tokens.SetTreasury(m.Symbol, m.Treasury, m.Caller)
		return evt, err
	case *command.UpdateMetadata:
		evt, err := c.tokens.UpdateMetadata(m.Symbol, m.MetadataURI, m.Caller)
		return evt, err
	case *command.TransferOwnership:
		evt, err := c.tokens.TransferOwnership(m.Symbol, m.NewAuthority, m.Caller)
		return evt, err
	default:
		return nil, fmt.Errorf("unknown command type: %T", cmd)
	}
}

// computeStateDigest creates canonical bytes for the state hash, covering
// the aggregate the command touched (room + its tokens, or token account).
func (c *Core) computeStateDigest(cmd command.Command) []byte {
	if roomID := cmd.RoomID(); roomID != nil {
		return c.roomDigest(*roomID)
	}
	if symbol := commandSymbol(cmd); symbol != "" {
		return c.accountDigest(symbol)
	}
	return nil
}

func (c *Core) roomDigest(roomID string) []byte {
	room := c.battles.GetRoom(roomID)
	if room == nil {
		return nil
	}

	digest := make([]byte, 0, 256)
	digest = appendString(digest, room.ID)
	digest = appendUint64LE(digest, uint64(room.Status))
	digest = appendUint64LE(digest, uint64(room.ParticipantCount))
	digest = appendUint64LE(digest, uint64(room.MaxParticipants))
	digest = appendUint64LE(digest, room.TotalFeesCollected)
	digest = appendUint64LE(digest, uint64(room.WaitingTimeEnd.UnixMicro()))
	digest = appendUint64LE(digest, uint64(room.BattleEndTime.UnixMicro()))
	digest = appendString(digest, room.WinnerToken)

	// Tokens sorted by symbol (deterministic ordering)
	tokens := c.battles.RoomTokens(roomID)
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Symbol < tokens[j].Symbol })
	for _, tok := range tokens {
		digest = appendString(digest, tok.Symbol)
		digest = appendUint64LE(digest, tok.CurrentMarketCap)
		digest = appendUint64LE(digest, tok.TotalFees)
		if tok.IsWinner {
			digest = append(digest, 1)
		} else {
			digest = append(digest, 0)
		}
	}

	return digest
}

func (c *Core) accountDigest(symbol string) []byte {
	acct := c.tokens.Get(symbol)
	if acct == nil {
		return nil
	}

	digest := make([]byte, 0, 128)
	digest = appendString(digest, acct.Symbol)
	digest = appendString(digest, acct.Authority.String())
	digest = appendString(digest, acct.Treasury.String())
	digest = appendUint64LE(digest, acct.CreatorFeeBP)
	digest = appendUint64LE(digest, acct.PlatformFeeBP)
	digest = appendUint64LE(digest, acct.TotalSupply)
	digest = appendUint64LE(digest, acct.MarketCap)
	digest = appendUint64LE(digest, acct.TreasuryUnits)
	digest = appendUint64LE(digest, acct.TradeVolume)
	if acct.Frozen {
		digest = append(digest, 1)
	} else {
		digest = append(digest, 0)
	}
	if acct.CurveActive {
		digest = append(digest, 1)
	} else {
		digest = append(digest, 0)
	}

	return digest
}

func appendString(buf []byte, s string) []byte {
	buf = append(buf, byte(len(s)))
	return append(buf, []byte(s)...)
}

func appendUint64LE(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v),
		byte(v>>8),
		byte(v>>16),
		byte(v>>24),
		byte(v>>32),
		byte(v>>40),
		byte(v>>48),
		byte(v>>56),
	)
}

// postCheckInvariants validates aggregate invariants after a mutation
func (c *Core) postCheckInvariants(cmd command.Command) error {
	if roomID := cmd.RoomID(); roomID != nil {
		room := c.battles.GetRoom(*roomID)
		if room == nil {
			return fmt.Errorf("post-check: room %s missing after mutation", *roomID)
		}
		if room.ParticipantCount > room.MaxParticipants {
			return fmt.Errorf("post-check: room %s has %d participants, max %d",
				room.ID, room.ParticipantCount, room.MaxParticipants)
		}
		if room.WinnerToken != "" && room.Status != battle.RoomStatusClosed {
			return fmt.Errorf("post-check: room %s has winner but status %s",
				room.ID, room.Status)
		}

		// Fee conservation: room total equals the sum over its tokens.
		// Winner uniqueness rides along in the same pass.
		var feeSum uint64
		winners := 0
		for _, tok := range c.battles.RoomTokens(*roomID) {
			feeSum += tok.TotalFees
			if tok.IsWinner {
				winners++
			}
		}
		if feeSum != room.TotalFeesCollected {
			return fmt.Errorf("post-check: room %s fee sum %d != total collected %d",
				room.ID, feeSum, room.TotalFeesCollected)
		}
		if winners > 1 {
			return fmt.Errorf("post-check: room %s has %d winners", room.ID, winners)
		}
		return nil
	}

	if symbol := commandSymbol(cmd); symbol != "" {
		acct := c.tokens.Get(symbol)
		if acct == nil {
			return fmt.Errorf("post-check: account %s missing after mutation", symbol)
		}
		if acct.CreatorFeeBP+acct.PlatformFeeBP > money.MaxCombinedFeeBP {
			return fmt.Errorf("post-check: account %s combined fees %d bp exceed ceiling",
				symbol, acct.CreatorFeeBP+acct.PlatformFeeBP)
		}
		if acct.CurveActive {
			reached, err := money.CurveCapReached(acct.MarketCap, acct.CurveCap)
			if err == nil && reached {
				return fmt.Errorf("post-check: account %s curve active past cap", symbol)
			}
		}
	}

	return nil
}

// --- Snapshot Restore & Startup Methods ---

// SnapshotState holds the serializable in-memory state for restore.
// This mirrors persistence.SnapshotData but uses typed fields.
type SnapshotState struct {
	Sequence        int64
	StateHash       [32]byte
	PrevHash        [32]byte
	Rooms           []*battle.Room
	Tokens          []*battle.Token
	Accounts        []*token.Account
	SequenceState   map[string]int64
	IdempotencyKeys []string
}

// RestoreFromSnapshot restores the core's in-memory state from a snapshot.
// On warm restart, load latest snapshot then replay the command log.
func (c *Core) RestoreFromSnapshot(snap *SnapshotState) {
	// Restore sequence
	c.sequence = snap.Sequence + 1 // Next sequence to assign

	// Restore state hash chain
	c.hasher.SetPrevHash(snap.StateHash)

	// Restore rooms and their tokens
	for _, room := range snap.Rooms {
		c.battles.RestoreRoom(room)
	}
	for _, tok := range snap.Tokens {
		c.battles.RestoreToken(tok)
	}

	// Restore token accounts
	for _, acct := range snap.Accounts {
		c.tokens.Restore(acct)
	}

	// Restore sequence validator state
	for partition, nextSeq := range snap.SequenceState {
		c.sequenceValidator.RestorePartition(partition, nextSeq)
	}
}

// WarmLRU loads recent idempotency keys into the LRU cache.
func (c *Core) WarmLRU(keys []string) {
	c.idempotency.lru.WarmFromKeys(keys)
}

// GetSequence returns the current global sequence number.
func (c *Core) GetSequence() int64 {
	return c.sequence
}

// GetStateHash returns the current state hash (chain tip).
func (c *Core) GetStateHash() [32]byte {
	return c.hasher.GetPrevHash()
}

// Battles exposes battle-room state for read paths and tests.
func (c *Core) Battles() *battle.Manager {
	return c.battles
}

// Tokens exposes token-account state for read paths and tests.
func (c *Core) Tokens() *token.Manager {
	return c.tokens
}

// CreateSnapshotState captures the current in-memory state for persistence.
func (c *Core) CreateSnapshotState() *SnapshotState {
	rooms := make([]*battle.Room, 0)
	for _, room := range c.battles.Rooms() {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })

	tokens := make([]*battle.Token, 0)
	for _, tok := range c.battles.Tokens() {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].Room != tokens[j].Room {
			return tokens[i].Room < tokens[j].Room
		}
		return tokens[i].Symbol < tokens[j].Symbol
	})

	accounts := make([]*token.Account, 0)
	for _, acct := range c.tokens.Accounts() {
		accounts = append(accounts, acct)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Symbol < accounts[j].Symbol })

	return &SnapshotState{
		Sequence:        c.sequence - 1, // Last processed sequence
		StateHash:       c.hasher.GetPrevHash(),
		Rooms:           rooms,
		Tokens:          tokens,
		Accounts:        accounts,
		SequenceState:   c.sequenceValidator.GetAllPartitions(),
		IdempotencyKeys: c.idempotency.lru.GetAllKeys(),
	}
}
