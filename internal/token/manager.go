package token

import (
	"time"

	"github.com/google/uuid"

	"BattleLedger/internal/event"
	"BattleLedger/internal/money"
)

// Manager owns all launchpad token accounts.
// Not thread-safe — only accessed from the single-threaded deterministic core.
// Preconditions (authority, frozen flag, fee ceilings, arithmetic bounds) are
// checked before any field is written.
type Manager struct {
	accounts map[string]*Account
}

func NewManager() *Manager {
	return &Manager{accounts: make(map[string]*Account)}
}

// Get returns the account or nil.
func (m *Manager) Get(symbol string) *Account {
	return m.accounts[symbol]
}

// Initialize creates a token account with validated name, symbol, and fees.
func (m *Manager) Initialize(symbol, name string, creatorFeeBP, platformFeeBP uint64, authority uuid.UUID, curveCap uint64, now time.Time) (*Account, event.TokenInitialized, error) {
	var zero event.TokenInitialized

	if name == "" {
		return nil, zero, ErrInvalidTokenName
	}
	if symbol == "" {
		return nil, zero, ErrInvalidTokenSymbol
	}
	if len(symbol) > MaxSymbolLen {
		return nil, zero, ErrTokenSymbolTooLong
	}
	if len(name) > MaxNameLen {
		return nil, zero, ErrTokenNameTooLong
	}
	if err := money.ValidateFeeBP(creatorFeeBP, platformFeeBP); err != nil {
		return nil, zero, err
	}
	if _, exists := m.accounts[symbol]; exists {
		return nil, zero, ErrAccountExists
	}

	if curveCap == 0 {
		curveCap = DefaultCurveCap
	}

	acct := &Account{
		Symbol:        symbol,
		Name:          name,
		CreatorFeeBP:  creatorFeeBP,
		PlatformFeeBP: platformFeeBP,
		Authority:     authority,
		CurveActive:   true,
		CurveCap:      curveCap,
		CreatedAt:     now,
	}
	m.accounts[symbol] = acct

	evt := event.TokenInitialized{
		Symbol:        symbol,
		Name:          name,
		CreatorFeeBP:  creatorFeeBP,
		PlatformFeeBP: platformFeeBP,
		Authority:     authority,
		CurveCap:      curveCap,
	}
	return acct, evt, nil
}

// guard checks existence, authority and (unless skipFrozen) the freeze flag.
func (m *Manager) guard(symbol string, caller uuid.UUID, skipFrozen bool) (*Account, error) {
	acct := m.accounts[symbol]
	if acct == nil {
		return nil, ErrAccountNotFound
	}
	if acct.Authority != caller {
		return nil, ErrUnauthorized
	}
	if !skipFrozen && acct.Frozen {
		return nil, ErrAccountFrozen
	}
	return acct, nil
}

// UpdateFees changes the fee pair. Authority-only, rejected while frozen,
// and both fee ceilings are re-enforced.
func (m *Manager) UpdateFees(symbol string, creatorFeeBP, platformFeeBP uint64, caller uuid.UUID) (event.FeesUpdated, error) {
	var zero event.FeesUpdated

	acct := m.accounts[symbol]
	if acct == nil {
		return zero, ErrAccountNotFound
	}
	if acct.Frozen {
		return zero, ErrAccountFrozen
	}
	if acct.Authority != caller {
		return zero, ErrUnauthorized
	}
	if err := money.ValidateFeeBP(creatorFeeBP, platformFeeBP); err != nil {
		return zero, err
	}

	acct.CreatorFeeBP = creatorFeeBP
	acct.PlatformFeeBP = platformFeeBP

	return event.FeesUpdated{
		Symbol:        symbol,
		CreatorFeeBP:  creatorFeeBP,
		PlatformFeeBP: platformFeeBP,
		Authority:     caller,
	}, nil
}

// Freeze sets the emergency-freeze flag. Freezing an already-frozen account
// fails ErrAlreadyFrozen.
func (m *Manager) Freeze(symbol string, caller uuid.UUID) (event.AccountFrozen, error) {
	var zero event.AccountFrozen

	acct, err := m.guard(symbol, caller, true)
	if err != nil {
		return zero, err
	}
	if acct.Frozen {
		return zero, ErrAlreadyFrozen
	}

	acct.Frozen = true
	return event.AccountFrozen{Symbol: symbol, Authority: caller}, nil
}

// Unfreeze lifts the flag. Unfreezing an unfrozen account fails ErrNotFrozen.
func (m *Manager) Unfreeze(symbol string, caller uuid.UUID) (event.AccountUnfrozen, error) {
	var zero event.AccountUnfrozen

	acct, err := m.guard(symbol, caller, true)
	if err != nil {
		return zero, err
	}
	if !acct.Frozen {
		return zero, ErrNotFrozen
	}

	acct.Frozen = false
	return event.AccountUnfrozen{Symbol: symbol, Authority: caller}, nil
}

// Mint issues new supply at the bonding-curve price. One percent of the
// minted amount is reserved to the treasury bucket (floor division); supply
// and market cap are updated with checked addition, and the curve
// deactivates permanently once market cap reaches the cap.
func (m *Manager) Mint(symbol string, amount uint64, holder, caller uuid.UUID) (MintResult, event.TokensMinted, error) {
	var zeroRes MintResult
	var zeroEvt event.TokensMinted

	acct, err := m.guard(symbol, caller, false)
	if err != nil {
		return zeroRes, zeroEvt, err
	}

	unitPrice := uint64(PostCurveUnitPrice)
	if acct.CurveActive {
		unitPrice, err = money.CurveUnitPrice(acct.TotalSupply)
		if err != nil {
			return zeroRes, zeroEvt, err
		}
	}

	totalPrice, err := money.CheckedMul(amount, unitPrice)
	if err != nil {
		return zeroRes, zeroEvt, err
	}

	treasuryAmount, holderAmount := money.TreasuryCut(amount)

	newSupply, err := money.CheckedAdd(acct.TotalSupply, amount)
	if err != nil {
		return zeroRes, zeroEvt, err
	}
	newMarketCap, err := money.CheckedAdd(acct.MarketCap, totalPrice)
	if err != nil {
		return zeroRes, zeroEvt, err
	}
	newTreasury, err := money.CheckedAdd(acct.TreasuryUnits, treasuryAmount)
	if err != nil {
		return zeroRes, zeroEvt, err
	}

	acct.TotalSupply = newSupply
	acct.MarketCap = newMarketCap
	acct.TreasuryUnits = newTreasury

	if acct.CurveActive {
		reached, err := money.CurveCapReached(acct.MarketCap, acct.CurveCap)
		if err != nil {
			return zeroRes, zeroEvt, err
		}
		if reached {
			// One-way flag: the curve never reactivates.
			acct.CurveActive = false
		}
	}

	res := MintResult{
		UnitPrice:      unitPrice,
		TotalPrice:     totalPrice,
		TreasuryAmount: treasuryAmount,
		HolderAmount:   holderAmount,
		CurveActive:    acct.CurveActive,
	}

	evt := event.TokensMinted{
		Symbol:         symbol,
		Holder:         holder,
		Amount:         amount,
		UnitPrice:      unitPrice,
		TotalPrice:     totalPrice,
		TreasuryAmount: treasuryAmount,
		HolderAmount:   holderAmount,
		Treasury:       acct.Treasury,
		CurveActive:    acct.CurveActive,
	}
	return res, evt, nil
}

// ExecuteTrade settles amount*price through the basis-point fee split and
// accumulates trade volume. All five arithmetic steps are checked; a failure
// commits nothing.
func (m *Manager) ExecuteTrade(symbol string, amount, price uint64, trader uuid.UUID) (money.TradeSplit, event.TradeExecuted, error) {
	var zeroEvt event.TradeExecuted

	acct := m.accounts[symbol]
	if acct == nil {
		return money.TradeSplit{}, zeroEvt, ErrAccountNotFound
	}
	if acct.Frozen {
		return money.TradeSplit{}, zeroEvt, ErrAccountFrozen
	}

	split, err := money.SplitTrade(amount, price, acct.CreatorFeeBP, acct.PlatformFeeBP)
	if err != nil {
		return money.TradeSplit{}, zeroEvt, err
	}

	newVolume, err := money.CheckedAdd(acct.TradeVolume, split.TradeValue)
	if err != nil {
		return money.TradeSplit{}, zeroEvt, err
	}
	acct.TradeVolume = newVolume

	evt := event.TradeExecuted{
		Symbol:         symbol,
		Trader:         trader,
		Amount:         amount,
		Price:          price,
		TradeValue:     split.TradeValue,
		CreatorFee:     split.CreatorFee,
		PlatformFee:    split.PlatformFee,
		SellerReceives: split.SellerReceives,
	}
	return split, evt, nil
}

// SetTreasury points the account at a new treasury wallet.
func (m *Manager) SetTreasury(symbol string, treasury uuid.UUID, caller uuid.UUID) (event.TreasuryUpdated, error) {
	var zero event.TreasuryUpdated

	acct, err := m.guard(symbol, caller, false)
	if err != nil {
		return zero, err
	}

	acct.Treasury = treasury
	return event.TreasuryUpdated{Symbol: symbol, Treasury: treasury}, nil
}

// UpdateMetadata replaces the metadata URI.
func (m *Manager) UpdateMetadata(symbol, uri string, caller uuid.UUID) (event.MetadataUpdated, error) {
	var zero event.MetadataUpdated

	acct, err := m.guard(symbol, caller, false)
	if err != nil {
		return zero, err
	}

	acct.MetadataURI = uri
	return event.MetadataUpdated{Symbol: symbol, MetadataURI: uri}, nil
}

// TransferOwnership hands authority to a new identity.
func (m *Manager) TransferOwnership(symbol string, newAuthority, caller uuid.UUID) (event.OwnershipTransferred, error) {
	var zero event.OwnershipTransferred

	acct, err := m.guard(symbol, caller, false)
	if err != nil {
		return zero, err
	}

	old := acct.Authority
	acct.Authority = newAuthority

	return event.OwnershipTransferred{
		Symbol:       symbol,
		OldAuthority: old,
		NewAuthority: newAuthority,
	}, nil
}

// Snapshot / restore support ---------------------------------------------

// Accounts returns the account map (read-only use by snapshot and digest code).
func (m *Manager) Accounts() map[string]*Account {
	return m.accounts
}

// Restore reinstates an account from a snapshot.
func (m *Manager) Restore(acct *Account) {
	m.accounts[acct.Symbol] = acct
}
