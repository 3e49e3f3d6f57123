package token_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"BattleLedger/internal/token"
)

var (
	authority = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	stranger  = uuid.MustParse("660e8400-e29b-41d4-a716-446655440001")
	holder    = uuid.MustParse("770e8400-e29b-41d4-a716-446655440002")

	t0 = time.UnixMicro(1_700_000_000_000_000)
)

func newAccount(t *testing.T, m *token.Manager) *token.Account {
	t.Helper()
	acct, _, err := m.Initialize("WYBE", "Wybe Token", 250, 250, authority, 0, t0)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return acct
}

func TestInitialize_Validation(t *testing.T) {
	cases := []struct {
		name    string
		symbol  string
		tkName  string
		wantErr error
	}{
		{"empty name", "WYBE", "", token.ErrInvalidTokenName},
		{"empty symbol", "", "Wybe", token.ErrInvalidTokenSymbol},
		{"symbol too long", "WYBETOKEN", "Wybe", token.ErrTokenSymbolTooLong},
		{"name too long", "WYBE", "this token name is much too long yes", token.ErrTokenNameTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := token.NewManager()
			if _, _, err := m.Initialize(tc.symbol, tc.tkName, 100, 100, authority, 0, t0); !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestInitialize_FeeCeiling(t *testing.T) {
	m := token.NewManager()
	if _, _, err := m.Initialize("WYBE", "Wybe", 600, 500, authority, 0, t0); !errors.Is(err, token.ErrInvalidFees) {
		t.Errorf("1100 bp combined: got %v, want ErrInvalidFees", err)
	}
	if _, _, err := m.Initialize("WYBE", "Wybe", 500, 500, authority, 0, t0); err != nil {
		t.Errorf("1000 bp combined should be allowed: %v", err)
	}
}

func TestUpdateFees(t *testing.T) {
	m := token.NewManager()
	acct := newAccount(t, m)

	if _, err := m.UpdateFees("WYBE", 100, 100, stranger); !errors.Is(err, token.ErrUnauthorized) {
		t.Errorf("stranger update: got %v", err)
	}
	if _, err := m.UpdateFees("WYBE", 900, 200, authority); !errors.Is(err, token.ErrInvalidFees) {
		t.Errorf("over-ceiling update: got %v", err)
	}

	evt, err := m.UpdateFees("WYBE", 100, 200, authority)
	if err != nil {
		t.Fatalf("UpdateFees: %v", err)
	}
	if acct.CreatorFeeBP != 100 || acct.PlatformFeeBP != 200 {
		t.Errorf("fees = (%d, %d), want (100, 200)", acct.CreatorFeeBP, acct.PlatformFeeBP)
	}
	if evt.CreatorFeeBP != 100 || evt.PlatformFeeBP != 200 {
		t.Errorf("event fees mismatch")
	}
}

func TestFreezeUnfreeze_Idempotence(t *testing.T) {
	m := token.NewManager()
	newAccount(t, m)

	if _, err := m.Freeze("WYBE", stranger); !errors.Is(err, token.ErrUnauthorized) {
		t.Errorf("stranger freeze: got %v", err)
	}

	if _, err := m.Freeze("WYBE", authority); err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	if _, err := m.Freeze("WYBE", authority); !errors.Is(err, token.ErrAlreadyFrozen) {
		t.Errorf("second freeze: got %v, want ErrAlreadyFrozen", err)
	}

	if _, err := m.Unfreeze("WYBE", authority); err != nil {
		t.Fatalf("Unfreeze: %v", err)
	}
	if _, err := m.Unfreeze("WYBE", authority); !errors.Is(err, token.ErrNotFrozen) {
		t.Errorf("second unfreeze: got %v, want ErrNotFrozen", err)
	}
}

func TestFrozenGatesMutations(t *testing.T) {
	m := token.NewManager()
	newAccount(t, m)
	m.Freeze("WYBE", authority)

	if _, err := m.UpdateFees("WYBE", 100, 100, authority); !errors.Is(err, token.ErrAccountFrozen) {
		t.Errorf("UpdateFees on frozen: got %v", err)
	}
	if _, _, err := m.Mint("WYBE", 1000, holder, authority); !errors.Is(err, token.ErrAccountFrozen) {
		t.Errorf("Mint on frozen: got %v", err)
	}
	if _, _, err := m.ExecuteTrade("WYBE", 10, 10, holder); !errors.Is(err, token.ErrAccountFrozen) {
		t.Errorf("ExecuteTrade on frozen: got %v", err)
	}
	if _, err := m.UpdateMetadata("WYBE", "ipfs://x", authority); !errors.Is(err, token.ErrAccountFrozen) {
		t.Errorf("UpdateMetadata on frozen: got %v", err)
	}
}

func TestMint_CurvePricingAndTreasury(t *testing.T) {
	m := token.NewManager()
	acct := newAccount(t, m)

	res, evt, err := m.Mint("WYBE", 1000, holder, authority)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	// Fresh curve: supply below the divisor, unit price is the base price.
	if res.UnitPrice != 10_000 {
		t.Errorf("UnitPrice = %d, want base 10000", res.UnitPrice)
	}
	if res.TotalPrice != 1000*10_000 {
		t.Errorf("TotalPrice = %d, want %d", res.TotalPrice, uint64(1000*10_000))
	}
	if res.TreasuryAmount != 10 || res.HolderAmount != 990 {
		t.Errorf("treasury split = (%d, %d), want (10, 990)", res.TreasuryAmount, res.HolderAmount)
	}
	if acct.TotalSupply != 1000 {
		t.Errorf("TotalSupply = %d, want 1000", acct.TotalSupply)
	}
	if acct.MarketCap != res.TotalPrice {
		t.Errorf("MarketCap = %d, want %d", acct.MarketCap, res.TotalPrice)
	}
	if evt.Holder != holder {
		t.Errorf("event holder mismatch")
	}
}

func TestMint_SmallAmountZeroTreasury(t *testing.T) {
	m := token.NewManager()
	newAccount(t, m)

	res, _, err := m.Mint("WYBE", 99, holder, authority)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	// Floor division: amounts under 100 reserve nothing.
	if res.TreasuryAmount != 0 || res.HolderAmount != 99 {
		t.Errorf("treasury split = (%d, %d), want (0, 99)", res.TreasuryAmount, res.HolderAmount)
	}
}

func TestMint_CurveDeactivatesPermanently(t *testing.T) {
	m := token.NewManager()
	// Tiny cap: one mint crosses it.
	acct, _, err := m.Initialize("WYBE", "Wybe", 250, 250, authority, 1, t0)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	// 1000 units at base price 10_000 -> market cap 10_000_000 >= 1*1e6.
	res, _, err := m.Mint("WYBE", 1000, holder, authority)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if res.CurveActive {
		t.Fatal("curve should deactivate once cap is reached")
	}
	if acct.CurveActive {
		t.Fatal("account curve flag should be off")
	}

	// Post-curve mints use the fixed unit price; the flag never flips back.
	res, _, err = m.Mint("WYBE", 10, holder, authority)
	if err != nil {
		t.Fatalf("post-curve Mint: %v", err)
	}
	if res.UnitPrice != token.PostCurveUnitPrice {
		t.Errorf("post-curve UnitPrice = %d, want %d", res.UnitPrice, uint64(token.PostCurveUnitPrice))
	}
	if res.CurveActive {
		t.Error("curve must stay deactivated")
	}
}

func TestExecuteTrade_Split(t *testing.T) {
	m := token.NewManager()
	acct := newAccount(t, m) // 250/250 bp

	split, evt, err := m.ExecuteTrade("WYBE", 100, 50, holder)
	if err != nil {
		t.Fatalf("ExecuteTrade: %v", err)
	}
	if split.TradeValue != 5000 || split.CreatorFee != 125 || split.PlatformFee != 125 || split.SellerReceives != 4750 {
		t.Errorf("split = %+v", split)
	}
	if acct.TradeVolume != 5000 {
		t.Errorf("TradeVolume = %d, want 5000", acct.TradeVolume)
	}
	if evt.SellerReceives != 4750 {
		t.Errorf("event mismatch: %+v", evt)
	}
}

func TestTransferOwnership(t *testing.T) {
	m := token.NewManager()
	acct := newAccount(t, m)

	if _, err := m.TransferOwnership("WYBE", stranger, stranger); !errors.Is(err, token.ErrUnauthorized) {
		t.Errorf("stranger transfer: got %v", err)
	}

	evt, err := m.TransferOwnership("WYBE", stranger, authority)
	if err != nil {
		t.Fatalf("TransferOwnership: %v", err)
	}
	if acct.Authority != stranger {
		t.Errorf("authority not transferred")
	}
	if evt.OldAuthority != authority || evt.NewAuthority != stranger {
		t.Errorf("event = %+v", evt)
	}

	// Old authority loses control.
	if _, err := m.UpdateMetadata("WYBE", "ipfs://x", authority); !errors.Is(err, token.ErrUnauthorized) {
		t.Errorf("old authority mutation: got %v", err)
	}
}

func TestSetTreasuryAndMetadata(t *testing.T) {
	m := token.NewManager()
	acct := newAccount(t, m)

	treasury := uuid.New()
	if _, err := m.SetTreasury("WYBE", treasury, authority); err != nil {
		t.Fatalf("SetTreasury: %v", err)
	}
	if acct.Treasury != treasury {
		t.Errorf("treasury not set")
	}

	if _, err := m.UpdateMetadata("WYBE", "ipfs://meta", authority); err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	if acct.MetadataURI != "ipfs://meta" {
		t.Errorf("metadata not set")
	}
}
