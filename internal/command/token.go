package command

import (
	"time"

	"github.com/google/uuid"
)

// Token-account commands operate on launchpad token accounts, which live
// outside any battle room. RoomID() is nil for all of them; the partition
// key for sequencing is the token symbol instead.

// InitializeToken creates a launchpad token account with its fee config.
type InitializeToken struct {
	CommandID     uuid.UUID
	Symbol        string
	Name          string
	CreatorFeeBP  uint64
	PlatformFeeBP uint64
	Authority     uuid.UUID
	CurveCap      uint64 // Bonding-curve deactivation cap in whole units
	Sequence      int64
	Timestamp     time.Time
}

func (c *InitializeToken) IdempotencyKey() string   { return c.CommandID.String() }
func (c *InitializeToken) CommandType() CommandType { return CommandTypeInitializeToken }
func (c *InitializeToken) RoomID() *string          { return nil }
func (c *InitializeToken) SourceSequence() int64    { return c.Sequence }

// UpdateFees changes a token account's fee configuration. Authority-only.
type UpdateFees struct {
	CommandID     uuid.UUID
	Symbol        string
	CreatorFeeBP  uint64
	PlatformFeeBP uint64
	Caller        uuid.UUID
	Sequence      int64
	Timestamp     time.Time
}

func (c *UpdateFees) IdempotencyKey() string   { return c.CommandID.String() }
func (c *UpdateFees) CommandType() CommandType { return CommandTypeUpdateFees }
func (c *UpdateFees) RoomID() *string          { return nil }
func (c *UpdateFees) SourceSequence() int64    { return c.Sequence }

// EmergencyFreeze halts all mutating operations on a token account.
type EmergencyFreeze struct {
	CommandID uuid.UUID
	Symbol    string
	Caller    uuid.UUID
	Sequence  int64
	Timestamp time.Time
}

func (c *EmergencyFreeze) IdempotencyKey() string   { return c.CommandID.String() }
func (c *EmergencyFreeze) CommandType() CommandType { return CommandTypeEmergencyFreeze }
func (c *EmergencyFreeze) RoomID() *string          { return nil }
func (c *EmergencyFreeze) SourceSequence() int64    { return c.Sequence }

// EmergencyUnfreeze lifts a freeze.
type EmergencyUnfreeze struct {
	CommandID uuid.UUID
	Symbol    string
	Caller    uuid.UUID
	Sequence  int64
	Timestamp time.Time
}

func (c *EmergencyUnfreeze) IdempotencyKey() string   { return c.CommandID.String() }
func (c *EmergencyUnfreeze) CommandType() CommandType { return CommandTypeEmergencyUnfreeze }
func (c *EmergencyUnfreeze) RoomID() *string          { return nil }
func (c *EmergencyUnfreeze) SourceSequence() int64    { return c.Sequence }

// MintTokens issues new supply priced by the bonding curve.
type MintTokens struct {
	CommandID uuid.UUID
	Symbol    string
	Amount    uint64
	Holder    uuid.UUID
	Caller    uuid.UUID
	Sequence  int64
	Timestamp time.Time
}

func (c *MintTokens) IdempotencyKey() string   { return c.CommandID.String() }
func (c *MintTokens) CommandType() CommandType { return CommandTypeMintTokens }
func (c *MintTokens) RoomID() *string          { return nil }
func (c *MintTokens) SourceSequence() int64    { return c.Sequence }

// ExecuteTrade settles a token trade through the basis-point fee split.
type ExecuteTrade struct {
	TradeID   uuid.UUID
	Symbol    string
	Trader    uuid.UUID
	Amount    uint64
	Price     uint64
	Sequence  int64
	Timestamp time.Time
}

func (c *ExecuteTrade) IdempotencyKey() string   { return c.TradeID.String() }
func (c *ExecuteTrade) CommandType() CommandType { return CommandTypeExecuteTrade }
func (c *ExecuteTrade) RoomID() *string          { return nil }
func (c *ExecuteTrade) SourceSequence() int64    { return c.Sequence }

// SetTreasury points a token account at a new treasury wallet.
type SetTreasury struct {
	CommandID uuid.UUID
	Symbol    string
	Treasury  uuid.UUID
	Caller    uuid.UUID
	Sequence  int64
	Timestamp time.Time
}

func (c *SetTreasury) IdempotencyKey() string   { return c.CommandID.String() }
func (c *SetTreasury) CommandType() CommandType { return CommandTypeSetTreasury }
func (c *SetTreasury) RoomID() *string          { return nil }
func (c *SetTreasury) SourceSequence() int64    { return c.Sequence }

// UpdateMetadata replaces a token account's metadata URI.
type UpdateMetadata struct {
	CommandID   uuid.UUID
	Symbol      string
	MetadataURI string
	Caller      uuid.UUID
	Sequence    int64
	Timestamp   time.Time
}

func (c *UpdateMetadata) IdempotencyKey() string   { return c.CommandID.String() }
func (c *UpdateMetadata) CommandType() CommandType { return CommandTypeUpdateMetadata }
func (c *UpdateMetadata) RoomID() *string          { return nil }
func (c *UpdateMetadata) SourceSequence() int64    { return c.Sequence }

// TransferOwnership hands a token account's authority to a new identity.
type TransferOwnership struct {
	CommandID    uuid.UUID
	Symbol       string
	NewAuthority uuid.UUID
	Caller       uuid.UUID
	Sequence     int64
	Timestamp    time.Time
}

func (c *TransferOwnership) IdempotencyKey() string   { return c.CommandID.String() }
func (c *TransferOwnership) CommandType() CommandType { return CommandTypeTransferOwnership }
func (c *TransferOwnership) RoomID() *string          { return nil }
func (c *TransferOwnership) SourceSequence() int64    { return c.Sequence }
