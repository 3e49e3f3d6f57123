// Package custody abstracts the movement of settled funds out of the
// ledger. The ledger itself only records entitlements; an external
// custodian (or a chain adapter) performs the actual transfers.
package custody

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Transfer describes a single outbound payment produced by settlement.
type Transfer struct {
	Reference string    // claim or trade identifier, unique per transfer
	Recipient uuid.UUID
	Amount    uint64
	Memo      string
}

// Transferer executes settlement transfers. Implementations must be
// idempotent on Reference: replaying a transfer must not pay twice.
type Transferer interface {
	Execute(ctx context.Context, t Transfer) error
}

// NoopTransferer records intended transfers without moving anything.
// Used when the deployment has no custody backend wired in.
type NoopTransferer struct {
	logger zerolog.Logger
}

func NewNoopTransferer(logger zerolog.Logger) *NoopTransferer {
	return &NoopTransferer{logger: logger}
}

func (n *NoopTransferer) Execute(_ context.Context, t Transfer) error {
	n.logger.Info().
		Str("reference", t.Reference).
		Str("recipient", t.Recipient.String()).
		Uint64("amount", t.Amount).
		Str("memo", t.Memo).
		Msg("would transfer")
	return nil
}
