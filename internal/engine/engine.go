// Package engine defines the wallet engine boundary. The engine owns keys,
// channels, and settlement; everything above it treats the engine as an
// opaque service reached through the Engine interface.
package engine

import (
	"context"
	"time"
)

// Engine is the full surface the orchestration layer depends on.
// Implementations must be safe for concurrent use.
type Engine interface {
	// Connect establishes an engine session for the given credentials.
	Connect(ctx context.Context, creds Credentials) error

	// Disconnect tears down the engine session. Implementations should be
	// tolerant of being called when no session exists.
	Disconnect(ctx context.Context) error

	// GetInfo returns current balance information.
	GetInfo(ctx context.Context) (Info, error)

	// ListPayments returns up to limit payments starting at offset,
	// most recent first.
	ListPayments(ctx context.Context, limit, offset int) ([]Payment, error)

	// PrepareSendPayment computes fees for a payment and returns an opaque
	// prepared token that a subsequent SendPayment must present.
	PrepareSendPayment(ctx context.Context, req PrepareRequest) (Prepared, error)

	// SendPayment executes a previously prepared payment.
	SendPayment(ctx context.Context, prepared Prepared) (SendOutcome, error)

	// CheckAliasAvailable reports whether a lightning address alias is free.
	CheckAliasAvailable(ctx context.Context, alias string) (bool, error)

	// RegisterAlias claims a lightning address alias for this wallet.
	RegisterAlias(ctx context.Context, alias string) error

	// GetAlias returns the wallet's registered lightning address, or an
	// empty string when none is registered.
	GetAlias(ctx context.Context) (string, error)

	// GenerateOnchainAddress returns a fresh on-chain receive address.
	GenerateOnchainAddress(ctx context.Context) (string, error)
}

// Credentials carries what the engine needs to open a session.
type Credentials struct {
	// Mnemonic is the recovery phrase the engine derives keys from.
	Mnemonic string

	// APIKey authenticates the wallet with the engine service.
	APIKey string

	// Network selects mainnet or testnet.
	Network string
}

// Info is the engine's view of wallet balances, in whole satoshis.
type Info struct {
	BalanceSat        int64 `json:"balanceSat"`
	PendingReceiveSat int64 `json:"pendingReceiveSat"`
	PendingSendSat    int64 `json:"pendingSendSat"`
}

// PaymentKind distinguishes payment direction.
type PaymentKind string

// Payment kinds.
const (
	PaymentSend    PaymentKind = "send"
	PaymentReceive PaymentKind = "receive"
)

// Payment is one settled or pending payment as reported by the engine.
type Payment struct {
	ID          string
	Kind        PaymentKind
	Status      string
	AmountSat   int64
	FeeSat      int64
	Timestamp   time.Time
	Description string
	Destination string
}

// PrepareRequest asks the engine to price a payment before execution.
type PrepareRequest struct {
	// Destination is the raw classified payment target.
	Destination string

	// Kind names the destination type so the engine routes preparation.
	Kind string

	// AmountSat is the payment amount in satoshis. Zero when the
	// destination embeds its own amount.
	AmountSat int64
}

// Prepared is the engine's priced, ready-to-execute payment. The Token is
// opaque and single-use; execution without a token is not possible.
type Prepared struct {
	Token     string
	AmountSat int64
	FeeSat    int64
}

// TotalSat returns amount plus fees.
func (p Prepared) TotalSat() int64 {
	return p.AmountSat + p.FeeSat
}

// SendOutcome reports the result of an executed payment.
type SendOutcome struct {
	PaymentID string
	Status    string
}
