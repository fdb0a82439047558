// Package session manages the wallet's engine session: connection
// lifecycle, the connected-capability gate, and the periodic balance and
// payment refresh. All engine-touching reads degrade gracefully; lifecycle
// and payment operations never do.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/emberwallet/ember/internal/config"
	"github.com/emberwallet/ember/internal/engine"
	emberr "github.com/emberwallet/ember/pkg/errors"
)

// Snapshot is one consistent view of wallet state for display. A Warning
// is set when a read failed and its field degraded to a zero value.
type Snapshot struct {
	Info     engine.Info
	Payments []engine.Payment
	Taken    time.Time
	Warning  string
}

// Manager owns the engine session. Safe for concurrent use.
type Manager struct {
	mu        sync.Mutex
	eng       engine.Engine
	logger    *config.Logger
	connected bool
}

// NewManager creates a session manager over the given engine.
func NewManager(eng engine.Engine, logger *config.Logger) *Manager {
	if logger == nil {
		logger = config.NullLogger()
	}
	return &Manager{eng: eng, logger: logger}
}

// Connected reports whether an engine session is established.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Init establishes the engine session. Calling Init while connected is a
// no-op; concurrent calls collapse to a single connection attempt. On
// failure the manager stays disconnected and the error propagates.
func (m *Manager) Init(ctx context.Context, creds engine.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		m.logger.Debug("engine already connected")
		return nil
	}

	if err := m.eng.Connect(ctx, creds); err != nil {
		return emberr.Wrap(err, "initializing wallet session")
	}

	m.connected = true
	m.logger.Debug("engine session established")
	return nil
}

// Reconnect re-establishes a session after a restart. Identical contract
// to Init; connecting while connected remains a no-op.
func (m *Manager) Reconnect(ctx context.Context, creds engine.Credentials) error {
	return m.Init(ctx, creds)
}

// Disconnect tears down the engine session. The engine call is best
// effort; local session state clears unconditionally so a wedged engine
// can never trap the wallet in a connected state.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.eng.Disconnect(ctx); err != nil {
		m.logger.Warn("engine disconnect failed: %v", err)
	}

	m.connected = false
	m.logger.Debug("session cleared")
	return nil
}

// requireConnected gates wallet-touching operations.
func (m *Manager) requireConnected() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return emberr.WithSuggestion(emberr.ErrNotConnected,
			"run 'ember wallet status' to check the wallet, or create one with 'ember wallet create'")
	}
	return nil
}

// Info returns current balances. Requires a connected session.
func (m *Manager) Info(ctx context.Context) (engine.Info, error) {
	if err := m.requireConnected(); err != nil {
		return engine.Info{}, err
	}
	return m.eng.GetInfo(ctx)
}

// Payments returns up to limit payments starting at offset, most recent
// first. Requires a connected session.
func (m *Manager) Payments(ctx context.Context, limit, offset int) ([]engine.Payment, error) {
	if err := m.requireConnected(); err != nil {
		return nil, err
	}
	return m.eng.ListPayments(ctx, limit, offset)
}

// Refresh fetches a display snapshot. Read failures degrade: the failing
// field zeroes out, the snapshot carries a warning, and no error is
// returned. Only a missing session is an error.
func (m *Manager) Refresh(ctx context.Context, paymentLimit int) (Snapshot, error) {
	if err := m.requireConnected(); err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{Taken: time.Now().UTC()}

	info, err := m.eng.GetInfo(ctx)
	if err != nil {
		m.logger.Warn("info refresh failed: %v", err)
		snap.Warning = "balance unavailable"
	} else {
		snap.Info = info
	}

	payments, err := m.eng.ListPayments(ctx, paymentLimit, 0)
	if err != nil {
		m.logger.Warn("payment refresh failed: %v", err)
		snap.Payments = []engine.Payment{}
		if snap.Warning != "" {
			snap.Warning = "wallet data unavailable"
		} else {
			snap.Warning = "payments unavailable"
		}
	} else {
		snap.Payments = payments
	}

	return snap, nil
}

// Prepare prices a payment. Requires a connected session; errors propagate
// untouched so the send flow can surface them.
func (m *Manager) Prepare(ctx context.Context, req engine.PrepareRequest) (engine.Prepared, error) {
	if err := m.requireConnected(); err != nil {
		return engine.Prepared{}, err
	}
	return m.eng.PrepareSendPayment(ctx, req)
}

// Send executes a prepared payment. Requires a connected session; errors
// propagate untouched and the payment is never retried here.
func (m *Manager) Send(ctx context.Context, prepared engine.Prepared) (engine.SendOutcome, error) {
	if err := m.requireConnected(); err != nil {
		return engine.SendOutcome{}, err
	}
	return m.eng.SendPayment(ctx, prepared)
}

// CheckAliasAvailable reports whether a lightning address alias is free.
func (m *Manager) CheckAliasAvailable(ctx context.Context, alias string) (bool, error) {
	if err := m.requireConnected(); err != nil {
		return false, err
	}
	return m.eng.CheckAliasAvailable(ctx, alias)
}

// RegisterAlias claims a lightning address alias.
func (m *Manager) RegisterAlias(ctx context.Context, alias string) error {
	if err := m.requireConnected(); err != nil {
		return err
	}
	return m.eng.RegisterAlias(ctx, alias)
}

// Alias returns the registered lightning address, empty when none.
func (m *Manager) Alias(ctx context.Context) (string, error) {
	if err := m.requireConnected(); err != nil {
		return "", err
	}
	return m.eng.GetAlias(ctx)
}

// OnchainAddress returns a fresh on-chain receive address.
func (m *Manager) OnchainAddress(ctx context.Context) (string, error) {
	if err := m.requireConnected(); err != nil {
		return "", err
	}
	return m.eng.GenerateOnchainAddress(ctx)
}

// RunRefresher delivers a snapshot immediately and then on every tick
// until the context is canceled. Cancellation is the only way the loop
// ends; the ticker stops deterministically with it.
func (m *Manager) RunRefresher(ctx context.Context, interval time.Duration, paymentLimit int, onUpdate func(Snapshot)) error {
	if interval <= 0 {
		interval = time.Duration(config.DefaultRefreshSeconds) * time.Second
	}

	deliver := func() {
		snap, err := m.Refresh(ctx, paymentLimit)
		if err != nil {
			m.logger.Warn("refresh skipped: %v", err)
			return
		}
		onUpdate(snap)
	}

	deliver()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			deliver()
		}
	}
}
