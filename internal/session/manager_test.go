package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberwallet/ember/internal/engine"
	"github.com/emberwallet/ember/internal/session"
	emberr "github.com/emberwallet/ember/pkg/errors"
)

// mockEngine implements engine.Engine with overridable behavior.
type mockEngine struct {
	mu sync.Mutex

	connectCalls    int
	disconnectCalls int

	connectErr    error
	disconnectErr error

	info    engine.Info
	infoErr error

	payments    []engine.Payment
	paymentsErr error

	prepared   engine.Prepared
	prepareErr error

	outcome engine.SendOutcome
	sendErr error

	aliasAvailable bool
	registerErr    error
	alias          string
	address        string
}

func (m *mockEngine) Connect(_ context.Context, _ engine.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectCalls++
	return m.connectErr
}

func (m *mockEngine) Disconnect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnectCalls++
	return m.disconnectErr
}

func (m *mockEngine) GetInfo(_ context.Context) (engine.Info, error) {
	return m.info, m.infoErr
}

func (m *mockEngine) ListPayments(_ context.Context, _, _ int) ([]engine.Payment, error) {
	return m.payments, m.paymentsErr
}

func (m *mockEngine) PrepareSendPayment(_ context.Context, _ engine.PrepareRequest) (engine.Prepared, error) {
	return m.prepared, m.prepareErr
}

func (m *mockEngine) SendPayment(_ context.Context, _ engine.Prepared) (engine.SendOutcome, error) {
	return m.outcome, m.sendErr
}

func (m *mockEngine) CheckAliasAvailable(_ context.Context, _ string) (bool, error) {
	return m.aliasAvailable, nil
}

func (m *mockEngine) RegisterAlias(_ context.Context, alias string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registerErr != nil {
		return m.registerErr
	}
	m.alias = alias
	return nil
}

func (m *mockEngine) GetAlias(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alias, nil
}

func (m *mockEngine) GenerateOnchainAddress(_ context.Context) (string, error) {
	return m.address, nil
}

func (m *mockEngine) calls() (connect, disconnect int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectCalls, m.disconnectCalls
}

func newManager(eng engine.Engine) *session.Manager {
	return session.NewManager(eng, nil)
}

func TestInitConnects(t *testing.T) {
	t.Parallel()
	eng := &mockEngine{}
	mgr := newManager(eng)

	require.NoError(t, mgr.Init(context.Background(), engine.Credentials{}))
	assert.True(t, mgr.Connected())

	connects, _ := eng.calls()
	assert.Equal(t, 1, connects)
}

func TestInitWhileConnectedIsNoOp(t *testing.T) {
	t.Parallel()
	eng := &mockEngine{}
	mgr := newManager(eng)

	require.NoError(t, mgr.Init(context.Background(), engine.Credentials{}))
	require.NoError(t, mgr.Init(context.Background(), engine.Credentials{}))
	require.NoError(t, mgr.Reconnect(context.Background(), engine.Credentials{}))

	connects, _ := eng.calls()
	assert.Equal(t, 1, connects, "repeat init must not reconnect")
}

func TestInitFailureStaysDisconnected(t *testing.T) {
	t.Parallel()
	eng := &mockEngine{connectErr: emberr.Wrap(emberr.ErrConnectFailed, "engine down")}
	mgr := newManager(eng)

	err := mgr.Init(context.Background(), engine.Credentials{})
	require.Error(t, err)
	assert.True(t, emberr.Is(err, emberr.ErrConnectFailed))
	assert.False(t, mgr.Connected())

	// A later attempt is allowed and tries again.
	eng.connectErr = nil
	require.NoError(t, mgr.Init(context.Background(), engine.Credentials{}))
	assert.True(t, mgr.Connected())

	connects, _ := eng.calls()
	assert.Equal(t, 2, connects)
}

func TestInitPreservesEngineError(t *testing.T) {
	t.Parallel()
	engErr := emberr.Wrap(emberr.ErrConnectFailed, "engine said: invalid api key (status 401)")
	eng := &mockEngine{connectErr: engErr}
	mgr := newManager(eng)

	err := mgr.Init(context.Background(), engine.Credentials{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engErr))
	assert.True(t, emberr.Is(err, emberr.ErrConnectFailed))
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestDisconnectClearsStateEvenOnEngineError(t *testing.T) {
	t.Parallel()
	eng := &mockEngine{disconnectErr: errors.New("engine wedged")}
	mgr := newManager(eng)

	require.NoError(t, mgr.Init(context.Background(), engine.Credentials{}))
	require.NoError(t, mgr.Disconnect(context.Background()))
	assert.False(t, mgr.Connected())
}

func TestDisconnectWhileDisconnected(t *testing.T) {
	t.Parallel()
	mgr := newManager(&mockEngine{})

	require.NoError(t, mgr.Disconnect(context.Background()))
	assert.False(t, mgr.Connected())
}

func TestOperationsGatedWhenDisconnected(t *testing.T) {
	t.Parallel()
	mgr := newManager(&mockEngine{})
	ctx := context.Background()

	_, err := mgr.Info(ctx)
	assert.True(t, emberr.Is(err, emberr.ErrNotConnected))

	_, err = mgr.Payments(ctx, 10, 0)
	assert.True(t, emberr.Is(err, emberr.ErrNotConnected))

	_, err = mgr.Refresh(ctx, 10)
	assert.True(t, emberr.Is(err, emberr.ErrNotConnected))

	_, err = mgr.Prepare(ctx, engine.PrepareRequest{})
	assert.True(t, emberr.Is(err, emberr.ErrNotConnected))

	_, err = mgr.Send(ctx, engine.Prepared{Token: "x"})
	assert.True(t, emberr.Is(err, emberr.ErrNotConnected))

	_, err = mgr.CheckAliasAvailable(ctx, "alice")
	assert.True(t, emberr.Is(err, emberr.ErrNotConnected))

	err = mgr.RegisterAlias(ctx, "alice")
	assert.True(t, emberr.Is(err, emberr.ErrNotConnected))

	_, err = mgr.Alias(ctx)
	assert.True(t, emberr.Is(err, emberr.ErrNotConnected))

	_, err = mgr.OnchainAddress(ctx)
	assert.True(t, emberr.Is(err, emberr.ErrNotConnected))
}

func TestRefreshHappyPath(t *testing.T) {
	t.Parallel()
	eng := &mockEngine{
		info: engine.Info{BalanceSat: 5000},
		payments: []engine.Payment{
			{ID: "p1", Kind: engine.PaymentReceive, AmountSat: 5000},
		},
	}
	mgr := newManager(eng)
	require.NoError(t, mgr.Init(context.Background(), engine.Credentials{}))

	snap, err := mgr.Refresh(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), snap.Info.BalanceSat)
	assert.Len(t, snap.Payments, 1)
	assert.Empty(t, snap.Warning)
	assert.False(t, snap.Taken.IsZero())
}

func TestRefreshDegradesOnInfoError(t *testing.T) {
	t.Parallel()
	eng := &mockEngine{
		infoErr:  errors.New("info endpoint down"),
		payments: []engine.Payment{{ID: "p1"}},
	}
	mgr := newManager(eng)
	require.NoError(t, mgr.Init(context.Background(), engine.Credentials{}))

	snap, err := mgr.Refresh(context.Background(), 10)
	require.NoError(t, err, "read errors must not propagate")
	assert.Equal(t, engine.Info{}, snap.Info)
	assert.Len(t, snap.Payments, 1)
	assert.Equal(t, "balance unavailable", snap.Warning)
}

func TestRefreshDegradesOnPaymentsError(t *testing.T) {
	t.Parallel()
	eng := &mockEngine{
		info:        engine.Info{BalanceSat: 100},
		paymentsErr: errors.New("payments endpoint down"),
	}
	mgr := newManager(eng)
	require.NoError(t, mgr.Init(context.Background(), engine.Credentials{}))

	snap, err := mgr.Refresh(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(100), snap.Info.BalanceSat)
	assert.NotNil(t, snap.Payments)
	assert.Empty(t, snap.Payments)
	assert.Equal(t, "payments unavailable", snap.Warning)
}

func TestRefreshDegradesOnBothErrors(t *testing.T) {
	t.Parallel()
	eng := &mockEngine{
		infoErr:     errors.New("down"),
		paymentsErr: errors.New("down"),
	}
	mgr := newManager(eng)
	require.NoError(t, mgr.Init(context.Background(), engine.Credentials{}))

	snap, err := mgr.Refresh(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "wallet data unavailable", snap.Warning)
}

func TestPrepareAndSendPropagateErrors(t *testing.T) {
	t.Parallel()
	eng := &mockEngine{
		prepareErr: emberr.ErrPrepareFailed,
		sendErr:    emberr.ErrSendFailed,
	}
	mgr := newManager(eng)
	require.NoError(t, mgr.Init(context.Background(), engine.Credentials{}))

	_, err := mgr.Prepare(context.Background(), engine.PrepareRequest{})
	assert.True(t, emberr.Is(err, emberr.ErrPrepareFailed))

	_, err = mgr.Send(context.Background(), engine.Prepared{Token: "x"})
	assert.True(t, emberr.Is(err, emberr.ErrSendFailed))
}

func TestRunRefresherDeliversAndCancels(t *testing.T) {
	t.Parallel()
	eng := &mockEngine{info: engine.Info{BalanceSat: 7}}
	mgr := newManager(eng)
	require.NoError(t, mgr.Init(context.Background(), engine.Credentials{}))

	var updates atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- mgr.RunRefresher(ctx, 10*time.Millisecond, 5, func(snap session.Snapshot) {
			assert.Equal(t, int64(7), snap.Info.BalanceSat)
			updates.Add(1)
		})
	}()

	// Wait for the immediate delivery plus at least one tick.
	require.Eventually(t, func() bool {
		return updates.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not stop on cancellation")
	}
}

func TestRunRefresherStopsWhenDisconnected(t *testing.T) {
	t.Parallel()
	mgr := newManager(&mockEngine{})

	ctx, cancel := context.WithCancel(context.Background())

	var updates atomic.Int64
	done := make(chan error, 1)
	go func() {
		done <- mgr.RunRefresher(ctx, 10*time.Millisecond, 5, func(session.Snapshot) {
			updates.Add(1)
		})
	}()

	// Disconnected sessions deliver nothing but the loop keeps waiting
	// for its context, so cancellation still works.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not stop on cancellation")
	}
	assert.Zero(t, updates.Load())
}
