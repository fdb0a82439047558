package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberwallet/ember/internal/engine"
	"github.com/emberwallet/ember/internal/session"
	emberr "github.com/emberwallet/ember/pkg/errors"
)

func TestDashboardShowsBalanceAndPayments(t *testing.T) {
	eng := &mockEngine{
		info: engine.Info{BalanceSat: 123456, PendingReceiveSat: 1000},
		payments: []engine.Payment{
			{
				ID:          "pay-1",
				Kind:        engine.PaymentReceive,
				Status:      "complete",
				AmountSat:   1000,
				Timestamp:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
				Description: "coffee refund",
			},
			{
				ID:        "pay-2",
				Kind:      engine.PaymentSend,
				Status:    "complete",
				AmountSat: 500,
				Timestamp: time.Date(2025, 5, 30, 9, 0, 0, 0, time.UTC),
			},
		},
	}
	cc := newTestContext(t, eng)
	require.NoError(t, cc.Store.Save(testMnemonic, "mainnet", []byte("correct horse battery")))
	withMockPrompts(t, []byte("correct horse battery"), nil)

	var buf bytes.Buffer
	require.NoError(t, runDashboard(newTestCmd(&buf), nil))

	assert.Contains(t, buf.String(), "Balance: 123,456 sats")
	assert.Contains(t, buf.String(), "Incoming: 1,000 sats")
	assert.Contains(t, buf.String(), "+1,000 sats")
	assert.Contains(t, buf.String(), "-500 sats")
	assert.Contains(t, buf.String(), "coffee refund")
}

func TestDashboardDegradesWithWarning(t *testing.T) {
	eng := &mockEngine{infoErr: emberr.ErrNetworkError}
	cc := newTestContext(t, eng)
	require.NoError(t, cc.Store.Save(testMnemonic, "mainnet", []byte("correct horse battery")))
	withMockPrompts(t, []byte("correct horse battery"), nil)

	var buf bytes.Buffer
	require.NoError(t, runDashboard(newTestCmd(&buf), nil))

	assert.Contains(t, buf.String(), "Warning: balance unavailable")
}

func TestDashboardTrimsToRecentCount(t *testing.T) {
	payments := make([]engine.Payment, 25)
	for i := range payments {
		payments[i] = engine.Payment{ID: "pay", Kind: engine.PaymentReceive, AmountSat: 1}
	}
	eng := &mockEngine{payments: payments}
	cc := newTestContext(t, eng)
	cc.Cfg.Payments.RecentCount = 3
	require.NoError(t, cc.Store.Save(testMnemonic, "mainnet", []byte("correct horse battery")))
	withMockPrompts(t, []byte("correct horse battery"), nil)

	var buf bytes.Buffer
	require.NoError(t, runDashboard(newTestCmd(&buf), nil))
	assert.Equal(t, 3, bytes.Count(buf.Bytes(), []byte("+1 sats")))
}

func TestRenderSnapshotEmpty(t *testing.T) {
	cc := newTestContext(t, &mockEngine{})

	var buf bytes.Buffer
	cmd := newTestCmd(&buf)

	require.NoError(t, renderSnapshot(cmd, cc, session.Snapshot{Taken: time.Now()}))
	assert.Contains(t, buf.String(), "No payments yet")
}
