package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberwallet/ember/internal/engine"
	emberr "github.com/emberwallet/ember/pkg/errors"
)

// setSendFlags sets the send command flags for one test.
func setSendFlags(t *testing.T, amount int64, yes bool) {
	t.Helper()
	origAmount, origYes := sendAmount, sendYes
	t.Cleanup(func() { sendAmount, sendYes = origAmount, origYes })
	sendAmount, sendYes = amount, yes
}

func TestSendToAddressNonInteractive(t *testing.T) {
	eng := &mockEngine{
		prepared: engine.Prepared{Token: "tok-1", AmountSat: 21000, FeeSat: 42},
		outcome:  engine.SendOutcome{PaymentID: "pay-1", Status: "complete"},
	}
	cc := newTestContext(t, eng)
	require.NoError(t, cc.Store.Save(testMnemonic, "mainnet", []byte("correct horse battery")))
	withMockPrompts(t, []byte("correct horse battery"), nil)
	setSendFlags(t, 21000, true)

	var buf bytes.Buffer
	cmd := newTestCmd(&buf)

	require.NoError(t, runSend(cmd, []string{"bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh"}))

	assert.Contains(t, buf.String(), "Bitcoin Address")
	assert.Contains(t, buf.String(), "21,000 sats")
	assert.Contains(t, buf.String(), "Payment sent: pay-1 (complete)")
}

func TestSendInvoiceSkipsAmountPrompt(t *testing.T) {
	eng := &mockEngine{
		prepared: engine.Prepared{Token: "tok-2", AmountSat: 50000, FeeSat: 10},
		outcome:  engine.SendOutcome{PaymentID: "pay-2", Status: "complete"},
	}
	cc := newTestContext(t, eng)
	require.NoError(t, cc.Store.Save(testMnemonic, "mainnet", []byte("correct horse battery")))

	// Any line prompt would fail the test; none should fire with --yes and
	// an amount-bearing invoice.
	withMockPrompts(t, []byte("correct horse battery"), func(prompt string) (string, error) {
		t.Fatalf("unexpected prompt: %q", prompt)
		return "", nil
	})
	setSendFlags(t, 0, true)

	var buf bytes.Buffer
	require.NoError(t, runSend(newTestCmd(&buf), []string{"lnbc500u1pj9x7abc"}))

	assert.Contains(t, buf.String(), "Invoice amount: 50,000 sats")
	assert.Contains(t, buf.String(), "Payment sent: pay-2")
}

func TestSendDeclinedAtConfirmation(t *testing.T) {
	eng := &mockEngine{
		prepared: engine.Prepared{Token: "tok-3", AmountSat: 1000, FeeSat: 1},
	}
	cc := newTestContext(t, eng)
	require.NoError(t, cc.Store.Save(testMnemonic, "mainnet", []byte("correct horse battery")))
	withMockPrompts(t, []byte("correct horse battery"), scriptedLines("n"))
	setSendFlags(t, 1000, false)

	var buf bytes.Buffer
	require.NoError(t, runSend(newTestCmd(&buf), []string{"satoshi@emberwallet.dev"}))

	assert.Contains(t, buf.String(), "Nothing was sent")
	assert.Empty(t, eng.outcome.PaymentID)
}

func TestSendUnsupportedDestination(t *testing.T) {
	cc := newTestContext(t, &mockEngine{})
	require.NoError(t, cc.Store.Save(testMnemonic, "mainnet", []byte("correct horse battery")))
	withMockPrompts(t, []byte("correct horse battery"), nil)
	setSendFlags(t, 0, true)

	err := runSend(newTestCmd(&bytes.Buffer{}), []string{"what is this"})
	require.ErrorIs(t, err, emberr.ErrUnsupportedDestination)
}

func TestSendPrepareFailure(t *testing.T) {
	eng := &mockEngine{prepareErr: emberr.ErrPrepareFailed}
	cc := newTestContext(t, eng)
	require.NoError(t, cc.Store.Save(testMnemonic, "mainnet", []byte("correct horse battery")))
	withMockPrompts(t, []byte("correct horse battery"), nil)
	setSendFlags(t, 5000, true)

	err := runSend(newTestCmd(&bytes.Buffer{}), []string{"satoshi@emberwallet.dev"})
	require.ErrorIs(t, err, emberr.ErrPrepareFailed)
}

func TestSendExecuteFailure(t *testing.T) {
	eng := &mockEngine{
		prepared: engine.Prepared{Token: "tok-4", AmountSat: 1000, FeeSat: 1},
		sendErr:  emberr.ErrSendFailed,
	}
	cc := newTestContext(t, eng)
	require.NoError(t, cc.Store.Save(testMnemonic, "mainnet", []byte("correct horse battery")))
	withMockPrompts(t, []byte("correct horse battery"), nil)
	setSendFlags(t, 1000, true)

	err := runSend(newTestCmd(&bytes.Buffer{}), []string{"satoshi@emberwallet.dev"})
	require.ErrorIs(t, err, emberr.ErrSendFailed)
}
