package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	"github.com/emberwallet/ember/internal/config"
	"github.com/emberwallet/ember/internal/engine"
	"github.com/emberwallet/ember/internal/output"
	"github.com/emberwallet/ember/internal/receive"
	"github.com/emberwallet/ember/internal/secret"
	"github.com/emberwallet/ember/internal/session"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// mockEngine is a scriptable Engine for command tests.
type mockEngine struct {
	mu sync.Mutex

	connectErr  error
	info        engine.Info
	infoErr     error
	payments    []engine.Payment
	prepared    engine.Prepared
	prepareErr  error
	outcome     engine.SendOutcome
	sendErr     error
	available   bool
	checkErr    error
	registered  string
	registerErr error
	alias       string
	address     string
	addressErr  error

	connectCalls  int
	registerCalls int
}

func (m *mockEngine) Connect(_ context.Context, _ engine.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectCalls++
	return m.connectErr
}

func (m *mockEngine) Disconnect(_ context.Context) error { return nil }

func (m *mockEngine) GetInfo(_ context.Context) (engine.Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info, m.infoErr
}

func (m *mockEngine) ListPayments(_ context.Context, _, _ int) ([]engine.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments, nil
}

func (m *mockEngine) PrepareSendPayment(_ context.Context, _ engine.PrepareRequest) (engine.Prepared, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prepared, m.prepareErr
}

func (m *mockEngine) SendPayment(_ context.Context, _ engine.Prepared) (engine.SendOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome, m.sendErr
}

func (m *mockEngine) CheckAliasAvailable(_ context.Context, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available, m.checkErr
}

func (m *mockEngine) RegisterAlias(_ context.Context, alias string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registerCalls++
	if m.registerErr != nil {
		return m.registerErr
	}
	m.registered = alias
	return nil
}

func (m *mockEngine) GetAlias(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alias, nil
}

func (m *mockEngine) GenerateOnchainAddress(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.address, m.addressErr
}

// newTestContext wires a CommandContext around the mock engine with a temp
// home directory and installs it as the active command context.
func newTestContext(t *testing.T, eng *mockEngine) *CommandContext {
	t.Helper()

	testCfg := config.Defaults()
	testCfg.Home = t.TempDir()

	mgr := session.NewManager(eng, config.NullLogger())
	cc := &CommandContext{
		Cfg:         testCfg,
		Log:         config.NullLogger(),
		Fmt:         output.NewFormatter(output.FormatText, &bytes.Buffer{}),
		Store:       secret.NewFileStore(testCfg.Home),
		Engine:      eng,
		Session:     mgr,
		Provisioner: receive.NewProvisioner(mgr),
	}

	testCmdContext = cc
	t.Cleanup(func() { testCmdContext = nil })

	return cc
}

// withMockPrompts replaces prompt functions for testing and restores on
// cleanup. Line prompts are answered by lineFn; passwords by the fixed
// password.
func withMockPrompts(t *testing.T, password []byte, lineFn func(prompt string) (string, error)) {
	t.Helper()

	origPW := promptPasswordFn
	origNewPW := promptNewPasswordFn
	origLine := promptLineFn
	t.Cleanup(func() {
		promptPasswordFn = origPW
		promptNewPasswordFn = origNewPW
		promptLineFn = origLine
	})

	promptPasswordFn = func(_ string) ([]byte, error) {
		cp := make([]byte, len(password))
		copy(cp, password)
		return cp, nil
	}
	promptNewPasswordFn = func() ([]byte, error) {
		cp := make([]byte, len(password))
		copy(cp, password)
		return cp, nil
	}
	if lineFn != nil {
		promptLineFn = lineFn
	}
}

// scriptedLines answers line prompts from a fixed queue.
func scriptedLines(lines ...string) func(string) (string, error) {
	i := 0
	return func(_ string) (string, error) {
		if i >= len(lines) {
			return "", nil
		}
		line := lines[i]
		i++
		return line, nil
	}
}

// newTestCmd builds a bare command whose output is captured in the buffer.
func newTestCmd(buf *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetContext(context.Background())
	return cmd
}
