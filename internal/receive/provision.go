// Package receive provisions the wallet's receive surfaces: a lightning
// address alias and an on-chain bitcoin address. Aliases normalize before
// anything touches the engine; on-chain addresses are generated once per
// receive session and cached.
package receive

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	emberr "github.com/emberwallet/ember/pkg/errors"
)

// minAliasLength is the shortest alias the engine will accept.
const minAliasLength = 3

// suggestionCount is how many alternatives a taken alias produces.
const suggestionCount = 4

// Provider is the slice of the session manager the provisioner needs.
type Provider interface {
	CheckAliasAvailable(ctx context.Context, alias string) (bool, error)
	RegisterAlias(ctx context.Context, alias string) error
	Alias(ctx context.Context) (string, error)
	OnchainAddress(ctx context.Context) (string, error)
}

// Registration is the outcome of an alias registration attempt. When the
// alias was taken, Suggestions carries alternatives and the error is
// ErrAliasTaken.
type Registration struct {
	Alias       string
	Suggestions []string
}

// Provisioner drives receive provisioning for one wallet session.
type Provisioner struct {
	mu          sync.Mutex
	provider    Provider
	aliasBusy   bool
	addressBusy bool
	address     string
}

// NewProvisioner creates a provisioner over the given provider.
func NewProvisioner(provider Provider) *Provisioner {
	return &Provisioner{provider: provider}
}

// NormalizeAlias lowercases the input and strips everything outside
// [a-z0-9].
func NormalizeAlias(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RegisterAlias normalizes, checks, and registers an alias, then re-fetches
// the canonical form from the engine. A taken alias returns ErrAliasTaken
// with exactly four suggestions. Concurrent registrations are rejected.
func (p *Provisioner) RegisterAlias(ctx context.Context, raw string) (Registration, error) {
	p.mu.Lock()
	if p.aliasBusy {
		p.mu.Unlock()
		return Registration{}, emberr.ErrProvisionBusy
	}
	p.aliasBusy = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.aliasBusy = false
		p.mu.Unlock()
	}()

	clean := NormalizeAlias(raw)
	if len(clean) < minAliasLength {
		return Registration{}, emberr.WithSuggestion(emberr.ErrInvalidUsername,
			"usernames need at least 3 letters or digits")
	}

	// A failed availability check is not a verdict; registration below
	// remains the authority.
	available, err := p.provider.CheckAliasAvailable(ctx, clean)
	if err != nil {
		available = true
	}
	if !available {
		return Registration{Suggestions: Suggestions(clean)}, emberr.WithDetails(
			emberr.ErrAliasTaken, map[string]string{"alias": clean})
	}

	if err := p.provider.RegisterAlias(ctx, clean); err != nil {
		if isTakenError(err) {
			return Registration{Suggestions: Suggestions(clean)}, emberr.WithDetails(
				emberr.ErrAliasTaken, map[string]string{"alias": clean})
		}
		return Registration{}, err
	}

	// Re-fetch so the caller sees the engine's canonical form.
	canonical, err := p.provider.Alias(ctx)
	if err != nil || canonical == "" {
		canonical = clean
	}

	return Registration{Alias: canonical}, nil
}

// LightningAddress returns the registered alias, empty when none exists.
func (p *Provisioner) LightningAddress(ctx context.Context) (string, error) {
	return p.provider.Alias(ctx)
}

// OnchainAddress returns the session's receive address, generating it on
// first use and caching it for the rest of the session. A concurrent
// generation attempt is rejected rather than producing a second address.
func (p *Provisioner) OnchainAddress(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.address != "" {
		addr := p.address
		p.mu.Unlock()
		return addr, nil
	}
	if p.addressBusy {
		p.mu.Unlock()
		return "", emberr.ErrProvisionBusy
	}
	p.addressBusy = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.addressBusy = false
		p.mu.Unlock()
	}()

	addr, err := p.provider.OnchainAddress(ctx)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.address = addr
	p.mu.Unlock()

	return addr, nil
}

// ResetSession drops the cached on-chain address so the next receive
// session generates a fresh one.
func (p *Provisioner) ResetSession() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.address = ""
}

// Suggestions produces exactly four alternatives for a taken alias.
func Suggestions(base string) []string {
	return []string{
		base + randomDigits(),
		base + "_btc",
		base + "_ln",
		base + "_" + strconv.Itoa(time.Now().Year()),
	}
}

// randomDigits returns a short random numeric suffix.
func randomDigits() string {
	n, err := rand.Int(rand.Reader, big.NewInt(90))
	if err != nil {
		return "99"
	}
	return strconv.FormatInt(n.Int64()+10, 10)
}

// isTakenError matches engine errors that mean the alias is in use.
func isTakenError(err error) bool {
	if emberr.Is(err, emberr.ErrAliasTaken) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "taken")
}
