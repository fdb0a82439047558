package phrase

import (
	"crypto/rand"
	"math/big"
	"strings"
	"sync"

	"github.com/awnumar/memguard"

	emberr "github.com/emberwallet/ember/pkg/errors"
)

// VerifyCount is how many word positions a user must confirm before a new
// phrase may activate a wallet.
const VerifyCount = 4

// Ceremony drives the creation flow for a new recovery phrase. The phrase
// starts masked; it must be revealed, then spot-checked at randomly chosen
// positions, before Mnemonic releases it for activation. The plaintext
// lives in a memguard enclave between steps.
type Ceremony struct {
	mu        sync.Mutex
	enclave   *memguard.Enclave
	words     int
	revealed  bool
	positions []int
	verified  bool
	destroyed bool
}

// NewCeremony generates a fresh 12-word phrase and returns the ceremony
// guarding it.
func NewCeremony() (*Ceremony, error) {
	return NewCeremonyWords(WordCount)
}

// NewCeremonyWords is NewCeremony with an explicit word count (12 or 24).
func NewCeremonyWords(wordCount int) (*Ceremony, error) {
	mnemonic, err := Generate(wordCount)
	if err != nil {
		return nil, err
	}

	enclave := memguard.NewEnclave([]byte(mnemonic))
	return &Ceremony{enclave: enclave, words: wordCount}, nil
}

// Revealed reports whether the phrase has been shown to the user.
func (c *Ceremony) Revealed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revealed
}

// Verified reports whether the spot check has passed.
func (c *Ceremony) Verified() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verified
}

// Reveal unmasks the phrase and returns its words. Until this is called
// the ceremony refuses to hand out positions or the phrase itself.
func (c *Ceremony) Reveal() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	words, err := c.wordsLocked()
	if err != nil {
		return nil, err
	}

	c.revealed = true
	return words, nil
}

// VerificationPositions returns the word positions (1-based) the user must
// confirm. Positions are chosen once, with crypto/rand, all distinct. The
// expected words are never part of the return value.
func (c *Ceremony) VerificationPositions() ([]int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.revealed {
		return nil, emberr.ErrPhraseMasked
	}

	if c.positions == nil {
		positions, err := randomPositions(VerifyCount, c.words)
		if err != nil {
			return nil, err
		}
		c.positions = positions
	}

	out := make([]int, len(c.positions))
	copy(out, c.positions)
	return out, nil
}

// Verify checks the user's answers against the chosen positions. The
// result maps each position to whether the answer matched; the expected
// words are never disclosed. All answers correct marks the ceremony
// verified; any miss returns ErrVerifyMismatch alongside the per-position
// results so the caller can flag exactly which entries to retry.
func (c *Ceremony) Verify(answers map[int]string) (map[int]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.revealed {
		return nil, emberr.ErrPhraseMasked
	}
	if c.positions == nil {
		return nil, emberr.ErrPhraseMasked
	}

	words, err := c.wordsLocked()
	if err != nil {
		return nil, err
	}

	results := make(map[int]bool, len(c.positions))
	allCorrect := true
	for _, pos := range c.positions {
		expected := words[pos-1]
		got := strings.ToLower(strings.TrimSpace(answers[pos]))
		ok := got == expected
		results[pos] = ok
		if !ok {
			allCorrect = false
		}
	}

	if !allCorrect {
		return results, emberr.ErrVerifyMismatch
	}

	c.verified = true
	return results, nil
}

// Mnemonic releases the phrase for wallet activation. It requires a passed
// spot check and re-runs the full BIP39 checksum validation as the final
// gate.
func (c *Ceremony) Mnemonic() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.verified {
		return "", emberr.ErrVerifyMismatch
	}

	buf, err := c.openLocked()
	if err != nil {
		return "", err
	}
	defer buf.Destroy()

	mnemonic := string(buf.Bytes())
	if err := Validate(mnemonic); err != nil {
		return "", err
	}

	return mnemonic, nil
}

// Destroy wipes the guarded phrase. The ceremony is unusable afterwards.
func (c *Ceremony) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyed = true
	c.enclave = nil
}

// wordsLocked opens the enclave and splits the phrase. Caller holds c.mu.
func (c *Ceremony) wordsLocked() ([]string, error) {
	buf, err := c.openLocked()
	if err != nil {
		return nil, err
	}
	defer buf.Destroy()

	return strings.Fields(string(buf.Bytes())), nil
}

// openLocked opens the enclave. Caller holds c.mu.
func (c *Ceremony) openLocked() (*memguard.LockedBuffer, error) {
	if c.destroyed || c.enclave == nil {
		return nil, emberr.ErrPhraseMasked
	}

	// Enclaves are immutable; Open decrypts into a fresh locked buffer
	// and the enclave stays usable for later steps.
	buf, err := c.enclave.Open()
	if err != nil {
		return nil, emberr.Wrap(emberr.ErrGeneral, "opening phrase enclave")
	}

	return buf, nil
}

// randomPositions picks count distinct 1-based positions in [1, max].
func randomPositions(count, max int) ([]int, error) {
	chosen := make(map[int]struct{}, count)
	positions := make([]int, 0, count)

	for len(positions) < count {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
		if err != nil {
			return nil, err
		}

		pos := int(n.Int64()) + 1
		if _, dup := chosen[pos]; dup {
			continue
		}
		chosen[pos] = struct{}{}
		positions = append(positions, pos)
	}

	return positions, nil
}
