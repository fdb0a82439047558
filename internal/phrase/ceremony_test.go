package phrase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberwallet/ember/internal/phrase"
	emberr "github.com/emberwallet/ember/pkg/errors"
)

func TestCeremonyHappyPath(t *testing.T) {
	t.Parallel()

	c, err := phrase.NewCeremony()
	require.NoError(t, err)
	defer c.Destroy()

	assert.False(t, c.Revealed())
	assert.False(t, c.Verified())

	words, err := c.Reveal()
	require.NoError(t, err)
	require.Len(t, words, phrase.WordCount)
	assert.True(t, c.Revealed())

	positions, err := c.VerificationPositions()
	require.NoError(t, err)
	require.Len(t, positions, phrase.VerifyCount)

	// Positions are 1-based and distinct.
	seen := map[int]bool{}
	for _, pos := range positions {
		assert.GreaterOrEqual(t, pos, 1)
		assert.LessOrEqual(t, pos, phrase.WordCount)
		assert.False(t, seen[pos])
		seen[pos] = true
	}

	answers := map[int]string{}
	for _, pos := range positions {
		answers[pos] = words[pos-1]
	}

	results, err := c.Verify(answers)
	require.NoError(t, err)
	for _, pos := range positions {
		assert.True(t, results[pos])
	}
	assert.True(t, c.Verified())

	mnemonic, err := c.Mnemonic()
	require.NoError(t, err)
	require.NoError(t, phrase.Validate(mnemonic))
}

func TestCeremonyPositionsRequireReveal(t *testing.T) {
	t.Parallel()

	c, err := phrase.NewCeremony()
	require.NoError(t, err)
	defer c.Destroy()

	_, err = c.VerificationPositions()
	require.Error(t, err)
	assert.True(t, emberr.Is(err, emberr.ErrPhraseMasked))
}

func TestCeremonyPositionsStable(t *testing.T) {
	t.Parallel()

	c, err := phrase.NewCeremony()
	require.NoError(t, err)
	defer c.Destroy()

	_, err = c.Reveal()
	require.NoError(t, err)

	first, err := c.VerificationPositions()
	require.NoError(t, err)
	second, err := c.VerificationPositions()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCeremonyVerifyMismatch(t *testing.T) {
	t.Parallel()

	c, err := phrase.NewCeremony()
	require.NoError(t, err)
	defer c.Destroy()

	words, err := c.Reveal()
	require.NoError(t, err)

	positions, err := c.VerificationPositions()
	require.NoError(t, err)

	// One wrong answer, rest correct.
	answers := map[int]string{}
	for i, pos := range positions {
		if i == 0 {
			answers[pos] = "definitely-wrong"
		} else {
			answers[pos] = words[pos-1]
		}
	}

	results, err := c.Verify(answers)
	require.Error(t, err)
	assert.True(t, emberr.Is(err, emberr.ErrVerifyMismatch))
	assert.False(t, results[positions[0]])
	for _, pos := range positions[1:] {
		assert.True(t, results[pos])
	}
	assert.False(t, c.Verified())

	// Retry with all answers correct succeeds.
	answers[positions[0]] = words[positions[0]-1]
	_, err = c.Verify(answers)
	require.NoError(t, err)
	assert.True(t, c.Verified())
}

func TestCeremonyVerifyToleratesCaseAndSpace(t *testing.T) {
	t.Parallel()

	c, err := phrase.NewCeremony()
	require.NoError(t, err)
	defer c.Destroy()

	words, err := c.Reveal()
	require.NoError(t, err)

	positions, err := c.VerificationPositions()
	require.NoError(t, err)

	answers := map[int]string{}
	for _, pos := range positions {
		answers[pos] = "  " + words[pos-1] + " "
	}
	answers[positions[0]] = "  " + words[positions[0]-1] + " "

	_, err = c.Verify(answers)
	require.NoError(t, err)
}

func TestCeremonyMnemonicRequiresVerification(t *testing.T) {
	t.Parallel()

	c, err := phrase.NewCeremony()
	require.NoError(t, err)
	defer c.Destroy()

	_, err = c.Mnemonic()
	require.Error(t, err)
	assert.True(t, emberr.Is(err, emberr.ErrVerifyMismatch))

	_, err = c.Reveal()
	require.NoError(t, err)

	// Revealed but not verified is still not enough.
	_, err = c.Mnemonic()
	require.Error(t, err)
}

func TestCeremonyDestroy(t *testing.T) {
	t.Parallel()

	c, err := phrase.NewCeremony()
	require.NoError(t, err)

	c.Destroy()

	_, err = c.Reveal()
	require.Error(t, err)
	assert.True(t, emberr.Is(err, emberr.ErrPhraseMasked))
}
