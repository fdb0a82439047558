package phrase_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberwallet/ember/internal/phrase"
	emberr "github.com/emberwallet/ember/pkg/errors"
)

const validMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestGenerate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wordCount int
	}{
		{wordCount: 12},
		{wordCount: 24},
	}

	for _, tt := range tests {
		t.Run("words", func(t *testing.T) {
			t.Parallel()

			mnemonic, err := phrase.Generate(tt.wordCount)
			require.NoError(t, err)
			assert.Len(t, strings.Fields(mnemonic), tt.wordCount)
			require.NoError(t, phrase.Validate(mnemonic))
		})
	}
}

func TestGenerateInvalidWordCount(t *testing.T) {
	t.Parallel()

	for _, count := range []int{0, 6, 15, 18, 48} {
		_, err := phrase.Generate(count)
		require.Error(t, err)
		assert.True(t, emberr.Is(err, emberr.ErrInvalidMnemonic))
	}
}

func TestGenerateUnique(t *testing.T) {
	t.Parallel()

	a, err := phrase.Generate(12)
	require.NoError(t, err)
	b, err := phrase.Generate(12)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, phrase.Validate(validMnemonic))

	// Normalization applies before validation.
	messy := "1. Abandon\n2. abandon\n3. abandon\n4. abandon\n5. abandon\n6. abandon\n" +
		"7. abandon\n8. abandon\n9. abandon\n10. abandon\n11. abandon\n12. about"
	require.NoError(t, phrase.Validate(messy))
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{name: "empty", input: "", want: emberr.ErrInvalidMnemonic},
		{name: "wrong word count", input: "abandon abandon abandon", want: emberr.ErrInvalidMnemonic},
		{
			name: "bad checksum",
			// Valid words, wrong final word for the checksum.
			input: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon",
			want:  emberr.ErrChecksumInvalid,
		},
		{
			name:  "unknown word",
			input: "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon zzzzzz",
			want:  emberr.ErrChecksumInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := phrase.Validate(tt.input)
			require.Error(t, err)
			assert.True(t, emberr.Is(err, tt.want))
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercase", input: "ABANDON About", want: "abandon about"},
		{name: "numbered list", input: "1. abandon 2) about", want: "abandon 2) about"},
		{name: "bullets", input: "- abandon\n- about", want: "abandon about"},
		{name: "commas", input: "abandon,about", want: "abandon about"},
		{name: "collapse whitespace", input: "  abandon \t about \n", want: "abandon about"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, phrase.Normalize(tt.input))
		})
	}
}

func TestWords(t *testing.T) {
	t.Parallel()

	words := phrase.Words(validMnemonic)
	require.Len(t, words, 12)
	assert.Equal(t, "about", words[11])
}

func TestSuggestWord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "abandon", want: "abandon"}, // exact
		{input: "abandn", want: "abandon"},  // one deletion
		{input: "Abuot", want: "about"},     // transposition, case-insensitive
		{input: "zzzzzzzz", want: ""},       // nothing close
	}

	for _, tt := range tests {
		t.Run("suggest "+tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, phrase.SuggestWord(tt.input))
		})
	}
}

func TestDetectTypos(t *testing.T) {
	t.Parallel()

	typos := phrase.DetectTypos("abandon abuot abandon")
	require.Len(t, typos, 1)
	assert.Equal(t, 1, typos[0].Index)
	assert.Equal(t, "abuot", typos[0].Word)
	assert.Equal(t, "about", typos[0].Suggestion)

	assert.Nil(t, phrase.DetectTypos(validMnemonic))
	assert.Nil(t, phrase.DetectTypos(""))
}

func TestFormatTypoSuggestions(t *testing.T) {
	t.Parallel()

	out := phrase.FormatTypoSuggestions([]phrase.TypoInfo{
		{Index: 1, Word: "abuot", Suggestion: "about", Distance: 2},
		{Index: 4, Word: "zzz", Suggestion: "", Distance: 0},
	})

	assert.Contains(t, out, "Word 2: 'abuot' - did you mean 'about'?")
	assert.Contains(t, out, "Word 5: 'zzz' is not a valid BIP39 word")

	assert.Empty(t, phrase.FormatTypoSuggestions(nil))
}
