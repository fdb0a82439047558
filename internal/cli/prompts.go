package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/emberwallet/ember/internal/phrase"
	emberr "github.com/emberwallet/ember/pkg/errors"
)

// Prompt functions are indirected through variables so tests can stub them.
//
//nolint:gochecknoglobals // test seam for interactive prompts
var (
	promptPasswordFn    = promptPassword
	promptNewPasswordFn = promptNewPassword
	promptLineFn        = promptLine
)

// promptPassword prompts for a password with hidden input.
// The caller is responsible for zeroing the returned bytes after use.
func promptPassword(prompt string) ([]byte, error) {
	out(os.Stderr, "%s", prompt)

	password, err := term.ReadPassword(syscall.Stdin)
	outln(os.Stderr) // Add newline after hidden input

	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	return password, nil
}

// promptNewPassword prompts for a new password with confirmation.
// The caller is responsible for zeroing the returned bytes after use.
func promptNewPassword() ([]byte, error) {
	password, err := promptPasswordFn("Enter encryption password: ")
	if err != nil {
		return nil, err
	}

	if len(password) < 8 {
		zeroBytes(password)
		return nil, emberr.WithSuggestion(
			emberr.ErrInvalidInput,
			"password must be at least 8 characters",
		)
	}

	confirm, err := promptPasswordFn("Confirm password: ")
	if err != nil {
		zeroBytes(password)
		return nil, err
	}
	defer zeroBytes(confirm)

	if string(password) != string(confirm) {
		zeroBytes(password)
		return nil, emberr.WithSuggestion(
			emberr.ErrInvalidInput,
			"passwords do not match",
		)
	}

	return password, nil
}

// promptLine reads one line of input from stdin.
func promptLine(prompt string) (string, error) {
	out(os.Stderr, "%s", prompt)

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}

	return strings.TrimSpace(line), nil
}

// promptConfirm asks a yes/no question and returns true on yes.
func promptConfirm(prompt string) bool {
	response, err := promptLineFn(prompt + " [y/N]: ")
	if err != nil {
		return false
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// promptAmountSats prompts for a payment amount in satoshis.
func promptAmountSats() (int64, error) {
	response, err := promptLineFn("Amount (sats): ")
	if err != nil {
		return 0, err
	}

	sats, err := strconv.ParseInt(strings.ReplaceAll(response, ",", ""), 10, 64)
	if err != nil {
		return 0, emberr.WithSuggestion(
			emberr.ErrAmountRequired,
			"enter a whole number of satoshis, e.g. 21000",
		)
	}

	return sats, nil
}

// promptMnemonic prompts for a recovery phrase, normalizing pasted input and
// suggesting corrections for likely typos before giving up.
func promptMnemonic() (string, error) {
	outln(os.Stderr, "Enter your recovery phrase (all words on one line):")

	line, err := promptLineFn("> ")
	if err != nil {
		return "", err
	}

	mnemonic := phrase.Normalize(line)
	if err := phrase.Validate(mnemonic); err != nil {
		if typos := phrase.DetectTypos(mnemonic); len(typos) > 0 {
			return "", emberr.WithSuggestion(err, phrase.FormatTypoSuggestions(typos))
		}
		return "", err
	}

	return mnemonic, nil
}

// zeroBytes overwrites the slice with zeros.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
