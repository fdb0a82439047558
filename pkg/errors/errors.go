// Package errors provides structured error handling for Ember.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes.
const (
	ExitSuccess    = 0 // Successful execution
	ExitGeneral    = 1 // General/unknown error
	ExitInput      = 2 // Invalid input
	ExitAuth       = 3 // Authentication failed
	ExitNotFound   = 4 // Resource not found
	ExitConnection = 5 // No live engine session
)

// WalletError is the structured error type for Ember.
type WalletError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *WalletError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *WalletError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for WalletError.
func (e *WalletError) Is(target error) bool {
	var t *WalletError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &WalletError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &WalletError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	// Session-specific errors.
	ErrNotConnected = &WalletError{
		Code:     "NOT_CONNECTED",
		Message:  "wallet is not connected",
		ExitCode: ExitConnection,
	}

	ErrConnectFailed = &WalletError{
		Code:     "CONNECT_FAILED",
		Message:  "connecting to the wallet engine failed",
		ExitCode: ExitConnection,
	}

	// Classification errors.
	ErrUnsupportedDestination = &WalletError{
		Code:     "UNSUPPORTED_DESTINATION",
		Message:  "unsupported payment destination",
		ExitCode: ExitInput,
	}

	// Send-flow errors.
	ErrAmountRequired = &WalletError{
		Code:     "AMOUNT_REQUIRED",
		Message:  "amount must be a positive whole number of satoshis",
		ExitCode: ExitInput,
	}

	ErrPrepareFailed = &WalletError{
		Code:     "PREPARE_FAILED",
		Message:  "preparing the payment failed",
		ExitCode: ExitGeneral,
	}

	ErrSendFailed = &WalletError{
		Code:     "SEND_FAILED",
		Message:  "sending the payment failed",
		ExitCode: ExitGeneral,
	}

	ErrFlowState = &WalletError{
		Code:     "FLOW_STATE",
		Message:  "operation not valid in the current step",
		ExitCode: ExitGeneral,
	}

	// Receive-provisioning errors.
	ErrInvalidUsername = &WalletError{
		Code:     "INVALID_USERNAME",
		Message:  "username must be at least 3 characters (letters and digits)",
		ExitCode: ExitInput,
	}

	ErrAliasTaken = &WalletError{
		Code:     "ALIAS_TAKEN",
		Message:  "this username is already taken",
		ExitCode: ExitInput,
	}

	ErrProvisionBusy = &WalletError{
		Code:     "PROVISION_BUSY",
		Message:  "a provisioning request is already in progress",
		ExitCode: ExitGeneral,
	}

	// Recovery-phrase errors.
	ErrInvalidMnemonic = &WalletError{
		Code:     "INVALID_MNEMONIC",
		Message:  "invalid recovery phrase",
		ExitCode: ExitInput,
	}

	ErrChecksumInvalid = &WalletError{
		Code:     "CHECKSUM_INVALID",
		Message:  "recovery phrase failed checksum validation",
		ExitCode: ExitInput,
	}

	ErrPhraseMasked = &WalletError{
		Code:     "PHRASE_MASKED",
		Message:  "recovery phrase must be revealed first",
		ExitCode: ExitInput,
	}

	ErrVerifyMismatch = &WalletError{
		Code:     "VERIFY_MISMATCH",
		Message:  "one or more words do not match",
		ExitCode: ExitInput,
	}

	// Secret-store errors.
	ErrWalletExists = &WalletError{
		Code:     "WALLET_EXISTS",
		Message:  "a wallet secret already exists",
		ExitCode: ExitInput,
	}

	ErrWalletNotFound = &WalletError{
		Code:     "WALLET_NOT_FOUND",
		Message:  "no wallet secret found",
		ExitCode: ExitNotFound,
	}

	ErrDecryptionFailed = &WalletError{
		Code:     "DECRYPTION_FAILED",
		Message:  "decryption failed - wrong password or corrupted file",
		ExitCode: ExitAuth,
	}

	// Engine boundary errors.
	ErrNetworkError = &WalletError{
		Code:     "NETWORK_ERROR",
		Message:  "engine communication failed",
		ExitCode: ExitGeneral,
	}

	ErrUnexpectedResponse = &WalletError{
		Code:     "UNEXPECTED_RESPONSE",
		Message:  "engine returned a response in an unknown shape",
		ExitCode: ExitGeneral,
	}

	// Config-specific errors.
	ErrConfigInvalid = &WalletError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}
)

// New creates a new WalletError with the given code and message.
func New(code, message string) *WalletError {
	return &WalletError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var we *WalletError
	if errors.As(err, &we) {
		return &WalletError{
			Code:       we.Code,
			Message:    fmt.Sprintf("%s: %s", msg, we.Message),
			Details:    we.Details,
			Suggestion: we.Suggestion,
			Cause:      err,
			ExitCode:   we.ExitCode,
		}
	}

	return &WalletError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var we *WalletError
	if errors.As(err, &we) {
		return &WalletError{
			Code:       we.Code,
			Message:    we.Message,
			Details:    details,
			Suggestion: we.Suggestion,
			Cause:      we.Cause,
			ExitCode:   we.ExitCode,
		}
	}

	return &WalletError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var we *WalletError
	if errors.As(err, &we) {
		return &WalletError{
			Code:       we.Code,
			Message:    we.Message,
			Details:    we.Details,
			Suggestion: suggestion,
			Cause:      we.Cause,
			ExitCode:   we.ExitCode,
		}
	}

	return &WalletError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var we *WalletError
	if errors.As(err, &we) {
		return we.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var we *WalletError
	if errors.As(err, &we) {
		return we.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
