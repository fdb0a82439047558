// Package classify turns raw user-supplied payment strings into typed
// destinations. Classification is lexical, synchronous, and side-effect
// free; it never talks to the wallet engine.
package classify

import (
	"math"
	"strings"

	emberr "github.com/emberwallet/ember/pkg/errors"
)

// Kind identifies the type of a payment destination.
type Kind string

// Destination kinds, in classification priority order.
const (
	KindBolt11Invoice    Kind = "bolt11Invoice"
	KindBitcoinAddress   Kind = "bitcoinAddress"
	KindSparkAddress     Kind = "sparkAddress"
	KindLightningAddress Kind = "lightningAddress"
	KindLNURLPay         Kind = "lnurlPay"
)

// Destination is a classified payment target. Immutable once built.
type Destination struct {
	// Kind is the destination type.
	Kind Kind

	// Raw is the original input, trimmed but otherwise untouched.
	Raw string

	// AmountMsat is the invoice-embedded amount in millisatoshis, if any.
	// Zero means no embedded amount; extraction is best-effort and its
	// absence is never an error.
	AmountMsat int64
}

// AmountSats returns the embedded amount converted to whole satoshis,
// truncating sub-satoshi precision. Zero when no amount is embedded.
func (d Destination) AmountSats() int64 {
	return d.AmountMsat / 1000
}

// HasAmount reports whether the destination carries a positive embedded amount.
func (d Destination) HasAmount() bool {
	return d.AmountMsat > 0
}

// Truncated returns a shortened form of the raw input for display.
func (d Destination) Truncated() string {
	const max = 20
	if len(d.Raw) <= max {
		return d.Raw
	}
	return d.Raw[:max] + "..."
}

// Label returns a human-readable name for the destination kind.
func (d Destination) Label() string {
	switch d.Kind {
	case KindBolt11Invoice:
		return "Lightning Invoice"
	case KindBitcoinAddress:
		return "Bitcoin Address"
	case KindSparkAddress:
		return "Spark Address"
	case KindLightningAddress:
		return "Lightning Address"
	case KindLNURLPay:
		return "LNURL Pay"
	default:
		return "Payment"
	}
}

// Classify maps a raw payment string to a typed Destination.
// Matching is case-insensitive and evaluated in priority order; the first
// match wins. Unrecognized input fails with ErrUnsupportedDestination.
func Classify(raw string) (Destination, error) {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)

	switch {
	case lower == "":
		return Destination{}, emberr.WithSuggestion(
			emberr.ErrUnsupportedDestination,
			"enter a Lightning invoice, Bitcoin address, or Lightning address",
		)

	case strings.HasPrefix(lower, "lnbc") || strings.HasPrefix(lower, "lntb"):
		return Destination{
			Kind:       KindBolt11Invoice,
			Raw:        trimmed,
			AmountMsat: extractBolt11AmountMsat(lower),
		}, nil

	case strings.HasPrefix(lower, "bc1") || strings.HasPrefix(lower, "tb1") || strings.HasPrefix(lower, "bcrt1"):
		return Destination{Kind: KindBitcoinAddress, Raw: trimmed}, nil

	case strings.HasPrefix(lower, "sp1") || strings.HasPrefix(lower, "sprt1"):
		return Destination{Kind: KindSparkAddress, Raw: trimmed}, nil

	case strings.Contains(lower, "@"):
		return Destination{Kind: KindLightningAddress, Raw: trimmed}, nil

	case strings.HasPrefix(lower, "lnurl"):
		return Destination{Kind: KindLNURLPay, Raw: trimmed}, nil

	default:
		return Destination{}, emberr.WithDetails(
			emberr.ErrUnsupportedDestination,
			map[string]string{"input": truncateForError(trimmed)},
		)
	}
}

// truncateForError limits the echoed input in error details.
func truncateForError(s string) string {
	const max = 32
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// Millisatoshis per BIP-173 amount multiplier, relative to one bitcoin.
// 1 BTC = 100_000_000_000 msat.
const msatPerBTC = 100_000_000_000

// extractBolt11AmountMsat parses the optional amount from the
// human-readable part of a BOLT11 invoice: lnbc<amount><multiplier>1...
// where multiplier is one of m (milli), u (micro), n (nano), p (pico).
// Returns 0 when no amount is encoded or the amount is malformed;
// extraction is best-effort by design.
func extractBolt11AmountMsat(lower string) int64 {
	rest := strings.TrimPrefix(strings.TrimPrefix(lower, "lnbc"), "lntb")

	// Collect leading digits.
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0 // no embedded amount
	}

	var amount int64
	for _, c := range rest[:i] {
		d := int64(c - '0')
		if amount > (1<<62)/10 {
			return 0 // overflow, treat as absent
		}
		amount = amount*10 + d
	}

	if i >= len(rest) {
		return 0
	}

	// The multiplier (or the bech32 separator "1" for whole-BTC amounts).
	// Each unit's millisatoshi value is computed up front so the final
	// multiplication can be bound-checked instead of overflowing.
	var msatPerUnit int64
	switch rest[i] {
	case 'm':
		msatPerUnit = msatPerBTC / 1_000
	case 'u':
		msatPerUnit = msatPerBTC / 1_000_000
	case 'n':
		msatPerUnit = msatPerBTC / 1_000_000_000
	case 'p':
		// 10 pico-BTC per millisatoshi; sub-msat remainders truncate.
		return amount / 10
	case '1':
		msatPerUnit = msatPerBTC
	default:
		return 0
	}

	if amount > math.MaxInt64/msatPerUnit {
		return 0 // overflow, treat as absent
	}

	return amount * msatPerUnit
}
