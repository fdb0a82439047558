package engine

import (
	"time"

	"github.com/tidwall/gjson"

	emberr "github.com/emberwallet/ember/pkg/errors"
)

// Engine deployments have shipped payment lists in three shapes: a bare
// array, an object with a "payments" array, and an object with a "data"
// array. All three normalize to the same slice; anything else is an
// explicit failure rather than a silent empty result.

// normalizePayments decodes a payment list response body.
func normalizePayments(body []byte) ([]Payment, error) {
	if !gjson.ValidBytes(body) {
		return nil, emberr.WithDetails(emberr.ErrUnexpectedResponse,
			map[string]string{"reason": "invalid json"})
	}

	root := gjson.ParseBytes(body)

	var list gjson.Result
	switch {
	case root.IsArray():
		list = root
	case root.Get("payments").IsArray():
		list = root.Get("payments")
	case root.Get("data").IsArray():
		list = root.Get("data")
	default:
		return nil, emberr.WithDetails(emberr.ErrUnexpectedResponse,
			map[string]string{"reason": "unrecognized payment list shape"})
	}

	payments := make([]Payment, 0, len(list.Array()))
	for _, item := range list.Array() {
		payments = append(payments, normalizePayment(item))
	}

	return payments, nil
}

// normalizePayment decodes a single payment object, tolerating the field
// aliases seen across engine versions.
func normalizePayment(item gjson.Result) Payment {
	p := Payment{
		ID:          firstString(item, "id", "paymentId", "txId"),
		Status:      item.Get("status").String(),
		AmountSat:   firstInt(item, "amountSat", "amount"),
		FeeSat:      firstInt(item, "feeSat", "fee"),
		Description: item.Get("description").String(),
		Destination: item.Get("destination").String(),
	}

	switch item.Get("paymentType").String() {
	case "receive", "received":
		p.Kind = PaymentReceive
	default:
		p.Kind = PaymentSend
	}

	if ts := item.Get("timestamp").Int(); ts > 0 {
		p.Timestamp = time.Unix(ts, 0).UTC()
	}

	return p
}

// normalizeAlias decodes an alias response: a bare JSON string, or an
// object carrying "alias" or "lightningAddress". An empty result means no
// alias is registered.
func normalizeAlias(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", emberr.WithDetails(emberr.ErrUnexpectedResponse,
			map[string]string{"reason": "invalid json"})
	}

	root := gjson.ParseBytes(body)

	if root.Type == gjson.String {
		return root.String(), nil
	}

	if root.IsObject() {
		if v := root.Get("alias"); v.Exists() {
			return v.String(), nil
		}
		if v := root.Get("lightningAddress"); v.Exists() {
			return v.String(), nil
		}
	}

	if root.Type == gjson.Null {
		return "", nil
	}

	return "", emberr.WithDetails(emberr.ErrUnexpectedResponse,
		map[string]string{"reason": "unrecognized alias shape"})
}

// normalizeAddress decodes an on-chain address response: a bare string or
// an object carrying "address" or "paymentRequest".
func normalizeAddress(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", emberr.WithDetails(emberr.ErrUnexpectedResponse,
			map[string]string{"reason": "invalid json"})
	}

	root := gjson.ParseBytes(body)

	if root.Type == gjson.String && root.String() != "" {
		return root.String(), nil
	}

	for _, key := range []string{"address", "paymentRequest"} {
		if addr := root.Get(key).String(); addr != "" {
			return addr, nil
		}
	}

	return "", emberr.WithDetails(emberr.ErrUnexpectedResponse,
		map[string]string{"reason": "missing address"})
}

// firstString returns the first present key's string value.
func firstString(item gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := item.Get(k); v.Exists() {
			return v.String()
		}
	}
	return ""
}

// firstInt returns the first present key's integer value.
func firstInt(item gjson.Result, keys ...string) int64 {
	for _, k := range keys {
		if v := item.Get(k); v.Exists() {
			return v.Int()
		}
	}
	return 0
}
