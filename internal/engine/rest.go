package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/emberwallet/ember/internal/config"
	emberr "github.com/emberwallet/ember/pkg/errors"
)

const (
	// defaultTimeout is the default HTTP request timeout.
	defaultTimeout = 30 * time.Second

	// defaultRateRPS is the default request rate toward the engine.
	defaultRateRPS = 4

	// defaultBurst is the default burst size for the rate limiter.
	defaultBurst = 8

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 1 << 20
)

// ClientOptions contains optional configuration for the REST client.
type ClientOptions struct {
	// BaseURL overrides the default engine URL.
	BaseURL string

	// APIKey authenticates requests to the engine service.
	APIKey string

	// Timeout overrides the default HTTP timeout.
	Timeout time.Duration

	// RateLimitRPS overrides the default request rate.
	RateLimitRPS float64

	// Logger receives request traces. Nil means no logging.
	Logger *config.Logger
}

// Client is the HTTP implementation of Engine.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *RateLimiter
	logger     *config.Logger
}

// interface guard
var _ Engine = (*Client)(nil)

// NewClient creates a new engine REST client.
func NewClient(opts *ClientOptions) *Client {
	c := &Client{
		baseURL: config.DefaultEngineURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: NewRateLimiter(defaultRateRPS, defaultBurst),
		logger:  config.NullLogger(),
	}

	if opts != nil {
		c.applyOptions(opts)
	}

	return c
}

// applyOptions applies optional configuration.
func (c *Client) applyOptions(opts *ClientOptions) {
	if opts.BaseURL != "" {
		c.baseURL = opts.BaseURL
	}
	if opts.APIKey != "" {
		c.apiKey = opts.APIKey
	}
	if opts.Timeout > 0 {
		c.httpClient.Timeout = opts.Timeout
	}
	if opts.RateLimitRPS > 0 {
		c.limiter = NewRateLimiter(opts.RateLimitRPS, defaultBurst)
	}
	if opts.Logger != nil {
		c.logger = opts.Logger
	}
}

// Connect establishes an engine session.
func (c *Client) Connect(ctx context.Context, creds Credentials) error {
	payload := map[string]string{
		"mnemonic": creds.Mnemonic,
		"apiKey":   creds.APIKey,
		"network":  creds.Network,
	}

	body, status, err := c.do(ctx, http.MethodPost, "/v1/session/connect", payload)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return emberr.WithDetails(
			emberr.Wrap(emberr.ErrConnectFailed, "%s", serverMessage(body, status)),
			map[string]string{"status": strconv.Itoa(status)},
		)
	}

	return nil
}

// Disconnect tears down the engine session. A missing session is not an
// error.
func (c *Client) Disconnect(ctx context.Context) error {
	body, status, err := c.do(ctx, http.MethodPost, "/v1/session/disconnect", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNotFound {
		return emberr.WithDetails(
			emberr.Wrap(emberr.ErrNetworkError, "%s", serverMessage(body, status)),
			map[string]string{"status": strconv.Itoa(status)},
		)
	}

	return nil
}

// GetInfo returns current balances.
func (c *Client) GetInfo(ctx context.Context) (Info, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/v1/info", nil)
	if err != nil {
		return Info{}, err
	}
	if status != http.StatusOK {
		return Info{}, statusError(body, status)
	}

	var info Info
	if err := json.Unmarshal(body, &info); err != nil {
		return Info{}, emberr.Wrap(emberr.ErrUnexpectedResponse, "decoding info")
	}

	return info, nil
}

// ListPayments returns up to limit payments starting at offset, most
// recent first.
func (c *Client) ListPayments(ctx context.Context, limit, offset int) ([]Payment, error) {
	path := "/v1/payments"
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	body, status, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError(body, status)
	}

	return normalizePayments(body)
}

// PrepareSendPayment asks the engine to price a payment.
func (c *Client) PrepareSendPayment(ctx context.Context, req PrepareRequest) (Prepared, error) {
	payload := map[string]any{
		"destination": req.Destination,
		"kind":        req.Kind,
	}
	if req.AmountSat > 0 {
		payload["amountSat"] = req.AmountSat
	}

	body, status, err := c.do(ctx, http.MethodPost, "/v1/payments/prepare", payload)
	if err != nil {
		return Prepared{}, err
	}
	if status != http.StatusOK {
		return Prepared{}, emberr.WithDetails(
			emberr.Wrap(emberr.ErrPrepareFailed, "%s", serverMessage(body, status)),
			map[string]string{"status": strconv.Itoa(status)},
		)
	}

	root := gjson.ParseBytes(body)
	prepared := Prepared{
		Token:     firstString(root, "token", "prepareId"),
		AmountSat: firstInt(root, "amountSat", "amount"),
		FeeSat:    firstInt(root, "feeSat", "fee"),
	}
	if prepared.Token == "" {
		return Prepared{}, emberr.WithDetails(emberr.ErrUnexpectedResponse,
			map[string]string{"reason": "prepare response missing token"})
	}

	return prepared, nil
}

// SendPayment executes a prepared payment.
func (c *Client) SendPayment(ctx context.Context, prepared Prepared) (SendOutcome, error) {
	payload := map[string]any{"token": prepared.Token}

	body, status, err := c.do(ctx, http.MethodPost, "/v1/payments/send", payload)
	if err != nil {
		return SendOutcome{}, err
	}
	if status != http.StatusOK {
		return SendOutcome{}, emberr.WithDetails(
			emberr.Wrap(emberr.ErrSendFailed, "%s", serverMessage(body, status)),
			map[string]string{"status": strconv.Itoa(status)},
		)
	}

	root := gjson.ParseBytes(body)
	return SendOutcome{
		PaymentID: firstString(root, "paymentId", "id"),
		Status:    root.Get("status").String(),
	}, nil
}

// CheckAliasAvailable reports whether an alias is free. Engines that do not
// support alias availability checks report the alias as available; the
// registration call remains the authority.
func (c *Client) CheckAliasAvailable(ctx context.Context, alias string) (bool, error) {
	path := "/v1/alias/available?name=" + url.QueryEscape(alias)

	body, status, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}
	if status == http.StatusNotFound || status == http.StatusNotImplemented {
		return true, nil
	}
	if status != http.StatusOK {
		return false, statusError(body, status)
	}

	root := gjson.ParseBytes(body)
	if v := root.Get("isAvailable"); v.Exists() {
		return v.Bool(), nil
	}
	if root.Type == gjson.True || root.Type == gjson.False {
		return root.Bool(), nil
	}

	// Unknown shape from an engine that answered 200: treat as available
	// and let registration decide.
	return true, nil
}

// RegisterAlias claims an alias for this wallet.
func (c *Client) RegisterAlias(ctx context.Context, alias string) error {
	payload := map[string]string{"alias": alias}

	body, status, err := c.do(ctx, http.MethodPost, "/v1/alias", payload)
	if err != nil {
		return err
	}
	if status == http.StatusConflict {
		return emberr.WithDetails(emberr.ErrAliasTaken,
			map[string]string{"alias": alias})
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return emberr.WithDetails(
			emberr.Wrap(emberr.ErrNetworkError, "%s", serverMessage(body, status)),
			map[string]string{"status": strconv.Itoa(status)},
		)
	}

	return nil
}

// GetAlias returns the wallet's registered alias, empty when none exists.
func (c *Client) GetAlias(ctx context.Context) (string, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/v1/alias", nil)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		return "", nil
	}
	if status != http.StatusOK {
		return "", statusError(body, status)
	}

	return normalizeAlias(body)
}

// GenerateOnchainAddress returns a fresh on-chain receive address.
func (c *Client) GenerateOnchainAddress(ctx context.Context) (string, error) {
	body, status, err := c.do(ctx, http.MethodPost, "/v1/onchain/address", nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return "", statusError(body, status)
	}

	return normalizeAddress(body)
}

// do performs one rate-limited request and returns the response body and
// status. Transport failures are wrapped as network errors.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx, path); err != nil {
		return nil, 0, fmt.Errorf("rate limit wait: %w", err)
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Debug("engine request %s %s id=%s", method, path, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", emberr.ErrNetworkError, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: reading response: %w", emberr.ErrNetworkError, err)
	}

	c.logger.Debug("engine response %s %s status=%d id=%s", method, path, resp.StatusCode, requestID)

	return body, resp.StatusCode, nil
}

// statusError maps a non-OK engine response to a wallet error.
func statusError(body []byte, status int) error {
	return emberr.WithDetails(
		emberr.Wrap(emberr.ErrNetworkError, "%s", serverMessage(body, status)),
		map[string]string{"status": strconv.Itoa(status)},
	)
}

// serverMessage extracts a human-readable message from an error body.
func serverMessage(body []byte, status int) string {
	root := gjson.ParseBytes(body)
	for _, key := range []string{"message", "error", "detail"} {
		if v := root.Get(key); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return fmt.Sprintf("engine returned status %d", status)
}
