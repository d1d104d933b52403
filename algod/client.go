// Package algod is a client for the ledger node: it reads suggested
// transaction parameters, broadcasts signed transactions and follows them
// until they are confirmed.
package algod

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/thrylos-labs/sandnet/config"
	"github.com/thrylos-labs/sandnet/crypto/hash"
	"github.com/thrylos-labs/sandnet/shared"
	"github.com/thrylos-labs/sandnet/types"
	"github.com/thrylos-labs/sandnet/utils"
	"golang.org/x/time/rate"
)

const TokenHeader = "X-Algo-API-Token"

// ErrNotConfirmed is returned by WaitForConfirmation when the round budget runs out.
var ErrNotConfirmed = errors.New("transaction not confirmed")

// Client talks to one ledger node.
type Client struct {
	endpoint *shared.Endpoint
	limiter  *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.endpoint.HTTPClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.endpoint.HTTPClient.Timeout = d }
}

// WithRateLimit paces requests to rps per second; rps <= 0 disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		endpoint: shared.NewEndpoint("algod", baseURL, TokenHeader, token, config.DefaultHTTPTimeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL identifies the node this client talks to.
func (c *Client) BaseURL() string {
	return c.endpoint.BaseURL
}

func classifyBroadcast(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return shared.ErrAuthentication
	}
	return shared.ErrRejectedByNetwork
}

func classifyRead(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return shared.ErrAuthentication
	}
	return nil
}

func (c *Client) do(ctx context.Context, r shared.Request, classify shared.Classifier, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
		}
	}
	return c.endpoint.Do(ctx, r, classify, out)
}

// SuggestedParams fetches the parameters needed to build a transaction.
func (c *Client) SuggestedParams(ctx context.Context) (types.SuggestedParams, error) {
	var params types.SuggestedParams
	err := c.do(ctx, shared.Request{Method: http.MethodGet, Path: "/v2/transactions/params"}, classifyRead, &params)
	if err != nil {
		return types.SuggestedParams{}, fmt.Errorf("failed to fetch transaction params: %w", err)
	}
	if _, err := params.GenesisDigest(); err != nil {
		return types.SuggestedParams{}, fmt.Errorf("%w: node returned %v", shared.ErrServiceUnavailable, err)
	}
	return params, nil
}

// Status returns the node's view of the ledger.
func (c *Client) Status(ctx context.Context) (types.NodeStatus, error) {
	var status types.NodeStatus
	if err := c.do(ctx, shared.Request{Method: http.MethodGet, Path: "/v2/status"}, classifyRead, &status); err != nil {
		return types.NodeStatus{}, fmt.Errorf("failed to fetch node status: %w", err)
	}
	return status, nil
}

// StatusAfterBlock blocks until the node has seen a round after round.
func (c *Client) StatusAfterBlock(ctx context.Context, round types.Round) (types.NodeStatus, error) {
	var status types.NodeStatus
	path := fmt.Sprintf("/v2/status/wait-for-block-after/%d", round)
	if err := c.do(ctx, shared.Request{Method: http.MethodGet, Path: path}, classifyRead, &status); err != nil {
		return types.NodeStatus{}, fmt.Errorf("failed waiting for round after %d: %w", round, err)
	}
	return status, nil
}

// SendRawTransaction broadcasts msgpack-encoded signed transaction bytes and
// returns the id the node assigned.
func (c *Client) SendRawTransaction(ctx context.Context, signed []byte) (string, error) {
	var resp types.TransactionID
	req := shared.Request{
		Method:      http.MethodPost,
		Path:        "/v2/transactions",
		Body:        signed,
		ContentType: "application/x-binary",
	}
	if err := c.do(ctx, req, classifyBroadcast, &resp); err != nil {
		return "", fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	if _, err := hash.FromString(resp.TxID); err != nil {
		return "", fmt.Errorf("%w: node accepted the transaction but returned id %q: %v", shared.ErrServiceUnavailable, resp.TxID, err)
	}
	return resp.TxID, nil
}

// PendingTransactionInformation reports the pool or ledger state of txid.
func (c *Client) PendingTransactionInformation(ctx context.Context, txid string) (types.PendingTransaction, error) {
	var info types.PendingTransaction
	path := "/v2/transactions/pending/" + url.PathEscape(txid)
	if err := c.do(ctx, shared.Request{Method: http.MethodGet, Path: path}, classifyRead, &info); err != nil {
		return types.PendingTransaction{}, fmt.Errorf("failed to fetch pending transaction %s: %w", txid, err)
	}
	return info, nil
}

// WaitForConfirmation polls until txid is confirmed, the pool rejects it, or
// `rounds` rounds have passed.
func (c *Client) WaitForConfirmation(ctx context.Context, txid string, rounds uint64) (types.PendingTransaction, error) {
	status, err := c.Status(ctx)
	if err != nil {
		return types.PendingTransaction{}, err
	}
	start := status.LastRound
	current := start

	for {
		info, err := c.PendingTransactionInformation(ctx, txid)
		if err != nil {
			return types.PendingTransaction{}, err
		}
		if info.ConfirmedRound > 0 {
			utils.Log.Debugf("transaction %s confirmed in round %d", txid, info.ConfirmedRound)
			return info, nil
		}
		if info.PoolError != "" {
			return info, fmt.Errorf("%w: transaction %s dropped from pool: %s", shared.ErrRejectedByNetwork, txid, info.PoolError)
		}
		if uint64(current-start) >= rounds {
			return info, fmt.Errorf("%w: %s still pending after %d rounds", ErrNotConfirmed, txid, rounds)
		}

		status, err = c.StatusAfterBlock(ctx, current)
		if err != nil {
			return types.PendingTransaction{}, err
		}
		if status.LastRound > current {
			current = status.LastRound
		} else {
			current++
		}
	}
}
