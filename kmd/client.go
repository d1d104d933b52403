// Package kmd is a client for the wallet daemon: it finds wallets, opens
// handles on them and asks them to sign transactions with keys they hold.
package kmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/thrylos-labs/sandnet/config"
	"github.com/thrylos-labs/sandnet/shared"
	"github.com/thrylos-labs/sandnet/types"
	"github.com/thrylos-labs/sandnet/utils"
)

const (
	TokenHeader      = "X-KMD-API-Token"
	defaultCacheSize = 64
)

// Client talks to one wallet daemon.
type Client struct {
	endpoint *shared.Endpoint
	wallets  *lru.Cache[string, Wallet]
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.endpoint.HTTPClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.endpoint.HTTPClient.Timeout = d }
}

func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	cache, err := lru.New[string, Wallet](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet cache: %v", err)
	}
	c := &Client{
		endpoint: shared.NewEndpoint("kmd", baseURL, TokenHeader, token, config.DefaultHTTPTimeout),
		wallets:  cache,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func classifyWallet(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return shared.ErrAuthentication
	case http.StatusNotFound:
		return shared.ErrWalletNotFound
	}
	return nil
}

func classifySign(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return shared.ErrAuthentication
	}
	return shared.ErrSigning
}

// ListWallets returns every wallet the daemon manages.
func (c *Client) ListWallets(ctx context.Context) ([]Wallet, error) {
	var resp ListWalletsResponse
	err := c.endpoint.Do(ctx, shared.Request{Method: http.MethodGet, Path: "/v1/wallets"}, classifyWallet, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	return resp.Wallets, nil
}

// FindWallet returns the wallet whose name equals name exactly. Matching is
// case-sensitive; prefixes and substrings do not match.
func (c *Client) FindWallet(ctx context.Context, name string) (Wallet, error) {
	if w, ok := c.wallets.Get(name); ok {
		return w, nil
	}

	wallets, err := c.ListWallets(ctx)
	if err != nil {
		return Wallet{}, err
	}
	for _, w := range wallets {
		c.wallets.Add(w.Name, w)
	}

	w, ok := MatchWallet(wallets, name)
	if !ok {
		return Wallet{}, fmt.Errorf("%w: no wallet named %q", shared.ErrWalletNotFound, name)
	}
	return w, nil
}

// MatchWallet picks the first wallet with exactly the given name.
func MatchWallet(wallets []Wallet, name string) (Wallet, bool) {
	for _, w := range wallets {
		if w.Name == name {
			return w, true
		}
	}
	return Wallet{}, false
}

// InitWalletHandle opens a session on the wallet. The caller must release it.
func (c *Client) InitWalletHandle(ctx context.Context, walletID, password string) (string, error) {
	var resp InitWalletHandleResponse
	req := shared.Request{
		Method:   http.MethodPost,
		Path:     "/v1/wallet/init",
		JSONBody: InitWalletHandleRequest{WalletID: walletID, WalletPassword: password},
	}
	if err := c.endpoint.Do(ctx, req, classifyWallet, &resp); err != nil {
		// a cached id may point at a wallet that was since deleted
		c.wallets.Purge()
		return "", fmt.Errorf("failed to open wallet handle: %w", err)
	}
	if resp.WalletHandleToken == "" {
		return "", fmt.Errorf("%w: wallet daemon returned an empty handle token", shared.ErrServiceUnavailable)
	}
	return resp.WalletHandleToken, nil
}

// ReleaseWalletHandle closes a session.
func (c *Client) ReleaseWalletHandle(ctx context.Context, handle string) error {
	req := shared.Request{
		Method:   http.MethodPost,
		Path:     "/v1/wallet/release",
		JSONBody: WalletHandleRequest{WalletHandleToken: handle},
	}
	if err := c.endpoint.Do(ctx, req, classifyWallet, nil); err != nil {
		return fmt.Errorf("failed to release wallet handle: %w", err)
	}
	return nil
}

// RenewWalletHandle extends a session and reports its new lifetime.
func (c *Client) RenewWalletHandle(ctx context.Context, handle string) (WalletHandle, error) {
	var resp RenewWalletHandleResponse
	req := shared.Request{
		Method:   http.MethodPost,
		Path:     "/v1/wallet/renew",
		JSONBody: WalletHandleRequest{WalletHandleToken: handle},
	}
	if err := c.endpoint.Do(ctx, req, classifyWallet, &resp); err != nil {
		return WalletHandle{}, fmt.Errorf("failed to renew wallet handle: %w", err)
	}
	return resp.WalletHandle, nil
}

// ListKeys returns the addresses whose keys the wallet holds.
func (c *Client) ListKeys(ctx context.Context, handle string) ([]string, error) {
	var resp ListKeysResponse
	req := shared.Request{
		Method:   http.MethodPost,
		Path:     "/v1/key/list",
		JSONBody: WalletHandleRequest{WalletHandleToken: handle},
	}
	if err := c.endpoint.Do(ctx, req, classifyWallet, &resp); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return resp.Addresses, nil
}

// SignTransaction asks the daemon to sign tx with the sender's key and
// returns the msgpack-encoded signed transaction.
func (c *Client) SignTransaction(ctx context.Context, handle, password string, tx types.Transaction) ([]byte, error) {
	var resp SignTransactionResponse
	req := shared.Request{
		Method: http.MethodPost,
		Path:   "/v1/transaction/sign",
		JSONBody: SignTransactionRequest{
			WalletHandleToken: handle,
			WalletPassword:    password,
			Transaction:       tx.Marshal(),
		},
	}
	if err := c.endpoint.Do(ctx, req, classifySign, &resp); err != nil {
		return nil, fmt.Errorf("failed to sign transaction %s: %w", tx.ID(), err)
	}
	if len(resp.SignedTransaction) == 0 {
		return nil, fmt.Errorf("%w: wallet daemon returned no signed transaction", shared.ErrSigning)
	}

	var stx types.SignedTxn
	if err := stx.Unmarshal(resp.SignedTransaction); err != nil {
		return nil, fmt.Errorf("%w: wallet daemon returned an undecodable transaction: %v", shared.ErrSigning, err)
	}
	if stx.ID() != tx.ID() {
		return nil, fmt.Errorf("%w: wallet daemon signed %s, expected %s", shared.ErrSigning, stx.ID(), tx.ID())
	}

	utils.Log.Debugf("kmd signed transaction %s", tx.ID())
	return resp.SignedTransaction, nil
}
