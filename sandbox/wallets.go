// Package sandbox runs in-process stand-ins for the wallet daemon and the
// ledger node. Both speak the same HTTP contract as the real services so the
// kmd and algod clients can be exercised end to end.
package sandbox

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/thrylos-labs/sandnet/crypto"
	"github.com/thrylos-labs/sandnet/crypto/address"
	"github.com/thrylos-labs/sandnet/kmd"
	"github.com/thrylos-labs/sandnet/shared"
	"github.com/thrylos-labs/sandnet/types"
	"github.com/thrylos-labs/sandnet/utils"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultHandleTTL = 60 * time.Second
	walletDriver     = "sqlite"
)

var (
	errBadHandle     = errors.New("invalid or expired wallet handle token")
	errBadPassword   = errors.New("wrong password")
	errUnknownKey    = errors.New("key does not exist in this wallet")
	errUnknownWallet = errors.New("wallet not found")
)

type wallet struct {
	id           string
	name         string
	passwordHash []byte
	mnemonic     string
	next         uint32
	accounts     map[address.Address]crypto.Account
}

// Wallets is a wallet daemon double.
type Wallets struct {
	mu         sync.Mutex
	apiToken   string
	signingKey []byte
	handleTTL  time.Duration
	cost       int
	wallets    map[string]*wallet
	released   map[string]bool
	signed     int
	router     *mux.Router
}

type WalletsOption func(*Wallets)

// WithHandleTTL sets how long a handle token stays valid.
func WithHandleTTL(d time.Duration) WalletsOption {
	return func(w *Wallets) { w.handleTTL = d }
}

// WithPasswordCost sets the bcrypt cost of stored wallet passwords.
func WithPasswordCost(cost int) WalletsOption {
	return func(w *Wallets) { w.cost = cost }
}

func NewWallets(apiToken string, opts ...WalletsOption) (*Wallets, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate handle signing key: %v", err)
	}
	w := &Wallets{
		apiToken:   apiToken,
		signingKey: key,
		handleTTL:  DefaultHandleTTL,
		cost:       bcrypt.DefaultCost,
		wallets:    make(map[string]*wallet),
		released:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.router = w.setupRoutes()
	return w, nil
}

// CreateWallet adds a wallet with a fresh mnemonic and returns its id.
func (w *Wallets) CreateWallet(name, password string) (string, error) {
	mnemonic, err := crypto.NewMnemonic()
	if err != nil {
		return "", err
	}
	return w.RestoreWallet(name, password, mnemonic)
}

// RestoreWallet adds a wallet whose keys derive from mnemonic.
func (w *Wallets) RestoreWallet(name, password, mnemonic string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), w.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash wallet password: %v", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, existing := range w.wallets {
		if existing.name == name {
			return "", fmt.Errorf("wallet %q already exists", name)
		}
	}
	id := uuid.NewString()
	w.wallets[id] = &wallet{
		id:           id,
		name:         name,
		passwordHash: hashed,
		mnemonic:     mnemonic,
		accounts:     make(map[address.Address]crypto.Account),
	}
	return id, nil
}

// GenerateKey derives the wallet's next account.
func (w *Wallets) GenerateKey(walletID string) (crypto.Account, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	wl, ok := w.wallets[walletID]
	if !ok {
		return crypto.Account{}, errUnknownWallet
	}
	acct, err := crypto.AccountFromMnemonic(wl.mnemonic, wl.next)
	if err != nil {
		return crypto.Account{}, err
	}
	wl.next++
	wl.accounts[acct.Address] = acct
	return acct, nil
}

// SignedCount is the number of transactions signed so far.
func (w *Wallets) SignedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.signed
}

func (w *Wallets) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	w.router.ServeHTTP(rw, r)
}

func (w *Wallets) setupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger("kmd"), tokenAuth(kmd.TokenHeader, w.apiToken))

	r.HandleFunc("/v1/wallets", w.handleListWallets).Methods("GET")
	r.HandleFunc("/v1/wallet/init", w.handleInitWallet).Methods("POST")
	r.HandleFunc("/v1/wallet/release", w.handleReleaseWallet).Methods("POST")
	r.HandleFunc("/v1/wallet/renew", w.handleRenewWallet).Methods("POST")
	r.HandleFunc("/v1/key/list", w.handleListKeys).Methods("POST")
	r.HandleFunc("/v1/transaction/sign", w.handleSignTransaction).Methods("POST")
	return r
}

type handleClaims struct {
	WalletID string `json:"wid"`
	jwt.RegisteredClaims
}

func (w *Wallets) issueHandle(walletID string) (string, error) {
	now := time.Now()
	claims := handleClaims{
		WalletID: walletID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(w.handleTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(w.signingKey)
}

// openHandle resolves a handle token to its wallet. The caller holds w.mu.
func (w *Wallets) openHandle(token string) (*wallet, *handleClaims, error) {
	claims := &handleClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return w.signingKey, nil
	})
	if err != nil {
		return nil, nil, errBadHandle
	}
	if w.released[claims.ID] {
		return nil, nil, errBadHandle
	}
	wl, ok := w.wallets[claims.WalletID]
	if !ok {
		return nil, nil, errBadHandle
	}
	return wl, claims, nil
}

func publicWallet(wl *wallet) kmd.Wallet {
	return kmd.Wallet{
		ID:                    wl.id,
		Name:                  wl.name,
		DriverName:            walletDriver,
		DriverVersion:         1,
		MnemonicUX:            false,
		SupportedTransactions: []string{string(types.PaymentTx), string(types.AssetConfigTx)},
	}
}

func (w *Wallets) handleListWallets(rw http.ResponseWriter, r *http.Request) {
	w.mu.Lock()
	list := make([]kmd.Wallet, 0, len(w.wallets))
	for _, wl := range w.wallets {
		list = append(list, publicWallet(wl))
	}
	w.mu.Unlock()

	sort.Slice(list, func(a, b int) bool { return list[a].Name < list[b].Name })
	shared.WriteJSON(rw, http.StatusOK, kmd.ListWalletsResponse{Wallets: list})
}

func (w *Wallets) handleInitWallet(rw http.ResponseWriter, r *http.Request) {
	var req kmd.InitWalletHandleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.SendErrorResponse(rw, "malformed request: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.mu.Lock()
	wl, ok := w.wallets[req.WalletID]
	w.mu.Unlock()
	if !ok {
		shared.SendErrorResponse(rw, errUnknownWallet.Error(), http.StatusNotFound)
		return
	}
	if bcrypt.CompareHashAndPassword(wl.passwordHash, []byte(req.WalletPassword)) != nil {
		shared.SendErrorResponse(rw, errBadPassword.Error(), http.StatusUnauthorized)
		return
	}

	token, err := w.issueHandle(wl.id)
	if err != nil {
		shared.SendErrorResponse(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	shared.WriteJSON(rw, http.StatusOK, kmd.InitWalletHandleResponse{WalletHandleToken: token})
}

func (w *Wallets) handleReleaseWallet(rw http.ResponseWriter, r *http.Request) {
	var req kmd.WalletHandleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.SendErrorResponse(rw, "malformed request: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, claims, err := w.openHandle(req.WalletHandleToken)
	if err != nil {
		shared.SendErrorResponse(rw, err.Error(), http.StatusUnauthorized)
		return
	}
	w.released[claims.ID] = true
	shared.WriteJSON(rw, http.StatusOK, struct{}{})
}

func (w *Wallets) handleRenewWallet(rw http.ResponseWriter, r *http.Request) {
	var req kmd.WalletHandleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.SendErrorResponse(rw, "malformed request: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.mu.Lock()
	wl, claims, err := w.openHandle(req.WalletHandleToken)
	w.mu.Unlock()
	if err != nil {
		shared.SendErrorResponse(rw, err.Error(), http.StatusUnauthorized)
		return
	}

	// handle tokens are immutable, so renewal reports the lifetime the token already has
	remaining := int64(time.Until(claims.ExpiresAt.Time) / time.Second)
	shared.WriteJSON(rw, http.StatusOK, kmd.RenewWalletHandleResponse{
		WalletHandle: kmd.WalletHandle{Wallet: publicWallet(wl), ExpiresSeconds: remaining},
	})
}

func (w *Wallets) handleListKeys(rw http.ResponseWriter, r *http.Request) {
	var req kmd.WalletHandleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.SendErrorResponse(rw, "malformed request: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.mu.Lock()
	wl, _, err := w.openHandle(req.WalletHandleToken)
	var addrs []string
	if err == nil {
		for addr := range wl.accounts {
			addrs = append(addrs, addr.String())
		}
	}
	w.mu.Unlock()
	if err != nil {
		shared.SendErrorResponse(rw, err.Error(), http.StatusUnauthorized)
		return
	}

	sort.Strings(addrs)
	shared.WriteJSON(rw, http.StatusOK, kmd.ListKeysResponse{Addresses: addrs})
}

func (w *Wallets) handleSignTransaction(rw http.ResponseWriter, r *http.Request) {
	var req kmd.SignTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.SendErrorResponse(rw, "malformed request: "+err.Error(), http.StatusBadRequest)
		return
	}

	var tx types.Transaction
	if err := tx.Unmarshal(req.Transaction); err != nil {
		shared.SendErrorResponse(rw, "could not decode transaction: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	wl, _, err := w.openHandle(req.WalletHandleToken)
	if err != nil {
		shared.SendErrorResponse(rw, err.Error(), http.StatusUnauthorized)
		return
	}
	if bcrypt.CompareHashAndPassword(wl.passwordHash, []byte(req.WalletPassword)) != nil {
		shared.SendErrorResponse(rw, errBadPassword.Error(), http.StatusUnauthorized)
		return
	}
	acct, ok := wl.accounts[tx.Sender]
	if !ok {
		shared.SendErrorResponse(rw, errUnknownKey.Error(), http.StatusBadRequest)
		return
	}

	stx, err := crypto.SignTransaction(acct, tx)
	if err != nil {
		shared.SendErrorResponse(rw, err.Error(), http.StatusBadRequest)
		return
	}
	w.signed++
	utils.Log.Debugf("sandbox kmd signed %s for %s", stx.ID(), tx.Sender)
	shared.WriteJSON(rw, http.StatusOK, kmd.SignTransactionResponse{SignedTransaction: stx.Marshal()})
}
