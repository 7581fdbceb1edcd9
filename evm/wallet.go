// Package evm implements the rcxsale.Wallet capability with a locally held
// key. It covers the same surface a browser-injected wallet provides: account
// access, chain switching and registration, change notifications, and
// per-call authorization before anything is signed.
package evm

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	rcxsale "github.com/rcx-labs/rcxsale-go"
)

// ConfirmFunc is consulted before every state-changing call. Returning false
// declines the call, which surfaces as rcxsale.ErrUserRejected.
type ConfirmFunc func(summary rcxsale.TxSummary) bool

// Wallet is a local-key wallet bound to a set of known chains.
type Wallet struct {
	mu sync.Mutex

	privateKey *ecdsa.PrivateKey
	address    common.Address

	chains  map[string]rcxsale.ChainConfig // keyed by decimal chain id
	active  *big.Int
	clients map[string]*ethclient.Client

	confirm ConfirmFunc

	subs   map[int]rcxsale.WalletEvents
	nextID int
}

// WalletOption configures a Wallet.
type WalletOption func(*Wallet) error

// NewWallet creates a wallet from the given options. A key source and at
// least one chain are required; the registered chain with the lowest id
// becomes active unless WithActiveChain overrides it.
func NewWallet(opts ...WalletOption) (*Wallet, error) {
	w := &Wallet{
		chains:  make(map[string]rcxsale.ChainConfig),
		clients: make(map[string]*ethclient.Client),
		subs:    make(map[int]rcxsale.WalletEvents),
	}

	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}

	if w.privateKey == nil {
		return nil, rcxsale.ErrInvalidKey
	}
	if len(w.chains) == 0 {
		return nil, rcxsale.ErrUnknownChain
	}
	if w.active == nil {
		for _, cfg := range w.chains {
			if w.active == nil || cfg.ChainID.Cmp(w.active) < 0 {
				w.active = cfg.ChainID
			}
		}
	}
	if _, ok := w.chains[w.active.String()]; !ok {
		return nil, rcxsale.ErrUnknownChain
	}

	w.address = crypto.PubkeyToAddress(w.privateKey.PublicKey)
	return w, nil
}

// WithPrivateKey sets the signing key from a hex string.
func WithPrivateKey(hexKey string) WalletOption {
	return func(w *Wallet) error {
		hexKey = strings.TrimPrefix(hexKey, "0x")
		key, err := crypto.HexToECDSA(hexKey)
		if err != nil {
			return rcxsale.ErrInvalidKey
		}
		w.privateKey = key
		return nil
	}
}

// WithChain registers a chain the wallet knows about.
func WithChain(cfg rcxsale.ChainConfig) WalletOption {
	return func(w *Wallet) error {
		if cfg.ChainID == nil {
			return rcxsale.ErrUnknownChain
		}
		w.chains[cfg.ChainID.String()] = cfg
		return nil
	}
}

// WithActiveChain selects the initially active chain.
func WithActiveChain(chainID *big.Int) WalletOption {
	return func(w *Wallet) error {
		if chainID == nil {
			return rcxsale.ErrUnknownChain
		}
		w.active = new(big.Int).Set(chainID)
		return nil
	}
}

// WithConfirmFunc installs the per-call authorization hook. Without it every
// call is authorized, which suits non-interactive operator tooling.
func WithConfirmFunc(confirm ConfirmFunc) WalletOption {
	return func(w *Wallet) error {
		w.confirm = confirm
		return nil
	}
}

// Address returns the wallet's account address.
func (w *Wallet) Address() common.Address {
	return w.address
}

// RequestAccounts implements rcxsale.Wallet. A local key wallet has exactly
// one account and grants access to it.
func (w *Wallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []common.Address{w.address}, nil
}

// ChainID implements rcxsale.Wallet.
func (w *Wallet) ChainID(ctx context.Context) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return new(big.Int).Set(w.active), nil
}

// SwitchChain implements rcxsale.Wallet. Switching to an unregistered chain
// fails with rcxsale.ErrUnknownChain; callers register it via AddChain first.
func (w *Wallet) SwitchChain(ctx context.Context, chainID *big.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if chainID == nil {
		return rcxsale.ErrUnknownChain
	}

	w.mu.Lock()
	if _, ok := w.chains[chainID.String()]; !ok {
		w.mu.Unlock()
		return rcxsale.ErrUnknownChain
	}
	if w.active.Cmp(chainID) == 0 {
		w.mu.Unlock()
		return nil
	}
	w.active = new(big.Int).Set(chainID)
	listeners := w.snapshotSubs()
	w.mu.Unlock()

	// Dispatch outside the lock so handlers may call back into the wallet.
	for _, events := range listeners {
		if events.ChainChanged != nil {
			events.ChainChanged(new(big.Int).Set(chainID))
		}
	}
	return nil
}

// AddChain implements rcxsale.Wallet.
func (w *Wallet) AddChain(ctx context.Context, cfg rcxsale.ChainConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cfg.ChainID == nil || cfg.RPCURL == "" {
		return rcxsale.ErrNetworkSetupFailed
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chains[cfg.ChainID.String()] = cfg
	return nil
}

// Subscribe implements rcxsale.Wallet.
func (w *Wallet) Subscribe(events rcxsale.WalletEvents) (rcxsale.Subscription, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++
	w.subs[id] = events

	return &subscription{wallet: w, id: id}, nil
}

// Authorize implements rcxsale.Wallet.
func (w *Wallet) Authorize(ctx context.Context, summary rcxsale.TxSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.confirm != nil && !w.confirm(summary) {
		return rcxsale.ErrUserRejected
	}
	return nil
}

// Transactor implements rcxsale.Wallet. The account must be the wallet's own;
// there is no fallback key source for writes.
func (w *Wallet) Transactor(ctx context.Context, account common.Address) (*bind.TransactOpts, error) {
	if account != w.address {
		return nil, rcxsale.ErrInvalidKey
	}

	w.mu.Lock()
	chainID := new(big.Int).Set(w.active)
	w.mu.Unlock()

	opts, err := bind.NewKeyedTransactorWithChainID(w.privateKey, chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

// Backend implements rcxsale.Wallet, dialing the active chain's wallet-side
// endpoint lazily and caching the connection per chain.
func (w *Wallet) Backend(ctx context.Context) (bind.ContractBackend, error) {
	w.mu.Lock()
	cfg := w.chains[w.active.String()]
	key := w.active.String()
	if client, ok := w.clients[key]; ok {
		w.mu.Unlock()
		return client, nil
	}
	w.mu.Unlock()

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if cached, ok := w.clients[key]; ok {
		client.Close()
		return cached, nil
	}
	w.clients[key] = client
	return client, nil
}

// Close releases all cached RPC connections.
func (w *Wallet) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for key, client := range w.clients {
		client.Close()
		delete(w.clients, key)
	}
}

// snapshotSubs copies the listener list; the caller must hold w.mu.
func (w *Wallet) snapshotSubs() []rcxsale.WalletEvents {
	listeners := make([]rcxsale.WalletEvents, 0, len(w.subs))
	for _, events := range w.subs {
		listeners = append(listeners, events)
	}
	return listeners
}

type subscription struct {
	wallet *Wallet
	id     int
	once   sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.wallet.mu.Lock()
		defer s.wallet.mu.Unlock()
		delete(s.wallet.subs, s.id)
	})
}
