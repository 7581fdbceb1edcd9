// Package session owns the wallet connection lifecycle: connect, disconnect,
// account changes and chain changes against a single target chain. A Session
// value is immutable; consumers hold it while calling out to the network and
// ask the manager afterwards whether it is still current, so results arriving
// after a disconnect or account switch are discarded instead of applied.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	rcxsale "github.com/rcx-labs/rcxsale-go"
)

// State is the externally observable connection state.
type State int

const (
	// StateDisconnected means no session is established.
	StateDisconnected State = iota
	// StateConnected means a session is established on the target chain.
	StateConnected
)

func (s State) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "disconnected"
}

// Session is an immutable view of one established connection. Epoch changes
// whenever the account or connection changes, so contract handles derived
// from a session can be invalidated wholesale.
type Session struct {
	Account common.Address
	ChainID *big.Int
	Epoch   uint64
}

// Event describes a state transition for UI consumers.
type Event struct {
	State   State
	Session Session
	Reason  string
}

// Manager drives the connect/disconnect state machine. All mutation goes
// through its transitions; there is no external access to the underlying
// state.
type Manager struct {
	wallet rcxsale.Wallet
	chain  rcxsale.ChainConfig
	log    *slog.Logger

	mu           sync.Mutex
	connected    bool
	connecting   bool
	cur          Session
	sub          rcxsale.Subscription
	epoch        uint64
	subEpoch     uint64
	onTransition func(Event)
}

// NewManager creates a manager for one wallet and one target chain.
func NewManager(wallet rcxsale.Wallet, chain rcxsale.ChainConfig, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{wallet: wallet, chain: chain, log: log}
}

// OnTransition installs the transition callback. Call before Connect.
func (m *Manager) OnTransition(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onTransition = fn
}

// Connect establishes a session: requests account access, moves the wallet to
// the target chain (registering it first when unknown), and acquires exactly
// one notification subscription for the lifetime of the connection.
//
// Fails with ErrWalletUnavailable when no wallet capability is present,
// ErrUserRejected when the holder declines, ErrNetworkSetupFailed when the
// chain cannot be registered or switched to, ErrConnectInProgress on
// re-entrant calls. Connecting while connected returns the current session.
func (m *Manager) Connect(ctx context.Context) (Session, error) {
	if m.wallet == nil {
		return Session{}, rcxsale.ErrWalletUnavailable
	}

	m.mu.Lock()
	if m.connecting {
		m.mu.Unlock()
		return Session{}, rcxsale.ErrConnectInProgress
	}
	if m.connected {
		s := m.cur
		m.mu.Unlock()
		return s, nil
	}
	m.connecting = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.connecting = false
		m.mu.Unlock()
	}()

	accounts, err := m.wallet.RequestAccounts(ctx)
	if err != nil {
		if errors.Is(err, rcxsale.ErrUserRejected) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("%w: %v", rcxsale.ErrWalletUnavailable, err)
	}
	if len(accounts) == 0 {
		return Session{}, fmt.Errorf("%w: wallet returned no accounts", rcxsale.ErrWalletUnavailable)
	}

	chainID, err := m.wallet.ChainID(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", rcxsale.ErrWalletUnavailable, err)
	}
	if chainID.Cmp(m.chain.ChainID) != 0 {
		if err := m.switchToTarget(ctx); err != nil {
			return Session{}, err
		}
	}

	m.mu.Lock()
	m.epoch++
	m.cur = Session{
		Account: accounts[0],
		ChainID: new(big.Int).Set(m.chain.ChainID),
		Epoch:   m.epoch,
	}

	// One subscription per connected session. A leftover from an earlier
	// connection is released first so handlers never accumulate.
	if m.sub != nil {
		m.sub.Unsubscribe()
		m.sub = nil
	}
	epoch := m.epoch
	sub, err := m.wallet.Subscribe(rcxsale.WalletEvents{
		AccountsChanged: func(accounts []common.Address) { m.handleAccountsChanged(epoch, accounts) },
		ChainChanged:    func(chainID *big.Int) { m.handleChainChanged(epoch, chainID) },
	})
	if err != nil {
		m.mu.Unlock()
		return Session{}, fmt.Errorf("%w: %v", rcxsale.ErrWalletUnavailable, err)
	}
	m.sub = sub
	// Handlers carry the epoch they were subscribed under. Wallets may
	// dispatch a notification that was already in flight when Unsubscribe
	// ran, so the handlers of a torn-down connection can still fire; the
	// epoch match below keeps them away from the successor session.
	m.subEpoch = epoch
	m.connected = true
	s := m.cur
	emit := m.onTransition
	m.mu.Unlock()

	m.log.Info("wallet connected", "account", s.Account.Hex(), "chain", s.ChainID)
	if emit != nil {
		emit(Event{State: StateConnected, Session: s, Reason: "connected"})
	}
	return s, nil
}

// switchToTarget moves the wallet to the target chain, registering the chain
// first when the wallet does not know it.
func (m *Manager) switchToTarget(ctx context.Context) error {
	err := m.wallet.SwitchChain(ctx, m.chain.ChainID)
	if err == nil {
		return nil
	}
	if errors.Is(err, rcxsale.ErrUserRejected) {
		return err
	}
	if !errors.Is(err, rcxsale.ErrUnknownChain) {
		return fmt.Errorf("%w: %v", rcxsale.ErrNetworkSetupFailed, err)
	}

	if err := m.wallet.AddChain(ctx, m.chain); err != nil {
		return fmt.Errorf("%w: %v", rcxsale.ErrNetworkSetupFailed, err)
	}
	if err := m.wallet.SwitchChain(ctx, m.chain.ChainID); err != nil {
		if errors.Is(err, rcxsale.ErrUserRejected) {
			return err
		}
		return fmt.Errorf("%w: %v", rcxsale.ErrNetworkSetupFailed, err)
	}
	return nil
}

// Disconnect clears the session unconditionally. Idempotent; never fails.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	ev, emit, changed := m.disconnectLocked("disconnect requested")
	m.mu.Unlock()
	if changed && emit != nil {
		emit(ev)
	}
}

// disconnectLocked tears down the subscription and clears state. The caller
// holds m.mu and emits the returned event after unlocking.
func (m *Manager) disconnectLocked(reason string) (Event, func(Event), bool) {
	if !m.connected && m.sub == nil {
		return Event{}, nil, false
	}
	if m.sub != nil {
		m.sub.Unsubscribe()
		m.sub = nil
	}
	last := m.cur
	m.connected = false
	m.subEpoch = 0
	m.cur = Session{}
	m.log.Info("wallet disconnected", "reason", reason, "account", last.Account.Hex())
	return Event{State: StateDisconnected, Session: last, Reason: reason}, m.onTransition, true
}

// Current returns the established session, if any.
func (m *Manager) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur, m.connected
}

// Valid reports whether s is still the current session. Every state update
// after an awaited call checks this before applying results.
func (m *Manager) Valid(s Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected && s.Epoch == m.cur.Epoch
}

// Chain returns the target chain configuration.
func (m *Manager) Chain() rcxsale.ChainConfig {
	return m.chain
}

// Wallet returns the wallet capability the manager was built with.
func (m *Manager) Wallet() rcxsale.Wallet {
	return m.wallet
}

func (m *Manager) handleAccountsChanged(epoch uint64, accounts []common.Address) {
	m.mu.Lock()
	if !m.connected || epoch != m.subEpoch {
		m.mu.Unlock()
		return
	}

	if len(accounts) == 0 {
		ev, emit, changed := m.disconnectLocked("accounts revoked")
		m.mu.Unlock()
		if changed && emit != nil {
			emit(ev)
		}
		return
	}

	if accounts[0] == m.cur.Account {
		m.mu.Unlock()
		return
	}

	// The session stays connected but handles bound to the old account are
	// stale, so the epoch moves forward.
	m.epoch++
	m.cur = Session{
		Account: accounts[0],
		ChainID: m.cur.ChainID,
		Epoch:   m.epoch,
	}
	s := m.cur
	emit := m.onTransition
	m.mu.Unlock()

	m.log.Info("account changed", "account", s.Account.Hex())
	if emit != nil {
		emit(Event{State: StateConnected, Session: s, Reason: "account changed"})
	}
}

func (m *Manager) handleChainChanged(epoch uint64, chainID *big.Int) {
	m.mu.Lock()
	if !m.connected || epoch != m.subEpoch {
		m.mu.Unlock()
		return
	}
	if chainID != nil && chainID.Cmp(m.chain.ChainID) == 0 {
		m.mu.Unlock()
		return
	}

	ev, emit, changed := m.disconnectLocked("wrong network")
	m.mu.Unlock()

	m.log.Warn("wallet moved off the target chain", "chain", chainID, "want", m.chain.ChainID)
	if changed && emit != nil {
		emit(ev)
	}
}
