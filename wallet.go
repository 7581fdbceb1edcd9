package rcxsale

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Wallet is the capability the session layer consumes. It mirrors the
// EIP-1193 provider surface: account access, chain identity, chain
// switching/registration, change notifications, and per-call transaction
// authorization. The shipped implementation is the local-key wallet in the
// evm package; tests use in-memory fakes.
type Wallet interface {
	// RequestAccounts asks the wallet for account access.
	// Returns ErrUserRejected if the holder declines.
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// ChainID returns the wallet's active chain.
	ChainID(ctx context.Context) (*big.Int, error)

	// SwitchChain makes the given chain active.
	// Returns ErrUnknownChain if the wallet does not know the chain.
	SwitchChain(ctx context.Context, chainID *big.Int) error

	// AddChain registers a chain so a later SwitchChain can succeed.
	AddChain(ctx context.Context, cfg ChainConfig) error

	// Subscribe registers change notifications. Callers own the returned
	// subscription and must release it when done; the wallet supports any
	// number of concurrent subscriptions.
	Subscribe(events WalletEvents) (Subscription, error)

	// Authorize asks the wallet holder to approve one state-changing call.
	// Every write goes through this; there is no silent signing path.
	// Returns ErrUserRejected if declined.
	Authorize(ctx context.Context, summary TxSummary) error

	// Transactor returns signing transaction options for the account on the
	// active chain.
	Transactor(ctx context.Context, account common.Address) (*bind.TransactOpts, error)

	// Backend returns the wallet's own connection to the active chain,
	// used for submitting signed transactions.
	Backend(ctx context.Context) (bind.ContractBackend, error)
}

// WalletEvents carries the notification callbacks a subscriber registers.
// Nil callbacks are skipped.
type WalletEvents struct {
	// AccountsChanged fires with the new account list. An empty list means
	// access was revoked.
	AccountsChanged func(accounts []common.Address)

	// ChainChanged fires with the new active chain id.
	ChainChanged func(chainID *big.Int)
}

// Subscription is a handle on registered wallet notifications.
type Subscription interface {
	// Unsubscribe releases the subscription. Idempotent.
	Unsubscribe()
}

// TxSummary describes a state-changing call for the authorization prompt.
type TxSummary struct {
	// Action is a short human-readable description, e.g. "approve USDT".
	Action string

	// To is the contract being called.
	To common.Address

	// Value is the native value attached, nil or zero for token payments.
	Value *big.Int
}
