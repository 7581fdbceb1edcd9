// Package contract binds the staged public sale, its payment stablecoins and
// the Chainlink native/USD feed into typed Go handles. View calls go through
// a dedicated read path with a bounded timeout and one fallback-endpoint
// retry; state-changing calls go through the wallet so every write is
// explicitly authorized and signed there.
package contract

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	rcxsale "github.com/rcx-labs/rcxsale-go"
	"github.com/rcx-labs/rcxsale-go/retry"
)

var (
	saleABI  = mustParseABI(publicSaleABI)
	tokenABI = mustParseABI(erc20ABI)
	feedABI  = mustParseABI(chainlinkABI)
)

func mustParseABI(src string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(src))
	if err != nil {
		panic(fmt.Sprintf("contract: bad ABI: %v", err))
	}
	return parsed
}

// ReadBackend is the read-path client surface: contract view calls, native
// balance lookups and receipt polling. *ethclient.Client satisfies it.
type ReadBackend interface {
	bind.ContractCaller
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// reader routes one contract's view calls to the primary backend, retrying
// once against the fallback when the primary fails.
type reader struct {
	primary  *bind.BoundContract
	fallback *bind.BoundContract
	timeout  time.Duration
}

func newReader(addr common.Address, parsed abi.ABI, primary, fallback ReadBackend, timeout time.Duration) *reader {
	r := &reader{
		primary: bind.NewBoundContract(addr, parsed, primary, nil, nil),
		timeout: timeout,
	}
	if fallback != nil {
		r.fallback = bind.NewBoundContract(addr, parsed, fallback, nil, nil)
	}
	return r
}

func (r *reader) call(ctx context.Context, method string, args ...any) ([]any, error) {
	out, err := retry.ReadWithFallback(ctx, r.timeout, func(ctx context.Context, useFallback bool) ([]any, error) {
		bound := r.primary
		if useFallback && r.fallback != nil {
			bound = r.fallback
		}
		var out []any
		if err := bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", rcxsale.ErrReadUnavailable, method, err)
	}
	return out, nil
}

// Handles bundles the bound contracts for one chain. A nil wallet produces a
// read-only set: view calls work, writes fail with ErrNotConnected.
type Handles struct {
	chain    rcxsale.ChainConfig
	primary  ReadBackend
	fallback ReadBackend
	timeout  time.Duration

	Sale *Sale
	USDT *ERC20
	USDC *ERC20
	Feed *Feed

	closers []*ethclient.Client
}

// Option configures handle construction.
type Option func(*Handles)

// WithReadTimeout bounds each read attempt. Zero keeps the default.
func WithReadTimeout(d time.Duration) Option {
	return func(h *Handles) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// New builds handles over existing backends. fallback may be nil.
func New(chain rcxsale.ChainConfig, primary, fallback ReadBackend, wallet rcxsale.Wallet, opts ...Option) *Handles {
	h := &Handles{
		chain:    chain,
		primary:  primary,
		fallback: fallback,
		timeout:  retry.DefaultReadTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}

	addrs := chain.Addresses
	h.Sale = &Sale{
		addr:   addrs.Sale,
		read:   newReader(addrs.Sale, saleABI, primary, fallback, h.timeout),
		wallet: wallet,
	}
	h.USDT = newERC20(addrs.USDT, addrs.Sale, primary, fallback, wallet, h.timeout)
	h.USDC = newERC20(addrs.USDC, addrs.Sale, primary, fallback, wallet, h.timeout)
	h.Feed = &Feed{
		read: newReader(addrs.NativeUSDFeed, feedABI, primary, fallback, h.timeout),
	}
	return h
}

// Dial connects to the chain's read endpoint (and fallback endpoint when
// configured) and builds handles over the connections. wallet may be nil for
// a read-only set.
func Dial(ctx context.Context, chain rcxsale.ChainConfig, wallet rcxsale.Wallet, opts ...Option) (*Handles, error) {
	primary, err := ethclient.DialContext(ctx, chain.ReadEndpoint())
	if err != nil {
		return nil, fmt.Errorf("dial read endpoint: %w", err)
	}

	var fallback *ethclient.Client
	if chain.FallbackRPCURL != "" {
		fallback, err = ethclient.DialContext(ctx, chain.FallbackRPCURL)
		if err != nil {
			primary.Close()
			return nil, fmt.Errorf("dial fallback endpoint: %w", err)
		}
	}

	var fb ReadBackend
	if fallback != nil {
		fb = fallback
	}
	h := New(chain, primary, fb, wallet, opts...)
	h.closers = append(h.closers, primary)
	if fallback != nil {
		h.closers = append(h.closers, fallback)
	}
	return h, nil
}

// Chain returns the chain the handles are bound to.
func (h *Handles) Chain() rcxsale.ChainConfig {
	return h.chain
}

// Token returns the stablecoin handle for the payment method.
func (h *Handles) Token(method rcxsale.PaymentMethod) (*ERC20, error) {
	switch method {
	case rcxsale.MethodUSDT:
		return h.USDT, nil
	case rcxsale.MethodUSDC:
		return h.USDC, nil
	}
	return nil, fmt.Errorf("no token contract for method %q", method)
}

// NativeBalance implements rcxsale.BalanceSource.
func (h *Handles) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	bal, err := retry.ReadWithFallback(ctx, h.timeout, func(ctx context.Context, useFallback bool) (*big.Int, error) {
		backend := h.primary
		if useFallback && h.fallback != nil {
			backend = h.fallback
		}
		return backend.BalanceAt(ctx, account, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: native balance: %v", rcxsale.ErrReadUnavailable, err)
	}
	return bal, nil
}

// TokenBalance implements rcxsale.BalanceSource.
func (h *Handles) TokenBalance(ctx context.Context, method rcxsale.PaymentMethod, account common.Address) (*big.Int, error) {
	token, err := h.Token(method)
	if err != nil {
		return nil, err
	}
	return token.BalanceOf(ctx, account)
}

// Ping probes the primary read endpoint with a cheap balance lookup.
func (h *Handles) Ping(ctx context.Context) error {
	_, err := h.primary.BalanceAt(ctx, common.Address{}, nil)
	return err
}

// TransactionReceipt implements ReceiptSource on the read path. Receipt
// polling goes straight to the primary endpoint; WaitConfirmed supplies its
// own retry cadence.
func (h *Handles) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return h.primary.TransactionReceipt(ctx, txHash)
}

// Close releases connections Dial opened. Handles built with New do not own
// their backends and Close is a no-op for them.
func (h *Handles) Close() {
	for _, c := range h.closers {
		c.Close()
	}
	h.closers = nil
}
