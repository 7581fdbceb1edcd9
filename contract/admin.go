package contract

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	rcxsale "github.com/rcx-labs/rcxsale-go"
)

// Admin exposes the owner-only sale operations. Every call checks on-chain
// ownership first, submits through the wallet, then waits for exactly one
// confirmation. Admin writes are never retried automatically; a failure comes
// back to the operator as-is.
type Admin struct {
	sale     *Sale
	receipts ReceiptSource

	PollInterval   time.Duration
	ConfirmTimeout time.Duration
}

// NewAdmin creates the admin surface over bound handles.
func NewAdmin(handles *Handles) *Admin {
	return &Admin{
		sale:           handles.Sale,
		receipts:       handles,
		PollInterval:   DefaultPollInterval,
		ConfirmTimeout: DefaultConfirmTimeout,
	}
}

func (a *Admin) run(ctx context.Context, from common.Address, method string, args ...any) (*types.Receipt, error) {
	owner, err := a.sale.Owner(ctx)
	if err != nil {
		return nil, err
	}
	if owner != from {
		return nil, fmt.Errorf("%w: %s", rcxsale.ErrNotOwner, from.Hex())
	}

	tx, err := a.sale.transact(ctx, from, nil, method, args...)
	if err != nil {
		return nil, err
	}
	return WaitConfirmed(ctx, a.receipts, tx.Hash(), a.PollInterval, a.ConfirmTimeout)
}

// StartSale opens purchasing.
func (a *Admin) StartSale(ctx context.Context, from common.Address) (*types.Receipt, error) {
	return a.run(ctx, from, "startSale")
}

// StopSale closes purchasing.
func (a *Admin) StopSale(ctx context.Context, from common.Address) (*types.Receipt, error) {
	return a.run(ctx, from, "stopSale")
}

// Pause halts the contract entirely.
func (a *Admin) Pause(ctx context.Context, from common.Address) (*types.Receipt, error) {
	return a.run(ctx, from, "pause")
}

// Unpause lifts a pause.
func (a *Admin) Unpause(ctx context.Context, from common.Address) (*types.Receipt, error) {
	return a.run(ctx, from, "unpause")
}

// SetTokenPrice updates the flat fallback price in 6-decimal USD.
func (a *Admin) SetTokenPrice(ctx context.Context, from common.Address, usd6 *big.Int) (*types.Receipt, error) {
	return a.run(ctx, from, "setTokenPriceUsd6", usd6)
}

// SetMaxPerWallet updates the per-wallet purchase cap in token base units.
func (a *Admin) SetMaxPerWallet(ctx context.Context, from common.Address, max *big.Int) (*types.Receipt, error) {
	return a.run(ctx, from, "setMaxPerWallet", max)
}

// SetTgeTimestamp updates the token generation event time.
func (a *Admin) SetTgeTimestamp(ctx context.Context, from common.Address, ts *big.Int) (*types.Receipt, error) {
	return a.run(ctx, from, "setTgeTimestamp", ts)
}

// SetPriceStalenessTolerance updates how old an oracle answer may be, in
// seconds.
func (a *Admin) SetPriceStalenessTolerance(ctx context.Context, from common.Address, seconds *big.Int) (*types.Receipt, error) {
	return a.run(ctx, from, "setPriceStalenessTolerance", seconds)
}

// FundRCX pulls sale inventory from the owner. The owner must have approved
// the sale contract for at least amount beforehand.
func (a *Admin) FundRCX(ctx context.Context, from common.Address, amount *big.Int) (*types.Receipt, error) {
	return a.run(ctx, from, "fundRCX", amount)
}

// InitializeStages configures the stage ladder. Prices and allocations are
// parallel slices and must be the same non-zero length.
func (a *Admin) InitializeStages(ctx context.Context, from common.Address, pricesUsd6, allocations []*big.Int) (*types.Receipt, error) {
	if len(pricesUsd6) == 0 || len(pricesUsd6) != len(allocations) {
		return nil, fmt.Errorf("%w: stage prices and allocations must pair up", rcxsale.ErrInvalidAmount)
	}
	return a.run(ctx, from, "initializeStages", pricesUsd6, allocations)
}

// WithdrawProceeds sends accumulated stablecoin and native proceeds to the
// given address.
func (a *Admin) WithdrawProceeds(ctx context.Context, from, to common.Address) (*types.Receipt, error) {
	if to == (common.Address{}) {
		return nil, fmt.Errorf("%w: withdraw target must not be the zero address", rcxsale.ErrInvalidAmount)
	}
	return a.run(ctx, from, "withdrawProceeds", to)
}

// RecoverTokens returns stray ERC-20 balances held by the sale contract.
func (a *Admin) RecoverTokens(ctx context.Context, from, token, to common.Address, amount *big.Int) (*types.Receipt, error) {
	return a.run(ctx, from, "recoverTokens", token, to, amount)
}
