package rcxsale

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BalanceSource exposes the balance reads the method selector needs.
// The contract package's handles satisfy it.
type BalanceSource interface {
	// NativeBalance returns the account's native coin balance in wei.
	NativeBalance(ctx context.Context, account common.Address) (*big.Int, error)

	// TokenBalance returns the account's stablecoin balance in token base units.
	TokenBalance(ctx context.Context, method PaymentMethod, account common.Address) (*big.Int, error)
}

// MethodSelector picks a payment method for MethodAuto purchases.
// Candidates are tried in configured priority order; the first method whose
// balance covers the quoted cost wins. Stablecoins come before the native
// coin by default so gas stays payable.
type MethodSelector struct {
	priority []PaymentMethod

	// StableDecimals converts the 6-decimal USD quote into stablecoin base
	// units; it follows the target chain's stablecoin convention.
	StableDecimals uint8
}

// NewMethodSelector creates a selector with the given priority order.
// An empty order defaults to USDT, USDC, native.
func NewMethodSelector(stableDecimals uint8, priority ...PaymentMethod) *MethodSelector {
	if len(priority) == 0 {
		priority = []PaymentMethod{MethodUSDT, MethodUSDC, MethodNative}
	}
	return &MethodSelector{priority: priority, StableDecimals: stableDecimals}
}

// Select returns the first funded payment method for the quote.
// The native coin only qualifies when the quote carries a native cost.
// Returns ErrInsufficientFunds when no method covers the cost.
func (s *MethodSelector) Select(ctx context.Context, src BalanceSource, account common.Address, quote QuoteResult) (PaymentMethod, error) {
	if src == nil {
		return "", fmt.Errorf("balance source is required")
	}
	if quote.UsdCost == nil {
		return "", fmt.Errorf("%w: quote has no cost", ErrInvalidAmount)
	}

	for _, method := range s.priority {
		var cost, balance *big.Int
		var err error

		switch {
		case method == MethodNative:
			if quote.NativeCost == nil {
				continue
			}
			cost = quote.NativeCost
			balance, err = src.NativeBalance(ctx, account)
		case method.Stablecoin():
			cost = quote.StableCost(s.StableDecimals)
			balance, err = src.TokenBalance(ctx, method, account)
		default:
			continue
		}
		if err != nil {
			// A method whose balance cannot be read is skipped, not fatal.
			continue
		}
		if balance.Cmp(cost) >= 0 {
			return method, nil
		}
	}

	return "", ErrInsufficientFunds
}
