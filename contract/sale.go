package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	rcxsale "github.com/rcx-labs/rcxsale-go"
)

// Sale is the typed handle for the staged public sale contract.
type Sale struct {
	addr   common.Address
	read   *reader
	wallet rcxsale.Wallet
}

// Address returns the sale contract address.
func (s *Sale) Address() common.Address {
	return s.addr
}

// CurrentStage returns the active stage.
func (s *Sale) CurrentStage(ctx context.Context) (rcxsale.Stage, error) {
	out, err := s.read.call(ctx, "getCurrentStage")
	if err != nil {
		return rcxsale.Stage{}, err
	}
	return rcxsale.Stage{
		Index:      out[0].(*big.Int).Uint64(),
		PriceUsd6:  out[1].(*big.Int),
		Allocation: out[2].(*big.Int),
		Sold:       out[3].(*big.Int),
		Remaining:  out[4].(*big.Int),
	}, nil
}

// StageAt returns the stage at the given index.
func (s *Sale) StageAt(ctx context.Context, index uint64) (rcxsale.Stage, error) {
	out, err := s.read.call(ctx, "getStage", new(big.Int).SetUint64(index))
	if err != nil {
		return rcxsale.Stage{}, err
	}
	return rcxsale.Stage{
		Index:      index,
		PriceUsd6:  out[0].(*big.Int),
		Allocation: out[1].(*big.Int),
		Sold:       out[2].(*big.Int),
		Remaining:  out[3].(*big.Int),
	}, nil
}

// TotalStages returns the number of configured stages.
func (s *Sale) TotalStages(ctx context.Context) (uint64, error) {
	out, err := s.read.call(ctx, "getTotalStages")
	if err != nil {
		return 0, err
	}
	return out[0].(*big.Int).Uint64(), nil
}

// Cost prices a token amount across stages. The second return reports whether
// the amount is purchasable at all (stage supply left, wallet cap not hit).
func (s *Sale) Cost(ctx context.Context, rcxAmount18 *big.Int) (*big.Int, bool, error) {
	out, err := s.read.call(ctx, "calculateCostAcrossStages", rcxAmount18)
	if err != nil {
		return nil, false, err
	}
	return out[0].(*big.Int), out[1].(bool), nil
}

// UsdToNative converts a 6-decimal USD amount to wei at the oracle price.
func (s *Sale) UsdToNative(ctx context.Context, usdAmount6 *big.Int) (*big.Int, error) {
	out, err := s.read.call(ctx, "usdToNative", usdAmount6)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// NativeCost prices a token amount directly in wei.
func (s *Sale) NativeCost(ctx context.Context, rcxAmount18 *big.Int) (*big.Int, error) {
	out, err := s.read.call(ctx, "nativeCost", rcxAmount18)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// SaleActive reports whether purchases are open.
func (s *Sale) SaleActive(ctx context.Context) (bool, error) {
	out, err := s.read.call(ctx, "saleActive")
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

// Paused reports the contract's pause state.
func (s *Sale) Paused(ctx context.Context) (bool, error) {
	out, err := s.read.call(ctx, "paused")
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

// TotalSold returns tokens sold across all stages.
func (s *Sale) TotalSold(ctx context.Context) (*big.Int, error) {
	return s.readBig(ctx, "totalSold")
}

// TotalClaimed returns tokens already claimed by buyers.
func (s *Sale) TotalClaimed(ctx context.Context) (*big.Int, error) {
	return s.readBig(ctx, "totalClaimed")
}

// MaxPerWallet returns the per-wallet purchase cap.
func (s *Sale) MaxPerWallet(ctx context.Context) (*big.Int, error) {
	return s.readBig(ctx, "maxPerWallet")
}

// TokenPriceUsd6 returns the flat fallback price.
func (s *Sale) TokenPriceUsd6(ctx context.Context) (*big.Int, error) {
	return s.readBig(ctx, "tokenPriceUsd6")
}

// TgeTimestamp returns the token generation event time as a unix timestamp.
func (s *Sale) TgeTimestamp(ctx context.Context) (*big.Int, error) {
	return s.readBig(ctx, "tgeTimestamp")
}

// PriceStalenessTolerance returns the oracle staleness window in seconds.
func (s *Sale) PriceStalenessTolerance(ctx context.Context) (*big.Int, error) {
	return s.readBig(ctx, "priceStalenessTolerance")
}

// UnclaimedLiability returns sold-but-unclaimed tokens.
func (s *Sale) UnclaimedLiability(ctx context.Context) (*big.Int, error) {
	return s.readBig(ctx, "unclaimedLiability")
}

// Purchased returns the account's cumulative purchase.
func (s *Sale) Purchased(ctx context.Context, account common.Address) (*big.Int, error) {
	return s.readBig(ctx, "purchased", account)
}

// Claimed reports whether the account has claimed.
func (s *Sale) Claimed(ctx context.Context, account common.Address) (bool, error) {
	out, err := s.read.call(ctx, "claimed", account)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

// Owner returns the contract owner.
func (s *Sale) Owner(ctx context.Context) (common.Address, error) {
	out, err := s.read.call(ctx, "owner")
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

func (s *Sale) readBig(ctx context.Context, method string, args ...any) (*big.Int, error) {
	out, err := s.read.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// BuyWithNative purchases with the native coin, sending value wei.
func (s *Sale) BuyWithNative(ctx context.Context, from common.Address, rcxAmount18, value *big.Int) (*types.Transaction, error) {
	return s.transact(ctx, from, value, "buyWithNative", rcxAmount18)
}

// BuyWithStable purchases with the stablecoin behind the payment method. The
// sale pulls the cost via transferFrom, so allowance must already cover it.
func (s *Sale) BuyWithStable(ctx context.Context, method rcxsale.PaymentMethod, from common.Address, rcxAmount18 *big.Int) (*types.Transaction, error) {
	switch method {
	case rcxsale.MethodUSDT:
		return s.transact(ctx, from, nil, "buyWithUSDT", rcxAmount18)
	case rcxsale.MethodUSDC:
		return s.transact(ctx, from, nil, "buyWithUSDC", rcxAmount18)
	}
	return nil, fmt.Errorf("%w: method %q cannot pay with a stablecoin", rcxsale.ErrInvalidAmount, method)
}

// transact authorizes, signs and submits one state-changing call through the
// wallet.
func (s *Sale) transact(ctx context.Context, from common.Address, value *big.Int, method string, args ...any) (*types.Transaction, error) {
	if s.wallet == nil {
		return nil, rcxsale.ErrNotConnected
	}
	if err := s.wallet.Authorize(ctx, rcxsale.TxSummary{Action: method, To: s.addr, Value: value}); err != nil {
		return nil, err
	}
	backend, err := s.wallet.Backend(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := s.wallet.Transactor(ctx, from)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	if value != nil {
		opts.Value = value
	}
	bound := bind.NewBoundContract(s.addr, saleABI, backend, backend, backend)
	return bound.Transact(opts, method, args...)
}
