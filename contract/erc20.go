package contract

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	rcxsale "github.com/rcx-labs/rcxsale-go"
)

// ERC20 is the typed handle for a payment stablecoin. spender is the sale
// contract, the only address the client ever approves.
type ERC20 struct {
	addr    common.Address
	spender common.Address
	read    *reader
	wallet  rcxsale.Wallet
}

func newERC20(addr, spender common.Address, primary, fallback ReadBackend, wallet rcxsale.Wallet, timeout time.Duration) *ERC20 {
	return &ERC20{
		addr:    addr,
		spender: spender,
		read:    newReader(addr, tokenABI, primary, fallback, timeout),
		wallet:  wallet,
	}
}

// Address returns the token contract address.
func (t *ERC20) Address() common.Address {
	return t.addr
}

// BalanceOf returns the account's balance in token base units.
func (t *ERC20) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	out, err := t.read.call(ctx, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// Allowance returns what the sale contract may pull from the account.
func (t *ERC20) Allowance(ctx context.Context, account common.Address) (*big.Int, error) {
	out, err := t.read.call(ctx, "allowance", account, t.spender)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// Decimals returns the token's decimal count.
func (t *ERC20) Decimals(ctx context.Context) (uint8, error) {
	out, err := t.read.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	return out[0].(uint8), nil
}

// Symbol returns the token symbol.
func (t *ERC20) Symbol(ctx context.Context) (string, error) {
	out, err := t.read.call(ctx, "symbol")
	if err != nil {
		return "", err
	}
	return out[0].(string), nil
}

// Approve grants the sale contract an allowance of amount base units.
func (t *ERC20) Approve(ctx context.Context, from common.Address, amount *big.Int) (*types.Transaction, error) {
	if t.wallet == nil {
		return nil, rcxsale.ErrNotConnected
	}
	if err := t.wallet.Authorize(ctx, rcxsale.TxSummary{Action: "approve", To: t.addr}); err != nil {
		return nil, err
	}
	backend, err := t.wallet.Backend(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := t.wallet.Transactor(ctx, from)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	bound := bind.NewBoundContract(t.addr, tokenABI, backend, backend, backend)
	return bound.Transact(opts, "approve", t.spender, amount)
}
