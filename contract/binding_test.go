package contract

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	rcxsale "github.com/rcx-labs/rcxsale-go"
)

// fakeBackend answers every contract call with a scripted payload.
type fakeBackend struct {
	output  []byte
	callErr error
	balance *big.Int
	calls   int
}

func (f *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x01}, nil
}

func (f *fakeBackend) CallContract(_ context.Context, _ ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	if f.callErr != nil {
		return nil, f.callErr
	}
	return f.output, nil
}

func (f *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}
	return f.balance, nil
}

func (f *fakeBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, ethereum.NotFound
}

func packOutput(t *testing.T, method string, values ...any) []byte {
	t.Helper()
	out, err := saleABI.Methods[method].Outputs.Pack(values...)
	if err != nil {
		t.Fatalf("pack %s: %v", method, err)
	}
	return out
}

func testHandles(primary, fallback ReadBackend) *Handles {
	return New(rcxsale.BSCTestnet, primary, fallback, nil, WithReadTimeout(100*time.Millisecond))
}

func TestSaleReads(t *testing.T) {
	ctx := context.Background()

	t.Run("totalSold decodes", func(t *testing.T) {
		primary := &fakeBackend{output: packOutput(t, "totalSold", big.NewInt(1234))}
		h := testHandles(primary, nil)

		got, err := h.Sale.TotalSold(ctx)
		if err != nil {
			t.Fatalf("TotalSold() error = %v", err)
		}
		if got.Cmp(big.NewInt(1234)) != 0 {
			t.Errorf("TotalSold() = %s, want 1234", got)
		}
	})

	t.Run("getCurrentStage decodes the tuple", func(t *testing.T) {
		primary := &fakeBackend{output: packOutput(t, "getCurrentStage",
			big.NewInt(2), big.NewInt(50_000), big.NewInt(1000), big.NewInt(400), big.NewInt(600))}
		h := testHandles(primary, nil)

		stage, err := h.Sale.CurrentStage(ctx)
		if err != nil {
			t.Fatalf("CurrentStage() error = %v", err)
		}
		if stage.Index != 2 {
			t.Errorf("Index = %d, want 2", stage.Index)
		}
		if stage.PriceUsd6.Cmp(big.NewInt(50_000)) != 0 {
			t.Errorf("PriceUsd6 = %s", stage.PriceUsd6)
		}
		if stage.Remaining.Cmp(big.NewInt(600)) != 0 {
			t.Errorf("Remaining = %s", stage.Remaining)
		}
	})

	t.Run("calculateCostAcrossStages decodes both values", func(t *testing.T) {
		primary := &fakeBackend{output: packOutput(t, "calculateCostAcrossStages",
			big.NewInt(50_000_000), false)}
		h := testHandles(primary, nil)

		usd, purchasable, err := h.Sale.Cost(ctx, big.NewInt(1))
		if err != nil {
			t.Fatalf("Cost() error = %v", err)
		}
		if usd.Cmp(big.NewInt(50_000_000)) != 0 || purchasable {
			t.Errorf("Cost() = %s, %v", usd, purchasable)
		}
	})
}

func TestReadFallbackRouting(t *testing.T) {
	ctx := context.Background()
	payload := func(t *testing.T) []byte { return packOutput(t, "totalSold", big.NewInt(7)) }

	t.Run("fallback rescues a failing primary", func(t *testing.T) {
		primary := &fakeBackend{callErr: errors.New("primary down")}
		fallback := &fakeBackend{output: payload(t)}
		h := testHandles(primary, fallback)

		got, err := h.Sale.TotalSold(ctx)
		if err != nil {
			t.Fatalf("TotalSold() error = %v", err)
		}
		if got.Cmp(big.NewInt(7)) != 0 {
			t.Errorf("TotalSold() = %s, want 7", got)
		}
		if primary.calls != 1 || fallback.calls != 1 {
			t.Errorf("calls primary=%d fallback=%d, want 1 each", primary.calls, fallback.calls)
		}
	})

	t.Run("healthy primary never touches the fallback", func(t *testing.T) {
		primary := &fakeBackend{output: payload(t)}
		fallback := &fakeBackend{output: payload(t)}
		h := testHandles(primary, fallback)

		if _, err := h.Sale.TotalSold(ctx); err != nil {
			t.Fatalf("TotalSold() error = %v", err)
		}
		if fallback.calls != 0 {
			t.Errorf("fallback calls = %d, want 0", fallback.calls)
		}
	})

	t.Run("both endpoints down maps to read unavailable", func(t *testing.T) {
		primary := &fakeBackend{callErr: errors.New("down")}
		fallback := &fakeBackend{callErr: errors.New("down too")}
		h := testHandles(primary, fallback)

		_, err := h.Sale.TotalSold(ctx)
		if !errors.Is(err, rcxsale.ErrReadUnavailable) {
			t.Errorf("error = %v, want ErrReadUnavailable", err)
		}
	})

	t.Run("no fallback retries the primary once", func(t *testing.T) {
		primary := &fakeBackend{callErr: errors.New("down")}
		h := testHandles(primary, nil)

		if _, err := h.Sale.TotalSold(ctx); err == nil {
			t.Fatal("expected error")
		}
		if primary.calls != 2 {
			t.Errorf("primary calls = %d, want 2", primary.calls)
		}
	})
}

func TestBalanceSource(t *testing.T) {
	ctx := context.Background()
	account := common.HexToAddress("0x3333333333333333333333333333333333333333")

	t.Run("native balance", func(t *testing.T) {
		primary := &fakeBackend{balance: big.NewInt(42)}
		h := testHandles(primary, nil)

		got, err := h.NativeBalance(ctx, account)
		if err != nil {
			t.Fatalf("NativeBalance() error = %v", err)
		}
		if got.Cmp(big.NewInt(42)) != 0 {
			t.Errorf("NativeBalance() = %s, want 42", got)
		}
	})

	t.Run("token balance routes by method", func(t *testing.T) {
		out, err := tokenABI.Methods["balanceOf"].Outputs.Pack(big.NewInt(9))
		if err != nil {
			t.Fatal(err)
		}
		primary := &fakeBackend{output: out}
		h := testHandles(primary, nil)

		got, err := h.TokenBalance(ctx, rcxsale.MethodUSDT, account)
		if err != nil {
			t.Fatalf("TokenBalance() error = %v", err)
		}
		if got.Cmp(big.NewInt(9)) != 0 {
			t.Errorf("TokenBalance() = %s, want 9", got)
		}

		if _, err := h.TokenBalance(ctx, rcxsale.MethodNative, account); err == nil {
			t.Error("TokenBalance(native) expected error")
		}
	})
}

func TestWritesRequireWallet(t *testing.T) {
	h := testHandles(&fakeBackend{}, nil)
	ctx := context.Background()
	from := common.HexToAddress("0x4444444444444444444444444444444444444444")

	if _, err := h.Sale.BuyWithNative(ctx, from, big.NewInt(1), big.NewInt(1)); !errors.Is(err, rcxsale.ErrNotConnected) {
		t.Errorf("BuyWithNative error = %v, want ErrNotConnected", err)
	}
	if _, err := h.Sale.BuyWithStable(ctx, rcxsale.MethodUSDT, from, big.NewInt(1)); !errors.Is(err, rcxsale.ErrNotConnected) {
		t.Errorf("BuyWithStable error = %v, want ErrNotConnected", err)
	}
	if _, err := h.USDT.Approve(ctx, from, big.NewInt(1)); !errors.Is(err, rcxsale.ErrNotConnected) {
		t.Errorf("Approve error = %v, want ErrNotConnected", err)
	}
}
