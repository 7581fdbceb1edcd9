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

type fakeReceipts struct {
	notFoundFor int // lookups that report pending before the receipt appears
	receipt     *types.Receipt
	err         error
	calls       int
}

func (f *fakeReceipts) TransactionReceipt(_ context.Context, _ common.Hash) (*types.Receipt, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.calls <= f.notFoundFor {
		return nil, ethereum.NotFound
	}
	return f.receipt, nil
}

func okReceipt() *types.Receipt {
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(100)}
}

func TestWaitConfirmed(t *testing.T) {
	hash := common.HexToHash("0x01")

	t.Run("immediate confirmation", func(t *testing.T) {
		src := &fakeReceipts{receipt: okReceipt()}
		receipt, err := WaitConfirmed(context.Background(), src, hash, time.Millisecond, time.Second)
		if err != nil {
			t.Fatalf("WaitConfirmed() error = %v", err)
		}
		if receipt.BlockNumber.Int64() != 100 {
			t.Errorf("block = %s", receipt.BlockNumber)
		}
	})

	t.Run("polls through pending", func(t *testing.T) {
		src := &fakeReceipts{notFoundFor: 3, receipt: okReceipt()}
		_, err := WaitConfirmed(context.Background(), src, hash, time.Millisecond, time.Second)
		if err != nil {
			t.Fatalf("WaitConfirmed() error = %v", err)
		}
		if src.calls != 4 {
			t.Errorf("lookups = %d, want 4", src.calls)
		}
	})

	t.Run("revert", func(t *testing.T) {
		src := &fakeReceipts{receipt: &types.Receipt{Status: types.ReceiptStatusFailed}}
		receipt, err := WaitConfirmed(context.Background(), src, hash, time.Millisecond, time.Second)
		if !errors.Is(err, rcxsale.ErrTransactionReverted) {
			t.Fatalf("error = %v, want ErrTransactionReverted", err)
		}
		if receipt == nil {
			t.Error("the failed receipt should be returned for inspection")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		src := &fakeReceipts{notFoundFor: 1 << 30}
		_, err := WaitConfirmed(context.Background(), src, hash, time.Millisecond, 20*time.Millisecond)
		if !errors.Is(err, rcxsale.ErrConfirmationTimedOut) {
			t.Errorf("error = %v, want ErrConfirmationTimedOut", err)
		}
	})

	t.Run("caller cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		src := &fakeReceipts{notFoundFor: 1 << 30}
		_, err := WaitConfirmed(ctx, src, hash, time.Millisecond, time.Second)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})

	t.Run("lookup failure", func(t *testing.T) {
		src := &fakeReceipts{err: errors.New("rpc down")}
		_, err := WaitConfirmed(context.Background(), src, hash, time.Millisecond, time.Second)
		if !errors.Is(err, rcxsale.ErrReadUnavailable) {
			t.Errorf("error = %v, want ErrReadUnavailable", err)
		}
	})
}

func TestLookupReceipt(t *testing.T) {
	hash := common.HexToHash("0x02")

	t.Run("pending is nil without error", func(t *testing.T) {
		src := &fakeReceipts{notFoundFor: 1 << 30}
		receipt, err := LookupReceipt(context.Background(), src, hash)
		if err != nil || receipt != nil {
			t.Errorf("LookupReceipt() = %v, %v; want nil, nil", receipt, err)
		}
	})

	t.Run("found", func(t *testing.T) {
		src := &fakeReceipts{receipt: okReceipt()}
		receipt, err := LookupReceipt(context.Background(), src, hash)
		if err != nil || receipt == nil {
			t.Errorf("LookupReceipt() = %v, %v", receipt, err)
		}
	})
}
