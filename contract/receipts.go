package contract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	rcxsale "github.com/rcx-labs/rcxsale-go"
)

// ReceiptSource looks up transaction receipts. *ethclient.Client satisfies it.
type ReceiptSource interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

const (
	// DefaultPollInterval matches BSC block times.
	DefaultPollInterval = 3 * time.Second

	// DefaultConfirmTimeout bounds how long a submitted transaction is
	// watched before the caller is told to check again later.
	DefaultConfirmTimeout = 3 * time.Minute
)

// WaitConfirmed polls for the transaction's receipt until it lands, reverts,
// or the timeout passes. A reverted transaction returns
// ErrTransactionReverted; running out of time returns ErrConfirmationTimedOut
// and the transaction may still confirm later.
func WaitConfirmed(ctx context.Context, src ReceiptSource, txHash common.Hash, pollInterval, timeout time.Duration) (*types.Receipt, error) {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultConfirmTimeout
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := LookupReceipt(waitCtx, src, txHash)
		if err != nil {
			if waitCtx.Err() != nil {
				break
			}
			return nil, err
		}
		if receipt != nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, fmt.Errorf("%w: tx %s", rcxsale.ErrTransactionReverted, txHash.Hex())
			}
			return receipt, nil
		}

		select {
		case <-waitCtx.Done():
		case <-ticker.C:
			continue
		}
		break
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, fmt.Errorf("%w: tx %s not confirmed after %s", rcxsale.ErrConfirmationTimedOut, txHash.Hex(), timeout)
}

// LookupReceipt fetches the receipt once. A transaction that is still pending
// returns (nil, nil).
func LookupReceipt(ctx context.Context, src ReceiptSource, txHash common.Hash) (*types.Receipt, error) {
	receipt, err := src.TransactionReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: receipt lookup: %v", rcxsale.ErrReadUnavailable, err)
	}
	return receipt, nil
}
