package contract

import (
	"context"
	"log/slog"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"

	rcxsale "github.com/rcx-labs/rcxsale-go"
)

// Aggregator builds composite snapshots of the sale. Each snapshot carries a
// version from a monotonically increasing counter so consumers can drop
// results that arrive out of order. Individual getter failures degrade the
// snapshot field by field instead of failing the whole read.
type Aggregator struct {
	handles *Handles
	log     *slog.Logger
	version atomic.Uint64
}

// NewAggregator creates an aggregator over the bound handles.
func NewAggregator(handles *Handles, log *slog.Logger) *Aggregator {
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{handles: handles, log: log}
}

// SaleSnapshot reads the contract-wide state.
func (a *Aggregator) SaleSnapshot(ctx context.Context) rcxsale.SaleSnapshot {
	sale := a.handles.Sale
	snap := rcxsale.SaleSnapshot{
		Version: a.version.Add(1),
		At:      time.Now().UTC(),
	}
	miss := func(field string, err error) {
		a.log.Warn("sale snapshot field degraded", "field", field, "error", err)
		snap.Missing = append(snap.Missing, field)
	}

	if active, err := sale.SaleActive(ctx); err != nil {
		miss("saleActive", err)
	} else {
		snap.Active = active
	}
	bigFields := []struct {
		name string
		read func(context.Context) (*big.Int, error)
		dst  **big.Int
	}{
		{"totalSold", sale.TotalSold, &snap.TotalSold},
		{"totalClaimed", sale.TotalClaimed, &snap.TotalClaimed},
		{"maxPerWallet", sale.MaxPerWallet, &snap.MaxPerWallet},
		{"tokenPriceUsd6", sale.TokenPriceUsd6, &snap.TokenPriceUsd6},
		{"tgeTimestamp", sale.TgeTimestamp, &snap.TgeTimestamp},
		{"priceStalenessTolerance", sale.PriceStalenessTolerance, &snap.PriceStalenessTolerance},
		{"unclaimedLiability", sale.UnclaimedLiability, &snap.UnclaimedLiability},
	}
	for _, f := range bigFields {
		if v, err := f.read(ctx); err != nil {
			miss(f.name, err)
		} else {
			*f.dst = v
		}
	}
	if owner, err := sale.Owner(ctx); err != nil {
		miss("owner", err)
	} else {
		snap.Owner = owner
	}
	if stage, err := sale.CurrentStage(ctx); err != nil {
		miss("getCurrentStage", err)
	} else {
		snap.CurrentStage = stage
	}
	if total, err := sale.TotalStages(ctx); err != nil {
		miss("getTotalStages", err)
	} else {
		snap.TotalStages = total
	}
	return snap
}

// Stages reads every configured stage. Stages that fail to read are skipped.
func (a *Aggregator) Stages(ctx context.Context) ([]rcxsale.Stage, error) {
	sale := a.handles.Sale
	total, err := sale.TotalStages(ctx)
	if err != nil {
		return nil, err
	}
	stages := make([]rcxsale.Stage, 0, total)
	for i := uint64(0); i < total; i++ {
		stage, err := sale.StageAt(ctx, i)
		if err != nil {
			a.log.Warn("stage read failed", "index", i, "error", err)
			continue
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

// UserSnapshot reads one account's purchase state.
func (a *Aggregator) UserSnapshot(ctx context.Context, account common.Address) rcxsale.UserSnapshot {
	sale := a.handles.Sale
	snap := rcxsale.UserSnapshot{
		Version: a.version.Add(1),
		At:      time.Now().UTC(),
		Account: account,
	}
	miss := func(field string, err error) {
		a.log.Warn("user snapshot field degraded", "account", account.Hex(), "field", field, "error", err)
		snap.Missing = append(snap.Missing, field)
	}

	purchased, err := sale.Purchased(ctx, account)
	if err != nil {
		miss("purchased", err)
	} else {
		snap.Purchased = purchased
	}
	if claimed, err := sale.Claimed(ctx, account); err != nil {
		miss("claimed", err)
	} else {
		snap.Claimed = claimed
	}

	maxPerWallet, err := sale.MaxPerWallet(ctx)
	switch {
	case err != nil:
		miss("maxPerWallet", err)
	case purchased == nil:
		// remaining is meaningless without the purchased figure
	default:
		remaining := new(big.Int).Sub(maxPerWallet, purchased)
		if remaining.Sign() < 0 {
			remaining.SetInt64(0)
		}
		snap.Remaining = remaining
	}
	return snap
}
