package contract

import (
	"context"
	"math/big"
	"time"
)

// Feed is the typed handle for the Chainlink native/USD aggregator.
type Feed struct {
	read *reader
}

// RoundData is the latest oracle round.
type RoundData struct {
	Answer    *big.Int
	UpdatedAt time.Time
}

// LatestRound returns the most recent oracle answer and its timestamp.
func (f *Feed) LatestRound(ctx context.Context) (RoundData, error) {
	out, err := f.read.call(ctx, "latestRoundData")
	if err != nil {
		return RoundData{}, err
	}
	updated := out[3].(*big.Int)
	return RoundData{
		Answer:    out[1].(*big.Int),
		UpdatedAt: time.Unix(updated.Int64(), 0).UTC(),
	}, nil
}

// Decimals returns the feed's answer precision.
func (f *Feed) Decimals(ctx context.Context) (uint8, error) {
	out, err := f.read.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	return out[0].(uint8), nil
}
