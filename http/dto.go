package http

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	rcxsale "github.com/rcx-labs/rcxsale-go"
	"github.com/rcx-labs/rcxsale-go/purchase"
)

// Big integers render as decimal strings; JSON numbers cannot carry uint256.

type stageJSON struct {
	Index      uint64 `json:"index"`
	PriceUsd6  string `json:"priceUsd6"`
	Allocation string `json:"allocation"`
	Sold       string `json:"sold"`
	Remaining  string `json:"remaining"`
}

type saleJSON struct {
	Version                 uint64    `json:"version"`
	At                      time.Time `json:"at"`
	Active                  bool      `json:"active"`
	TotalSold               string    `json:"totalSold"`
	TotalClaimed            string    `json:"totalClaimed"`
	MaxPerWallet            string    `json:"maxPerWallet"`
	TokenPriceUsd6          string    `json:"tokenPriceUsd6"`
	TgeTimestamp            string    `json:"tgeTimestamp"`
	PriceStalenessTolerance string    `json:"priceStalenessTolerance"`
	UnclaimedLiability      string    `json:"unclaimedLiability"`
	Owner                   string    `json:"owner"`
	CurrentStage            stageJSON `json:"currentStage"`
	TotalStages             uint64    `json:"totalStages"`
	Missing                 []string  `json:"missing,omitempty"`
}

type userJSON struct {
	Version   uint64    `json:"version"`
	At        time.Time `json:"at"`
	Account   string    `json:"account"`
	Purchased string    `json:"purchased"`
	Claimed   bool      `json:"claimed"`
	Remaining string    `json:"remaining"`
	Missing   []string  `json:"missing,omitempty"`
}

type quoteJSON struct {
	RcxAmount   string `json:"rcxAmount"`
	UsdCost     string `json:"usdCost"`
	UsdDisplay  string `json:"usdDisplay"`
	NativeCost  string `json:"nativeCost,omitempty"`
	Method      string `json:"method"`
	Purchasable bool   `json:"purchasable"`
}

type resultJSON struct {
	Phase      string     `json:"phase"`
	Method     string     `json:"method"`
	Quote      quoteJSON  `json:"quote"`
	ApprovalTx string     `json:"approvalTx,omitempty"`
	TxHash     string     `json:"txHash,omitempty"`
	Block      string     `json:"block,omitempty"`
	Purchased  string     `json:"purchased,omitempty"`
	Remaining  string     `json:"remaining,omitempty"`
}

func bigString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}

func stageDTO(s rcxsale.Stage) stageJSON {
	return stageJSON{
		Index:      s.Index,
		PriceUsd6:  bigString(s.PriceUsd6),
		Allocation: bigString(s.Allocation),
		Sold:       bigString(s.Sold),
		Remaining:  bigString(s.Remaining),
	}
}

func saleSnapshotDTO(s rcxsale.SaleSnapshot) saleJSON {
	return saleJSON{
		Version:                 s.Version,
		At:                      s.At,
		Active:                  s.Active,
		TotalSold:               bigString(s.TotalSold),
		TotalClaimed:            bigString(s.TotalClaimed),
		MaxPerWallet:            bigString(s.MaxPerWallet),
		TokenPriceUsd6:          bigString(s.TokenPriceUsd6),
		TgeTimestamp:            bigString(s.TgeTimestamp),
		PriceStalenessTolerance: bigString(s.PriceStalenessTolerance),
		UnclaimedLiability:      bigString(s.UnclaimedLiability),
		Owner:                   s.Owner.Hex(),
		CurrentStage:            stageDTO(s.CurrentStage),
		TotalStages:             s.TotalStages,
		Missing:                 s.Missing,
	}
}

func userSnapshotDTO(s rcxsale.UserSnapshot) userJSON {
	return userJSON{
		Version:   s.Version,
		At:        s.At,
		Account:   s.Account.Hex(),
		Purchased: bigString(s.Purchased),
		Claimed:   s.Claimed,
		Remaining: bigString(s.Remaining),
		Missing:   s.Missing,
	}
}

func quoteDTO(q rcxsale.QuoteResult) quoteJSON {
	return quoteJSON{
		RcxAmount:   bigString(q.RcxAmount),
		UsdCost:     bigString(q.UsdCost),
		UsdDisplay:  rcxsale.FormatUsd(q.UsdCost),
		NativeCost:  bigString(q.NativeCost),
		Method:      string(q.Method),
		Purchasable: q.Purchasable,
	}
}

func resultDTO(r *purchase.Result, phase rcxsale.TxPhase) resultJSON {
	out := resultJSON{
		Phase:     phase.String(),
		Method:    string(r.Method),
		Quote:     quoteDTO(r.Quote),
		Purchased: bigString(r.Purchased),
		Remaining: bigString(r.Remaining),
	}
	if r.ApprovalTx != (common.Hash{}) {
		out.ApprovalTx = r.ApprovalTx.Hex()
	}
	if r.TxHash != (common.Hash{}) {
		out.TxHash = r.TxHash.Hex()
	}
	if r.Receipt != nil {
		out.Block = bigString(r.Receipt.BlockNumber)
	}
	return out
}
