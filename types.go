package rcxsale

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PaymentMethod identifies how a purchase is paid for.
type PaymentMethod string

const (
	// MethodNative pays with the chain's native coin, attaching the quoted
	// value to the purchase transaction.
	MethodNative PaymentMethod = "native"

	// MethodUSDT pays with the USDT stablecoin after an allowance approval.
	MethodUSDT PaymentMethod = "usdt"

	// MethodUSDC pays with the USDC stablecoin after an allowance approval.
	MethodUSDC PaymentMethod = "usdc"

	// MethodAuto lets the method selector pick a funded method by priority.
	MethodAuto PaymentMethod = "auto"
)

// ParsePaymentMethod parses a payment method string.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case MethodNative, MethodUSDT, MethodUSDC, MethodAuto:
		return PaymentMethod(s), nil
	default:
		return "", fmt.Errorf("unknown payment method %q", s)
	}
}

// Stablecoin reports whether the method pays with an ERC-20 stablecoin and
// therefore requires an allowance check before submission.
func (m PaymentMethod) Stablecoin() bool {
	return m == MethodUSDT || m == MethodUSDC
}

// TxPhase is the lifecycle state of an in-flight purchase.
type TxPhase int

const (
	// PhaseIdle means no purchase flow is running.
	PhaseIdle TxPhase = iota
	// PhaseQuoting means the cost is being re-quoted from the contract.
	PhaseQuoting
	// PhaseAwaitingApproval means the current allowance is being checked.
	PhaseAwaitingApproval
	// PhaseApproving means an approval transaction is awaiting confirmation.
	PhaseApproving
	// PhaseSubmitting means the purchase transaction is being sent.
	PhaseSubmitting
	// PhasePending means the purchase transaction is in the pending pool.
	PhasePending
	// PhaseConfirmed means the purchase transaction was mined successfully.
	PhaseConfirmed
	// PhaseFailed means the flow ended with an error.
	PhaseFailed
)

var phaseNames = map[TxPhase]string{
	PhaseIdle:             "idle",
	PhaseQuoting:          "quoting",
	PhaseAwaitingApproval: "awaiting-approval",
	PhaseApproving:        "approving",
	PhaseSubmitting:       "submitting",
	PhasePending:          "pending",
	PhaseConfirmed:        "confirmed",
	PhaseFailed:           "failed",
}

func (p TxPhase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Terminal reports whether the phase ends a flow. A new submission may start
// from Idle or any terminal phase.
func (p TxPhase) Terminal() bool {
	return p == PhaseConfirmed || p == PhaseFailed
}

// Stage is one tranche of the sale with its own price and allocation.
// Amounts are 18-decimal token base units; the price is a 6-decimal USD value.
type Stage struct {
	Index      uint64
	PriceUsd6  *big.Int
	Allocation *big.Int
	Sold       *big.Int
	Remaining  *big.Int
}

// QuoteResult is the contract's answer for a requested purchase amount.
// A quote has no identity beyond the request that produced it; submission
// always re-quotes against current on-chain state.
type QuoteResult struct {
	// RcxAmount is the requested token amount in 18-decimal base units.
	RcxAmount *big.Int

	// UsdCost is the total cost across stages in 6-decimal USD units.
	UsdCost *big.Int

	// NativeCost is the cost in wei when paying with the native coin.
	// Nil for stablecoin quotes.
	NativeCost *big.Int

	// Method is the payment method the quote was produced for.
	Method PaymentMethod

	// Purchasable is false when the amount exceeds the remaining allocation
	// across stages; submission must be blocked.
	Purchasable bool
}

// StableCost returns the quoted cost in stablecoin base units for a chain's
// stablecoin decimal convention. The contract quotes 6-decimal USD values.
func (q QuoteResult) StableCost(stableDecimals uint8) *big.Int {
	return ScaleUsd(q.UsdCost, stableDecimals)
}

// ScaleUsd converts a 6-decimal USD amount to a token amount with the given
// decimal count. Scaling down truncates.
func ScaleUsd(usd6 *big.Int, decimals uint8) *big.Int {
	if usd6 == nil {
		return nil
	}
	if decimals == 6 {
		return new(big.Int).Set(usd6)
	}
	if decimals > 6 {
		factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals-6)), nil)
		return new(big.Int).Mul(usd6, factor)
	}
	factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(6-decimals)), nil)
	return new(big.Int).Quo(usd6, factor)
}

// SaleSnapshot is a versioned composite read of the sale contract's state.
// Fields that could not be read carry their zero value and are listed in
// Missing instead of failing the whole snapshot.
type SaleSnapshot struct {
	Version uint64
	At      time.Time

	Active                  bool
	TotalSold               *big.Int
	TotalClaimed            *big.Int
	MaxPerWallet            *big.Int
	TokenPriceUsd6          *big.Int
	TgeTimestamp            *big.Int
	PriceStalenessTolerance *big.Int
	UnclaimedLiability      *big.Int
	Owner                   common.Address
	CurrentStage            Stage
	TotalStages             uint64

	// Missing lists the getters that failed and were replaced by fallbacks.
	Missing []string
}

// UserSnapshot is a versioned composite read of one wallet's sale state.
type UserSnapshot struct {
	Version uint64
	At      time.Time

	Account   common.Address
	Purchased *big.Int
	Claimed   bool

	// Remaining is MaxPerWallet minus Purchased, floored at zero.
	Remaining *big.Int

	Missing []string
}

// ParseUnits converts a decimal amount string to base units.
// For example, "1.5" with 6 decimals becomes 1500000. Parsing is exact
// integer arithmetic; floating point would round amounts with more than
// 19 significant digits, and 18-decimal token amounts reach that easily.
func ParseUnits(amount string, decimals uint8) (*big.Int, error) {
	s := amount
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	for _, part := range []string{whole, frac} {
		for _, c := range part {
			if c < '0' || c > '9' {
				return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
			}
		}
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, amount, decimals)
	}

	frac += strings.Repeat("0", int(decimals)-len(frac))
	result, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if neg {
		result.Neg(result)
	}
	return result, nil
}

// FormatUnits converts base units to a decimal string.
// For example, 1500000 with 6 decimals becomes "1.500000".
func FormatUnits(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	abs := new(big.Int).Abs(value)
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, divisor, new(big.Int))

	out := whole.String()
	if value.Sign() < 0 {
		out = "-" + out
	}
	if decimals == 0 {
		return out
	}
	digits := frac.String()
	return out + "." + strings.Repeat("0", int(decimals)-len(digits)) + digits
}

// ParseTokenAmount parses a decimal RCX amount into 18-decimal base units.
func ParseTokenAmount(amount string) (*big.Int, error) {
	v, err := ParseUnits(amount, 18)
	if err != nil {
		return nil, err
	}
	if v.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	return v, nil
}

// FormatTokenAmount formats 18-decimal base units as a decimal RCX amount.
func FormatTokenAmount(value *big.Int) string {
	return FormatUnits(value, 18)
}

// ParseUsd parses a decimal USD amount into 6-decimal base units.
func ParseUsd(amount string) (*big.Int, error) {
	v, err := ParseUnits(amount, 6)
	if err != nil {
		return nil, err
	}
	if v.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	return v, nil
}

// FormatUsd formats a 6-decimal USD amount as a decimal string.
func FormatUsd(usd6 *big.Int) string {
	return FormatUnits(usd6, 6)
}
