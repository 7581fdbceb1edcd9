// Package purchase drives the buy flow end to end: re-quote, method
// selection, stablecoin allowance approval, submission and confirmation
// tracking. One orchestrator runs at most one flow at a time and reports
// progress through lifecycle phases.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	rcxsale "github.com/rcx-labs/rcxsale-go"
	"github.com/rcx-labs/rcxsale-go/contract"
	"github.com/rcx-labs/rcxsale-go/session"
)

// SaleAPI is the slice of the sale handle the orchestrator needs.
// *contract.Sale satisfies it.
type SaleAPI interface {
	Cost(ctx context.Context, rcxAmount18 *big.Int) (*big.Int, bool, error)
	UsdToNative(ctx context.Context, usdAmount6 *big.Int) (*big.Int, error)
	Purchased(ctx context.Context, account common.Address) (*big.Int, error)
	MaxPerWallet(ctx context.Context) (*big.Int, error)
	BuyWithNative(ctx context.Context, from common.Address, rcxAmount18, value *big.Int) (*types.Transaction, error)
	BuyWithStable(ctx context.Context, method rcxsale.PaymentMethod, from common.Address, rcxAmount18 *big.Int) (*types.Transaction, error)
}

// TokenAPI is the stablecoin slice the orchestrator needs. *contract.ERC20
// satisfies it.
type TokenAPI interface {
	Allowance(ctx context.Context, account common.Address) (*big.Int, error)
	Approve(ctx context.Context, from common.Address, amount *big.Int) (*types.Transaction, error)
}

// SessionSource reports the current session and whether a captured session is
// still live. *session.Manager satisfies it.
type SessionSource interface {
	Current() (session.Session, bool)
	Valid(session.Session) bool
}

// Result collects everything a finished or in-flight purchase produced.
type Result struct {
	Method rcxsale.PaymentMethod
	Quote  rcxsale.QuoteResult

	// ApprovalTx is set when an allowance approval was needed first.
	ApprovalTx common.Hash

	TxHash  common.Hash
	Receipt *types.Receipt

	// Purchased and Remaining are the account's refreshed totals after
	// confirmation. Nil when the refresh was skipped or failed.
	Purchased *big.Int
	Remaining *big.Int
}

// Orchestrator runs purchase flows over a connected session.
type Orchestrator struct {
	sessions SessionSource
	sale     SaleAPI
	tokens   map[rcxsale.PaymentMethod]TokenAPI
	receipts contract.ReceiptSource
	balances rcxsale.BalanceSource
	selector *rcxsale.MethodSelector
	log      *slog.Logger

	stableDecimals uint8
	pollInterval   time.Duration
	confirmTimeout time.Duration

	mu       sync.Mutex
	phase    rcxsale.TxPhase
	onPhase  func(rcxsale.TxPhase)
	last     *Result
	lastSess session.Session
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// WithPollInterval sets the receipt polling cadence.
func WithPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithConfirmTimeout bounds how long submissions are watched before the flow
// is parked in the pending phase.
func WithConfirmTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.confirmTimeout = d
		}
	}
}

// WithSelector replaces the default payment method selector.
func WithSelector(s *rcxsale.MethodSelector) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.selector = s
		}
	}
}

// NewOrchestrator wires an orchestrator from its parts. balances feeds the
// automatic method selector and may be nil when MethodAuto is never used.
func NewOrchestrator(
	sessions SessionSource,
	sale SaleAPI,
	tokens map[rcxsale.PaymentMethod]TokenAPI,
	receipts contract.ReceiptSource,
	balances rcxsale.BalanceSource,
	stableDecimals uint8,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		sessions:       sessions,
		sale:           sale,
		tokens:         tokens,
		receipts:       receipts,
		balances:       balances,
		selector:       rcxsale.NewMethodSelector(stableDecimals),
		log:            slog.Default(),
		stableDecimals: stableDecimals,
		pollInterval:   contract.DefaultPollInterval,
		confirmTimeout: contract.DefaultConfirmTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// FromHandles wires an orchestrator over bound contract handles.
func FromHandles(sessions SessionSource, handles *contract.Handles, opts ...Option) *Orchestrator {
	tokens := map[rcxsale.PaymentMethod]TokenAPI{
		rcxsale.MethodUSDT: handles.USDT,
		rcxsale.MethodUSDC: handles.USDC,
	}
	return NewOrchestrator(sessions, handles.Sale, tokens, handles, handles, handles.Chain().StableDecimals, opts...)
}

// OnPhase installs the phase observer. Call before Submit.
func (o *Orchestrator) OnPhase(fn func(rcxsale.TxPhase)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onPhase = fn
}

// Phase returns the current lifecycle phase.
func (o *Orchestrator) Phase() rcxsale.TxPhase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

func (o *Orchestrator) setPhase(p rcxsale.TxPhase) {
	o.mu.Lock()
	o.phase = p
	emit := o.onPhase
	o.mu.Unlock()
	if emit != nil {
		emit(p)
	}
}

func (o *Orchestrator) fail(err error) error {
	o.setPhase(rcxsale.PhaseFailed)
	return err
}

// Quote prices a token amount without touching wallet state. A quote is a
// point-in-time answer; Submit always re-quotes before spending.
func (o *Orchestrator) Quote(ctx context.Context, rcxAmount18 *big.Int, method rcxsale.PaymentMethod) (rcxsale.QuoteResult, error) {
	if rcxAmount18 == nil || rcxAmount18.Sign() <= 0 {
		return rcxsale.QuoteResult{}, fmt.Errorf("%w: amount must be positive", rcxsale.ErrInvalidAmount)
	}
	return o.quote(ctx, rcxAmount18, method)
}

func (o *Orchestrator) quote(ctx context.Context, rcxAmount18 *big.Int, method rcxsale.PaymentMethod) (rcxsale.QuoteResult, error) {
	usd, purchasable, err := o.sale.Cost(ctx, rcxAmount18)
	if err != nil {
		return rcxsale.QuoteResult{}, fmt.Errorf("%w: %v", rcxsale.ErrQuoteFailed, err)
	}
	q := rcxsale.QuoteResult{
		RcxAmount:   new(big.Int).Set(rcxAmount18),
		UsdCost:     usd,
		Method:      method,
		Purchasable: purchasable,
	}
	// MethodAuto needs the native figure too; the selector may land on the
	// native coin.
	if purchasable && (method == rcxsale.MethodNative || method == rcxsale.MethodAuto) {
		native, err := o.sale.UsdToNative(ctx, usd)
		if err != nil {
			return rcxsale.QuoteResult{}, fmt.Errorf("%w: %v", rcxsale.ErrQuoteFailed, err)
		}
		q.NativeCost = native
	}
	return q, nil
}

// Submit runs one purchase to completion. Only one flow runs at a time; a
// second call while one is active fails with ErrAlreadyInFlight. The quote
// is always recomputed here, the native coin path attaches exactly the
// quoted wei, and stablecoin paths confirm the allowance approval before the
// buy is sent. A confirmation timeout leaves the flow in the pending phase
// with the transaction hash in the result so CheckStatus can pick it up.
func (o *Orchestrator) Submit(ctx context.Context, rcxAmount18 *big.Int, method rcxsale.PaymentMethod) (*Result, error) {
	if rcxAmount18 == nil || rcxAmount18.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", rcxsale.ErrInvalidAmount)
	}

	o.mu.Lock()
	if o.phase != rcxsale.PhaseIdle && !o.phase.Terminal() {
		phase := o.phase
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: purchase is %s", rcxsale.ErrAlreadyInFlight, phase)
	}
	o.phase = rcxsale.PhaseQuoting
	o.last = nil
	emit := o.onPhase
	o.mu.Unlock()
	if emit != nil {
		emit(rcxsale.PhaseQuoting)
	}

	sess, ok := o.sessions.Current()
	if !ok {
		return nil, o.fail(rcxsale.ErrNotConnected)
	}
	// The session is revalidated after every wait. Results of a flow whose
	// session died mid-way are discarded rather than applied to a different
	// account or connection.
	guard := func() error {
		if !o.sessions.Valid(sess) {
			return rcxsale.ErrSessionClosed
		}
		return nil
	}

	quote, err := o.quote(ctx, rcxAmount18, method)
	if err != nil {
		return nil, o.fail(err)
	}
	if err := guard(); err != nil {
		return nil, o.fail(err)
	}
	if !quote.Purchasable {
		return nil, o.fail(fmt.Errorf("%w: amount exceeds what the sale can fill", rcxsale.ErrNotPurchasable))
	}

	if method == rcxsale.MethodAuto {
		selected, err := o.selector.Select(ctx, o.balances, sess.Account, quote)
		if err != nil {
			return nil, o.fail(err)
		}
		if err := guard(); err != nil {
			return nil, o.fail(err)
		}
		method = selected
		quote.Method = selected
	}

	res := &Result{Method: method, Quote: quote}

	if method.Stablecoin() {
		if err := o.ensureAllowance(ctx, sess, method, quote, res, guard); err != nil {
			return nil, o.fail(err)
		}
	}

	o.setPhase(rcxsale.PhaseSubmitting)
	var tx *types.Transaction
	if method == rcxsale.MethodNative {
		tx, err = o.sale.BuyWithNative(ctx, sess.Account, quote.RcxAmount, quote.NativeCost)
	} else {
		tx, err = o.sale.BuyWithStable(ctx, method, sess.Account, quote.RcxAmount)
	}
	if err != nil {
		return nil, o.fail(err)
	}
	res.TxHash = tx.Hash()

	o.mu.Lock()
	o.last = res
	o.lastSess = sess
	o.phase = rcxsale.PhasePending
	emit = o.onPhase
	o.mu.Unlock()
	if emit != nil {
		emit(rcxsale.PhasePending)
	}
	o.log.Info("purchase submitted",
		"tx", res.TxHash.Hex(),
		"method", method,
		"amount", rcxsale.FormatTokenAmount(quote.RcxAmount),
		"cost_usd", rcxsale.FormatUsd(quote.UsdCost))

	receipt, err := contract.WaitConfirmed(ctx, o.receipts, res.TxHash, o.pollInterval, o.confirmTimeout)
	if err != nil {
		if errors.Is(err, rcxsale.ErrConfirmationTimedOut) {
			// Not a failure: the transaction may still land. The phase stays
			// pending and CheckStatus resolves it later.
			o.log.Warn("confirmation timed out", "tx", res.TxHash.Hex())
			return res, err
		}
		return res, o.fail(err)
	}
	res.Receipt = receipt
	o.setPhase(rcxsale.PhaseConfirmed)
	o.log.Info("purchase confirmed", "tx", res.TxHash.Hex(), "block", receipt.BlockNumber)

	// Refresh the account's totals from chain so callers display the
	// authoritative figures, not a local estimate. Skipped when the session
	// changed while waiting.
	if o.sessions.Valid(sess) {
		o.refreshTotals(ctx, sess.Account, res)
	}
	return res, nil
}

func (o *Orchestrator) ensureAllowance(ctx context.Context, sess session.Session, method rcxsale.PaymentMethod, quote rcxsale.QuoteResult, res *Result, guard func() error) error {
	token, ok := o.tokens[method]
	if !ok {
		return fmt.Errorf("no token handle for method %q", method)
	}
	need := quote.StableCost(o.stableDecimals)

	o.setPhase(rcxsale.PhaseAwaitingApproval)
	allowance, err := token.Allowance(ctx, sess.Account)
	if err != nil {
		return fmt.Errorf("%w: allowance check: %v", rcxsale.ErrApprovalFailed, err)
	}
	if err := guard(); err != nil {
		return err
	}
	if allowance.Cmp(need) >= 0 {
		return nil
	}

	o.setPhase(rcxsale.PhaseApproving)
	tx, err := token.Approve(ctx, sess.Account, need)
	if err != nil {
		if errors.Is(err, rcxsale.ErrUserRejected) {
			return err
		}
		return fmt.Errorf("%w: %v", rcxsale.ErrApprovalFailed, err)
	}
	res.ApprovalTx = tx.Hash()
	o.log.Info("approval submitted", "tx", tx.Hash().Hex(), "method", method)

	// The buy must not be sent until the approval is mined, or the sale's
	// transferFrom would revert.
	if _, err := contract.WaitConfirmed(ctx, o.receipts, tx.Hash(), o.pollInterval, o.confirmTimeout); err != nil {
		return fmt.Errorf("%w: %v", rcxsale.ErrApprovalFailed, err)
	}
	return guard()
}

func (o *Orchestrator) refreshTotals(ctx context.Context, account common.Address, res *Result) {
	purchased, err := o.sale.Purchased(ctx, account)
	if err != nil {
		o.log.Warn("post-purchase refresh failed", "error", err)
		return
	}
	res.Purchased = purchased
	max, err := o.sale.MaxPerWallet(ctx)
	if err != nil {
		return
	}
	remaining := new(big.Int).Sub(max, purchased)
	if remaining.Sign() < 0 {
		remaining.SetInt64(0)
	}
	res.Remaining = remaining
}

// CheckStatus re-checks the last submitted purchase once. While the phase is
// pending it looks the receipt up and moves the flow to confirmed or failed
// accordingly; a transaction still in the pool leaves the phase untouched.
func (o *Orchestrator) CheckStatus(ctx context.Context) (*Result, error) {
	o.mu.Lock()
	res := o.last
	sess := o.lastSess
	phase := o.phase
	o.mu.Unlock()

	if res == nil || res.TxHash == (common.Hash{}) {
		return nil, fmt.Errorf("no purchase transaction to check")
	}
	if phase != rcxsale.PhasePending {
		return res, nil
	}

	receipt, err := contract.LookupReceipt(ctx, o.receipts, res.TxHash)
	if err != nil {
		return res, err
	}
	if receipt == nil {
		return res, nil
	}
	res.Receipt = receipt
	if receipt.Status == types.ReceiptStatusFailed {
		o.setPhase(rcxsale.PhaseFailed)
		return res, fmt.Errorf("%w: tx %s", rcxsale.ErrTransactionReverted, res.TxHash.Hex())
	}
	o.setPhase(rcxsale.PhaseConfirmed)
	// Same totals refresh as a confirmation inside Submit, so a purchase
	// resolved late still reports authoritative figures. Skipped when the
	// submitting session is gone.
	if o.sessions.Valid(sess) {
		o.refreshTotals(ctx, sess.Account, res)
	}
	return res, nil
}

// Reset returns a settled flow to idle so a new purchase can start cleanly.
// A flow in the middle of its awaited steps cannot be reset.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	if o.phase != rcxsale.PhasePending && !o.phase.Terminal() && o.phase != rcxsale.PhaseIdle {
		o.mu.Unlock()
		return
	}
	changed := o.phase != rcxsale.PhaseIdle
	o.phase = rcxsale.PhaseIdle
	o.last = nil
	emit := o.onPhase
	o.mu.Unlock()
	if changed && emit != nil {
		emit(rcxsale.PhaseIdle)
	}
}
