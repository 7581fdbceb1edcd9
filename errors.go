package rcxsale

import "errors"

// Error taxonomy shared by the session, contract and purchase layers.

var (
	// ErrWalletUnavailable indicates that no wallet capability is configured or reachable.
	ErrWalletUnavailable = errors.New("wallet unavailable")

	// ErrUserRejected indicates the wallet holder declined an account, network or signing request.
	ErrUserRejected = errors.New("user rejected request")

	// ErrNetworkMismatch indicates the wallet is on a chain other than the sale's target chain.
	ErrNetworkMismatch = errors.New("wrong network")

	// ErrNetworkSetupFailed indicates the target chain could not be registered with the wallet.
	ErrNetworkSetupFailed = errors.New("network setup failed")

	// ErrConnectInProgress indicates a connect attempt is already running.
	ErrConnectInProgress = errors.New("connect already in progress")

	// ErrNotConnected indicates an operation that requires a connected session.
	ErrNotConnected = errors.New("wallet not connected")

	// ErrSessionClosed indicates the session that initiated an operation is no longer current.
	ErrSessionClosed = errors.New("session closed")

	// ErrQuoteFailed indicates the contract's cost calculation could not be read.
	ErrQuoteFailed = errors.New("quote failed")

	// ErrNotPurchasable indicates the requested amount exceeds the remaining allocation.
	ErrNotPurchasable = errors.New("amount not purchasable")

	// ErrApprovalFailed indicates a stablecoin approval transaction failed or reverted.
	ErrApprovalFailed = errors.New("token approval failed")

	// ErrTransactionReverted indicates an on-chain transaction reverted.
	ErrTransactionReverted = errors.New("transaction reverted")

	// ErrConfirmationTimedOut indicates confirmation polling hit its upper bound.
	// The underlying transaction may still confirm later; re-check instead of resubmitting.
	ErrConfirmationTimedOut = errors.New("confirmation timed out")

	// ErrAlreadyInFlight indicates a purchase flow is already running for the session.
	ErrAlreadyInFlight = errors.New("purchase already in flight")

	// ErrReadUnavailable indicates a single read field could not be fetched (non-fatal).
	ErrReadUnavailable = errors.New("read unavailable")

	// ErrInsufficientFunds indicates no payment method covers the quoted cost.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount indicates a malformed or non-positive token amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidKey indicates an invalid private key.
	ErrInvalidKey = errors.New("invalid private key")

	// ErrInvalidKeystore indicates an unreadable or undecryptable keystore file.
	ErrInvalidKeystore = errors.New("invalid keystore")

	// ErrInvalidMnemonic indicates an invalid BIP-39 mnemonic phrase.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")

	// ErrUnknownChain indicates a chain the wallet does not know about.
	ErrUnknownChain = errors.New("unknown chain")

	// ErrNotOwner indicates an owner-gated operation attempted by a non-owner account.
	ErrNotOwner = errors.New("caller is not the contract owner")
)
