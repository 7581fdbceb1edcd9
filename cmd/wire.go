package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"

	rcxsale "github.com/rcx-labs/rcxsale-go"
	"github.com/rcx-labs/rcxsale-go/contract"
	"github.com/rcx-labs/rcxsale-go/evm"
	"github.com/rcx-labs/rcxsale-go/internal/config"
	"github.com/rcx-labs/rcxsale-go/purchase"
	"github.com/rcx-labs/rcxsale-go/session"
)

// app carries the wired configuration shared by all commands.
type app struct {
	cfg   *config.Config
	chain rcxsale.ChainConfig
	log   *slog.Logger

	networkFlag string
}

func (a *app) init(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if a.networkFlag != "" {
		cfg.Network = a.networkFlag
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	chain, err := cfg.Chain()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.chain = chain
	a.log = newLogger(cfg.LogLevel)
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// readHandles dials a read-only handle set for display commands.
func (a *app) readHandles(ctx context.Context) (*contract.Handles, *contract.Aggregator, error) {
	handles, err := contract.Dial(ctx, a.chain, nil, contract.WithReadTimeout(a.cfg.ReadTimeout))
	if err != nil {
		return nil, nil, err
	}
	return handles, contract.NewAggregator(handles, a.log), nil
}

// connected builds the wallet from the configured key source, establishes a
// session on the target chain and returns purchase-capable handles.
func (a *app) connected(ctx context.Context, autoApprove bool) (*session.Manager, *contract.Handles, error) {
	if !a.cfg.Key.Set() {
		return nil, nil, fmt.Errorf("%w: no wallet key configured; set key.private_key, key.keystore_path or key.mnemonic", rcxsale.ErrWalletUnavailable)
	}

	opts := []evm.WalletOption{
		evm.WithChain(a.chain),
		evm.WithActiveChain(a.chain.ChainID),
	}
	switch {
	case a.cfg.Key.PrivateKey != "":
		opts = append(opts, evm.WithPrivateKey(a.cfg.Key.PrivateKey))
	case a.cfg.Key.KeystorePath != "":
		opts = append(opts, evm.WithKeystore(a.cfg.Key.KeystorePath, a.cfg.Key.KeystorePassword))
	default:
		opts = append(opts, evm.WithMnemonic(a.cfg.Key.Mnemonic, a.cfg.Key.AccountIndex))
	}
	if !autoApprove {
		opts = append(opts, evm.WithConfirmFunc(promptConfirm))
	} else {
		opts = append(opts, evm.WithConfirmFunc(func(rcxsale.TxSummary) bool { return true }))
	}

	wallet, err := evm.NewWallet(opts...)
	if err != nil {
		return nil, nil, err
	}

	sessions := session.NewManager(wallet, a.chain, a.log)
	if _, err := sessions.Connect(ctx); err != nil {
		return nil, nil, err
	}

	handles, err := contract.Dial(ctx, a.chain, wallet, contract.WithReadTimeout(a.cfg.ReadTimeout))
	if err != nil {
		sessions.Disconnect()
		return nil, nil, err
	}
	return sessions, handles, nil
}

// orchestrator wires the purchase flow with colored phase reporting.
func (a *app) orchestrator(sessions *session.Manager, handles *contract.Handles, quiet bool) *purchase.Orchestrator {
	o := purchase.FromHandles(sessions, handles,
		purchase.WithLogger(a.log),
		purchase.WithPollInterval(a.cfg.PollInterval),
		purchase.WithConfirmTimeout(a.cfg.ConfirmTimeout),
	)
	if !quiet {
		o.OnPhase(printPhase)
	}
	return o
}

func printPhase(p rcxsale.TxPhase) {
	switch p {
	case rcxsale.PhaseConfirmed:
		fmt.Fprintf(os.Stderr, "  %s\n", color.GreenString("● %s", p))
	case rcxsale.PhaseFailed:
		fmt.Fprintf(os.Stderr, "  %s\n", color.RedString("● %s", p))
	case rcxsale.PhasePending, rcxsale.PhaseApproving:
		fmt.Fprintf(os.Stderr, "  %s\n", color.YellowString("● %s", p))
	default:
		fmt.Fprintf(os.Stderr, "  %s\n", color.CyanString("● %s", p))
	}
}

// promptConfirm asks the operator to approve one transaction.
func promptConfirm(summary rcxsale.TxSummary) bool {
	value := "0"
	if summary.Value != nil {
		value = rcxsale.FormatUnits(summary.Value, 18)
	}
	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("Sign %s to %s (value %s)", summary.Action, summary.To.Hex(), value),
		IsConfirm: true,
	}
	_, err := prompt.Run()
	return err == nil
}
