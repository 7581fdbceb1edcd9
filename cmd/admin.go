package cmd

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	rcxsale "github.com/rcx-labs/rcxsale-go"
	"github.com/rcx-labs/rcxsale-go/contract"
)

// adminAction runs one owner-only operation with a connected session.
type adminAction func(cmd *cobra.Command, admin *contract.Admin, owner common.Address, args []string) (*types.Receipt, error)

func newAdminCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Owner-only sale operations",
		Long:  "Owner-only sale operations. Every command verifies on-chain ownership before submitting, waits for one confirmation, and never retries on failure.",
	}
	cmd.PersistentFlags().BoolVarP(&yes, "yes", "y", false, "sign without prompting for confirmation")

	run := func(action adminAction) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sessions, handles, err := a.connected(ctx, yes)
			if err != nil {
				return err
			}
			defer sessions.Disconnect()
			defer handles.Close()

			sess, ok := sessions.Current()
			if !ok {
				return rcxsale.ErrNotConnected
			}
			admin := contract.NewAdmin(handles)
			admin.PollInterval = a.cfg.PollInterval
			admin.ConfirmTimeout = a.cfg.ConfirmTimeout

			receipt, err := action(cmd, admin, sess.Account, args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s tx %s (block %s)\n",
				color.GreenString("confirmed:"), receipt.TxHash.Hex(), receipt.BlockNumber)
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Open the sale for purchases",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, admin *contract.Admin, owner common.Address, _ []string) (*types.Receipt, error) {
				return admin.StartSale(cmd.Context(), owner)
			}),
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Close the sale",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, admin *contract.Admin, owner common.Address, _ []string) (*types.Receipt, error) {
				return admin.StopSale(cmd.Context(), owner)
			}),
		},
		&cobra.Command{
			Use:   "pause",
			Short: "Pause the contract entirely",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, admin *contract.Admin, owner common.Address, _ []string) (*types.Receipt, error) {
				return admin.Pause(cmd.Context(), owner)
			}),
		},
		&cobra.Command{
			Use:   "unpause",
			Short: "Lift a pause",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, admin *contract.Admin, owner common.Address, _ []string) (*types.Receipt, error) {
				return admin.Unpause(cmd.Context(), owner)
			}),
		},
		&cobra.Command{
			Use:   "set-price <usd>",
			Short: "Set the flat fallback token price in USD",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(cmd *cobra.Command, admin *contract.Admin, owner common.Address, args []string) (*types.Receipt, error) {
				usd6, err := rcxsale.ParseUsd(args[0])
				if err != nil {
					return nil, err
				}
				return admin.SetTokenPrice(cmd.Context(), owner, usd6)
			}),
		},
		&cobra.Command{
			Use:   "set-max-wallet <rcx>",
			Short: "Set the per-wallet purchase cap",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(cmd *cobra.Command, admin *contract.Admin, owner common.Address, args []string) (*types.Receipt, error) {
				amount, err := rcxsale.ParseTokenAmount(args[0])
				if err != nil {
					return nil, err
				}
				return admin.SetMaxPerWallet(cmd.Context(), owner, amount)
			}),
		},
		&cobra.Command{
			Use:   "set-tge <time>",
			Short: "Set the token generation event time (RFC3339 or unix seconds)",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(cmd *cobra.Command, admin *contract.Admin, owner common.Address, args []string) (*types.Receipt, error) {
				ts, err := parseTimestamp(args[0])
				if err != nil {
					return nil, err
				}
				return admin.SetTgeTimestamp(cmd.Context(), owner, ts)
			}),
		},
		&cobra.Command{
			Use:   "set-staleness <seconds>",
			Short: "Set the oracle price staleness tolerance",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(cmd *cobra.Command, admin *contract.Admin, owner common.Address, args []string) (*types.Receipt, error) {
				seconds, ok := new(big.Int).SetString(args[0], 10)
				if !ok {
					return nil, fmt.Errorf("%w: %q is not a number of seconds", rcxsale.ErrInvalidAmount, args[0])
				}
				return admin.SetPriceStalenessTolerance(cmd.Context(), owner, seconds)
			}),
		},
		&cobra.Command{
			Use:   "fund <rcx>",
			Short: "Transfer sale inventory in from the owner (requires prior approval)",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(cmd *cobra.Command, admin *contract.Admin, owner common.Address, args []string) (*types.Receipt, error) {
				amount, err := rcxsale.ParseTokenAmount(args[0])
				if err != nil {
					return nil, err
				}
				return admin.FundRCX(cmd.Context(), owner, amount)
			}),
		},
		newInitStagesCmd(run),
		&cobra.Command{
			Use:   "withdraw <to>",
			Short: "Withdraw accumulated proceeds to an address",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(cmd *cobra.Command, admin *contract.Admin, owner common.Address, args []string) (*types.Receipt, error) {
				if err := rcxsale.ValidateTokenAddress(args[0]); err != nil {
					return nil, err
				}
				return admin.WithdrawProceeds(cmd.Context(), owner, common.HexToAddress(args[0]))
			}),
		},
		&cobra.Command{
			Use:   "recover <token> <to> <amount>",
			Short: "Recover stray ERC-20 tokens held by the sale (amount in base units)",
			Args:  cobra.ExactArgs(3),
			RunE: run(func(cmd *cobra.Command, admin *contract.Admin, owner common.Address, args []string) (*types.Receipt, error) {
				for _, addr := range args[:2] {
					if err := rcxsale.ValidateTokenAddress(addr); err != nil {
						return nil, err
					}
				}
				amount, ok := new(big.Int).SetString(args[2], 10)
				if !ok || amount.Sign() <= 0 {
					return nil, fmt.Errorf("%w: %q is not a positive base-unit amount", rcxsale.ErrInvalidAmount, args[2])
				}
				return admin.RecoverTokens(cmd.Context(), owner, common.HexToAddress(args[0]), common.HexToAddress(args[1]), amount)
			}),
		},
	)
	return cmd
}

func newInitStagesCmd(run func(adminAction) func(*cobra.Command, []string) error) *cobra.Command {
	var (
		prices      []string
		allocations []string
	)
	cmd := &cobra.Command{
		Use:   "init-stages",
		Short: "Configure the stage ladder (repeat --price and --allocation per stage)",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, admin *contract.Admin, owner common.Address, _ []string) (*types.Receipt, error) {
			if len(prices) == 0 || len(prices) != len(allocations) {
				return nil, fmt.Errorf("%w: need matching --price and --allocation flags", rcxsale.ErrInvalidAmount)
			}
			pricesUsd6 := make([]*big.Int, len(prices))
			allocs := make([]*big.Int, len(allocations))
			for i := range prices {
				p, err := rcxsale.ParseUsd(prices[i])
				if err != nil {
					return nil, fmt.Errorf("stage %d price: %w", i+1, err)
				}
				al, err := rcxsale.ParseTokenAmount(allocations[i])
				if err != nil {
					return nil, fmt.Errorf("stage %d allocation: %w", i+1, err)
				}
				pricesUsd6[i] = p
				allocs[i] = al
			}
			return admin.InitializeStages(cmd.Context(), owner, pricesUsd6, allocs)
		}),
	}
	cmd.Flags().StringArrayVar(&prices, "price", nil, "stage price in USD, one per stage")
	cmd.Flags().StringArrayVar(&allocations, "allocation", nil, "stage allocation in RCX, one per stage")
	return cmd
}

func parseTimestamp(s string) (*big.Int, error) {
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return big.NewInt(unix), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is neither unix seconds nor RFC3339", rcxsale.ErrInvalidAmount, s)
	}
	return big.NewInt(t.Unix()), nil
}
