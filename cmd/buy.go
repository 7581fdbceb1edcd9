package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	rcxsale "github.com/rcx-labs/rcxsale-go"
)

func newBuyCmd(a *app) *cobra.Command {
	var (
		asJSON bool
		method string
		yes    bool
	)

	cmd := &cobra.Command{
		Use:   "buy <amount>",
		Short: "Purchase RCX tokens",
		Long:  "Purchase RCX tokens. Stablecoin payments approve the sale's allowance first and wait for that approval to confirm before buying; native payments attach exactly the quoted cost. The command re-quotes against live contract state before spending anything.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := rcxsale.ParseTokenAmount(args[0])
			if err != nil {
				return err
			}
			m, err := rcxsale.ParsePaymentMethod(method)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			sessions, handles, err := a.connected(ctx, yes)
			if err != nil {
				return err
			}
			defer sessions.Disconnect()
			defer handles.Close()

			orch := a.orchestrator(sessions, handles, asJSON)
			res, err := orch.Submit(ctx, amount, m)
			if err != nil {
				if errors.Is(err, rcxsale.ErrConfirmationTimedOut) && res != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s tx %s is still pending; check the explorer:\n  %s/tx/%s\n",
						color.YellowString("timed out:"), res.TxHash.Hex(), a.chain.ExplorerURL, res.TxHash.Hex())
				}
				return err
			}

			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s bought %s RCX with %s\n",
				color.GreenString("confirmed:"), rcxsale.FormatTokenAmount(res.Quote.RcxAmount), res.Method)
			fmt.Fprintf(out, "  Tx: %s/tx/%s\n", a.chain.ExplorerURL, res.TxHash.Hex())
			if res.Purchased != nil {
				fmt.Fprintf(out, "  Purchased total: %s RCX\n", rcxsale.FormatTokenAmount(res.Purchased))
			}
			if res.Remaining != nil {
				fmt.Fprintf(out, "  Wallet cap left: %s RCX\n", rcxsale.FormatTokenAmount(res.Remaining))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	cmd.Flags().StringVar(&method, "method", string(rcxsale.MethodAuto), "payment method: native, usdt, usdc or auto")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "sign without prompting for confirmation")
	return cmd
}
