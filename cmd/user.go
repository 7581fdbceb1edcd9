package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	rcxsale "github.com/rcx-labs/rcxsale-go"
)

func newUserCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "user <address>",
		Short: "Show one wallet's purchased total, claim state and remaining cap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rcxsale.ValidateTokenAddress(args[0]); err != nil {
				return err
			}
			account := common.HexToAddress(args[0])

			ctx := cmd.Context()
			handles, agg, err := a.readHandles(ctx)
			if err != nil {
				return err
			}
			defer handles.Close()

			snap := agg.UserSnapshot(ctx, account)
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(snap)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Account %s\n", snap.Account.Hex())
			fmt.Fprintf(out, "  Purchased:  %s RCX\n", rcxsale.FormatTokenAmount(snap.Purchased))
			fmt.Fprintf(out, "  Remaining:  %s RCX\n", rcxsale.FormatTokenAmount(snap.Remaining))
			fmt.Fprintf(out, "  Claimed:    %v\n", snap.Claimed)
			if len(snap.Missing) > 0 {
				fmt.Fprintf(out, "  Unreadable: %v\n", snap.Missing)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}
