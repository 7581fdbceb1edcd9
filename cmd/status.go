package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	rcxsale "github.com/rcx-labs/rcxsale-go"
)

func newStatusCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sale state: active flag, totals, current stage and price",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			handles, agg, err := a.readHandles(ctx)
			if err != nil {
				return err
			}
			defer handles.Close()

			snap := agg.SaleSnapshot(ctx)
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(snap)
			}
			printSaleSnapshot(cmd, a, snap)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func printSaleSnapshot(cmd *cobra.Command, a *app, snap rcxsale.SaleSnapshot) {
	out := cmd.OutOrStdout()

	active := color.RedString("closed")
	if snap.Active {
		active = color.GreenString("open")
	}
	fmt.Fprintf(out, "Sale on %s: %s\n", a.chain.Name, active)
	fmt.Fprintf(out, "  Total sold:      %s RCX\n", rcxsale.FormatTokenAmount(snap.TotalSold))
	fmt.Fprintf(out, "  Total claimed:   %s RCX\n", rcxsale.FormatTokenAmount(snap.TotalClaimed))
	fmt.Fprintf(out, "  Unclaimed:       %s RCX\n", rcxsale.FormatTokenAmount(snap.UnclaimedLiability))
	fmt.Fprintf(out, "  Max per wallet:  %s RCX\n", rcxsale.FormatTokenAmount(snap.MaxPerWallet))
	if snap.TgeTimestamp != nil && snap.TgeTimestamp.Sign() > 0 {
		tge := time.Unix(snap.TgeTimestamp.Int64(), 0).UTC()
		fmt.Fprintf(out, "  TGE:             %s\n", tge.Format(time.RFC3339))
	}

	stage := snap.CurrentStage
	fmt.Fprintf(out, "Stage %d of %d\n", stage.Index+1, snap.TotalStages)
	fmt.Fprintf(out, "  Price:           %s per RCX\n", rcxsale.FormatUsd(stage.PriceUsd6))
	fmt.Fprintf(out, "  Sold:            %s / %s RCX\n",
		rcxsale.FormatTokenAmount(stage.Sold), rcxsale.FormatTokenAmount(stage.Allocation))
	fmt.Fprintf(out, "  Remaining:       %s RCX\n", rcxsale.FormatTokenAmount(stage.Remaining))

	if len(snap.Missing) > 0 {
		fmt.Fprintf(out, "%s %v\n", color.YellowString("Some fields could not be read:"), snap.Missing)
	}
}
