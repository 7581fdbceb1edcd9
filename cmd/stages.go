package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	rcxsale "github.com/rcx-labs/rcxsale-go"
)

func newStagesCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stages",
		Short: "List every sale stage with price, allocation and progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			handles, agg, err := a.readHandles(ctx)
			if err != nil {
				return err
			}
			defer handles.Close()

			stages, err := agg.Stages(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(stages)
			}

			current, err := handles.Sale.CurrentStage(ctx)
			currentIndex := uint64(0)
			if err == nil {
				currentIndex = current.Index
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STAGE\tPRICE\tSOLD\tALLOCATION\tREMAINING")
			for _, st := range stages {
				marker := fmt.Sprintf("%d", st.Index+1)
				if err == nil && st.Index == currentIndex {
					marker = color.GreenString("%d *", st.Index+1)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					marker,
					rcxsale.FormatUsd(st.PriceUsd6),
					rcxsale.FormatTokenAmount(st.Sold),
					rcxsale.FormatTokenAmount(st.Allocation),
					rcxsale.FormatTokenAmount(st.Remaining))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}
