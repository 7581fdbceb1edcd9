package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	rcxsale "github.com/rcx-labs/rcxsale-go"
)

func newQuoteCmd(a *app) *cobra.Command {
	var (
		asJSON bool
		method string
	)

	cmd := &cobra.Command{
		Use:   "quote <amount>",
		Short: "Price a token amount across stages without spending anything",
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
			handles, _, err := a.readHandles(ctx)
			if err != nil {
				return err
			}
			defer handles.Close()

			usd, purchasable, err := handles.Sale.Cost(ctx, amount)
			if err != nil {
				return fmt.Errorf("%w: %v", rcxsale.ErrQuoteFailed, err)
			}
			quote := rcxsale.QuoteResult{
				RcxAmount:   amount,
				UsdCost:     usd,
				Method:      m,
				Purchasable: purchasable,
			}
			if purchasable && (m == rcxsale.MethodNative || m == rcxsale.MethodAuto) {
				native, err := handles.Sale.UsdToNative(ctx, usd)
				if err != nil {
					return fmt.Errorf("%w: %v", rcxsale.ErrQuoteFailed, err)
				}
				quote.NativeCost = native
			}

			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(quote)
			}
			printQuote(cmd, a, quote)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	cmd.Flags().StringVar(&method, "method", string(rcxsale.MethodAuto), "payment method: native, usdt, usdc or auto")
	return cmd
}

func printQuote(cmd *cobra.Command, a *app, q rcxsale.QuoteResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Quote for %s RCX\n", rcxsale.FormatTokenAmount(q.RcxAmount))
	if !q.Purchasable {
		fmt.Fprintln(out, color.RedString("  Not purchasable: amount exceeds what the sale can fill"))
		return
	}
	fmt.Fprintf(out, "  Cost:   %s\n", rcxsale.FormatUsd(q.UsdCost))
	if q.NativeCost != nil {
		fmt.Fprintf(out, "  Native: %s %s\n", rcxsale.FormatUnits(q.NativeCost, a.chain.NativeDecimals), a.chain.NativeSymbol)
	}
	if q.Method.Stablecoin() || q.Method == rcxsale.MethodAuto {
		stable := q.StableCost(a.chain.StableDecimals)
		fmt.Fprintf(out, "  Stable: %s USDT/USDC\n", rcxsale.FormatUnits(stable, a.chain.StableDecimals))
	}
}
