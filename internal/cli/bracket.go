package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"noren-desk/internal/models"
	"noren-desk/internal/trading"
	"noren-desk/pkg/utils"
)

// addBracketCommands adds the bracket order command.
func addBracketCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newBracketCmd(app))
}

func newBracketCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bracket SYMBOL",
		Short: "Place protective SL and target legs around a holding",
		Long: `Construct and place a three-leg protective bracket (stop-loss plus
two targets) around an existing long position.

The entry price defaults to the holding's average buy price; use
--entry to override it. Holdings with no recorded average price require
an explicit --entry. Prices are snapped to the instrument tick size.

Each leg is checked against the current order book first: a leg that
matches a working order within the duplicate tolerance is skipped
rather than doubled up. Legs are submitted independently, so one
rejection never blocks the others.`,
		Args: cobra.ExactArgs(1),
		Example: `  desk bracket RELIANCE --sl 2 --t1 4 --t2 8
  desk bracket SBIN --entry 812.40 --qty 50 --sl 1.5 --t1 3 --t2 6
  desk bracket INFY --sl 2 --t1 4 --t2 8 --sl-market --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			segmentFlag, _ := cmd.Flags().GetString("segment")
			entry, _ := cmd.Flags().GetFloat64("entry")
			qty, _ := cmd.Flags().GetInt("qty")
			slPct, _ := cmd.Flags().GetFloat64("sl")
			t1Pct, _ := cmd.Flags().GetFloat64("t1")
			t2Pct, _ := cmd.Flags().GetFloat64("t2")
			slQty, _ := cmd.Flags().GetInt("sl-qty")
			t1Qty, _ := cmd.Flags().GetInt("t1-qty")
			t2Qty, _ := cmd.Flags().GetInt("t2-qty")
			slMarket, _ := cmd.Flags().GetBool("sl-market")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			amo, _ := cmd.Flags().GetBool("amo")
			product, _ := cmd.Flags().GetString("product")

			segment, ok := models.ParseSegment(segmentFlag)
			if !ok {
				return fmt.Errorf("unknown segment %q", segmentFlag)
			}

			// Holding lookup fills quantity and entry unless overridden.
			if entry <= 0 || qty <= 0 {
				holdings, err := app.Broker.Holdings(ctx)
				if err != nil {
					output.Error("Failed to fetch holdings: %v", err)
					return err
				}
				found := false
				for _, h := range holdings {
					if strings.EqualFold(h.Symbol, symbol) {
						if qty <= 0 {
							qty = h.Quantity()
						}
						if entry <= 0 {
							entry = h.AvgBuyPrice
						}
						found = true
						break
					}
				}
				if !found && (entry <= 0 || qty <= 0) {
					output.Error("No holding in %s; pass --entry and --qty explicitly", symbol)
					return fmt.Errorf("holding not found: %s", symbol)
				}
			}

			tickSize := models.DefaultTickSize
			if master, err := app.Master(); err == nil {
				if inst, err := master.Resolve(symbol, segment); err == nil {
					tickSize = inst.TickSize
				}
			}

			if product == "" {
				product = app.Config.Orders.DefaultProduct
			}
			if !cmd.Flags().Changed("amo") {
				amo = !utils.IsMarketOpen()
			}

			bracket, err := trading.BuildBracket(trading.BracketParams{
				Symbol:           symbol,
				Segment:          segment,
				EntryPrice:       entry,
				Quantity:         qty,
				TickSize:         tickSize,
				SLPct:            slPct,
				T1Pct:            t1Pct,
				T2Pct:            t2Pct,
				SLQty:            slQty,
				T1Qty:            t1Qty,
				T2Qty:            t2Qty,
				SLMarket:         slMarket,
				SLLimitOffsetPct: app.Config.Orders.SLLimitOffsetPct,
				Product:          models.ProductType(strings.ToUpper(product)),
				Remarks:          "bracket",
				AMO:              amo,
			})
			if err != nil {
				output.Error("%v", err)
				return err
			}

			legs := bracket.Legs()
			if len(legs) == 0 {
				output.Warning("No legs to place; pass at least one of --sl, --t1, --t2")
				return nil
			}

			if dryRun {
				return printBracketPreview(output, entry, legs)
			}

			submitter := trading.NewSubmitter(app.Broker, app.Config.Orders.DuplicatePriceTolerance, app.Logger)
			results := submitter.SubmitBracket(ctx, bracket)

			if output.IsJSON() {
				return output.JSON(results)
			}

			for _, r := range results {
				switch {
				case r.Err != nil:
					output.Error("✗ %s: %v", r.Leg, r.Err)
				case r.Skipped:
					output.Warning("- %s: skipped (%s)", r.Leg, r.Reason)
				default:
					output.Success("✓ %s: order %s", r.Leg, r.OrderID)
				}
			}
			return nil
		},
	}

	cmd.Flags().Float64("entry", 0, "entry price (default: holding average buy price)")
	cmd.Flags().Int("qty", 0, "total quantity (default: holding quantity)")
	cmd.Flags().Float64("sl", 0, "stop-loss percent below entry")
	cmd.Flags().Float64("t1", 0, "first target percent above entry")
	cmd.Flags().Float64("t2", 0, "second target percent above entry")
	cmd.Flags().Int("sl-qty", 0, "stop-loss quantity (default: full quantity)")
	cmd.Flags().Int("t1-qty", 0, "first target quantity (default: half)")
	cmd.Flags().Int("t2-qty", 0, "second target quantity (default: remainder)")
	cmd.Flags().Bool("sl-market", false, "use SL-MARKET instead of SL-LIMIT for the stop leg")
	cmd.Flags().Bool("dry-run", false, "print the constructed legs without placing them")
	cmd.Flags().Bool("amo", false, "place as after-market orders (default: on when market closed)")
	cmd.Flags().String("segment", "NSE", "exchange segment")
	cmd.Flags().String("product", "", "product type: I, C or M (default from config)")

	return cmd
}

func printBracketPreview(output *Output, entry float64, legs []trading.NamedLeg) error {
	if output.IsJSON() {
		return output.JSON(map[string]interface{}{
			"entry_price": entry,
			"legs":        legs,
		})
	}

	output.Bold("Bracket preview (entry %s)", utils.FormatPrice(entry))
	table := NewTable(output, "LEG", "TYPE", "QTY", "PRICE", "TRIGGER")
	for _, leg := range legs {
		table.AddRow(
			leg.Name,
			string(leg.Intent.PriceType),
			fmt.Sprintf("%d", leg.Intent.Quantity),
			utils.FormatPrice(leg.Intent.Price),
			triggerCell(leg.Intent.TriggerPrice),
		)
	}
	table.Render()
	output.Dim("Nothing was placed (--dry-run).")
	return nil
}
