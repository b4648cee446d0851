package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"noren-desk/pkg/utils"
)

// addPortfolioCommands adds portfolio view commands.
func addPortfolioCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newHoldingsCmd(app))
	rootCmd.AddCommand(newPositionsCmd(app))
	rootCmd.AddCommand(newLimitsCmd(app))
}

func newHoldingsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "holdings",
		Short: "Show demat holdings",
		Long:  "Display demat holdings with quantity, average price, last price and P&L.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			holdings, err := app.Broker.Holdings(ctx)
			if err != nil {
				output.Error("Failed to fetch holdings: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(holdings)
			}

			if len(holdings) == 0 {
				output.Info("No holdings.")
				return nil
			}

			table := NewTable(output, "SYMBOL", "QTY", "AVG PRICE", "LTP", "VALUE", "P&L")
			var totalValue, totalPnL float64
			for _, h := range holdings {
				qty := h.Quantity()
				value := float64(qty) * h.LTP
				pnl := float64(qty) * (h.LTP - h.AvgBuyPrice)
				totalValue += value
				totalPnL += pnl
				table.AddRow(
					h.Symbol,
					utils.FormatQuantity(int64(qty)),
					utils.FormatPrice(h.AvgBuyPrice),
					utils.FormatPrice(h.LTP),
					utils.FormatIndianCurrency(value),
					output.FormatPnL(pnl),
				)
			}
			table.Render()

			output.Println()
			output.Printf("Total value: %s    Total P&L: %s\n",
				utils.FormatIndianCurrency(totalValue), output.FormatPnL(totalPnL))
			return nil
		},
	}
}

func newPositionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "Show open positions",
		Long:  "Display intraday and carry-forward positions with net quantity and P&L.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			positions, err := app.Broker.Positions(ctx)
			if err != nil {
				output.Error("Failed to fetch positions: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(positions)
			}

			if len(positions) == 0 {
				output.Info("No open positions.")
				return nil
			}

			table := NewTable(output, "SYMBOL", "PRODUCT", "NET QTY", "AVG PRICE", "LTP", "P&L")
			var totalPnL float64
			for _, p := range positions {
				totalPnL += p.PnL
				table.AddRow(
					p.Symbol,
					p.Product,
					fmt.Sprintf("%d", p.NetQty),
					utils.FormatPrice(p.AvgPrice),
					utils.FormatPrice(p.LTP),
					output.FormatPnL(p.PnL),
				)
			}
			table.Render()

			output.Println()
			output.Printf("Total P&L: %s\n", output.FormatPnL(totalPnL))
			return nil
		},
	}
}

func newLimitsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "limits",
		Short: "Show account margins and cash",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			limits, err := app.Broker.Limits(ctx)
			if err != nil {
				output.Error("Failed to fetch limits: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(limits)
			}

			output.Bold("Account Limits")
			output.Printf("  Cash:        %s\n", utils.FormatIndianCurrency(limits.Cash))
			output.Printf("  Payin:       %s\n", utils.FormatIndianCurrency(limits.Payin))
			output.Printf("  Margin Used: %s\n", utils.FormatIndianCurrency(limits.MarginUsed))
			output.Printf("  Collateral:  %s\n", utils.FormatIndianCurrency(limits.Collateral))
			return nil
		},
	}
}
