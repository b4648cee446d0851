package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"noren-desk/internal/models"
	"noren-desk/pkg/utils"
)

// addOrderCommands adds order book and order entry commands.
func addOrderCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newOrderBookCmd(app))
	rootCmd.AddCommand(newTradeBookCmd(app))
	rootCmd.AddCommand(newOrderCmd(app))
}

func newOrderBookCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "Show the order book",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			orders, err := app.Broker.OrderBook(ctx)
			if err != nil {
				output.Error("Failed to fetch order book: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(orders)
			}

			if len(orders) == 0 {
				output.Info("No orders today.")
				return nil
			}

			table := NewTable(output, "ORDER ID", "SYMBOL", "SIDE", "TYPE", "QTY", "PRICE", "TRIGGER", "STATUS")
			for _, o := range orders {
				table.AddRow(
					o.OrderID,
					o.Symbol,
					sideCell(output, o.Side),
					string(o.PriceType),
					fmt.Sprintf("%d", o.Quantity),
					utils.FormatPrice(o.Price),
					triggerCell(o.Trigger),
					statusCell(output, o.Status),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newTradeBookCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "trades",
		Short: "Show the trade book",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			trades, err := app.Broker.TradeBook(ctx)
			if err != nil {
				output.Error("Failed to fetch trade book: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}

			if len(trades) == 0 {
				output.Info("No trades today.")
				return nil
			}

			table := NewTable(output, "ORDER ID", "SYMBOL", "SIDE", "QTY", "PRICE", "TIME")
			for _, t := range trades {
				table.AddRow(
					t.OrderID,
					t.Symbol,
					sideCell(output, t.Side),
					fmt.Sprintf("%d", t.Quantity),
					utils.FormatPrice(t.Price),
					t.TradedAt.Format("15:04:05"),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newOrderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Place, modify or cancel orders",
	}

	cmd.AddCommand(newOrderPlaceCmd(app))
	cmd.AddCommand(newOrderModifyCmd(app))
	cmd.AddCommand(newOrderCancelCmd(app))
	cmd.AddCommand(newSquareOffCmd(app))

	return cmd
}

func newOrderPlaceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "place SYMBOL",
		Short: "Place a single order",
		Args:  cobra.ExactArgs(1),
		Example: `  desk order place RELIANCE --side buy --qty 10 --price 2850
  desk order place SBIN --side sell --qty 50 --type market
  desk order place INFY --side buy --qty 5 --type sl-limit --price 1500 --trigger 1495`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			intent, err := orderIntentFromFlags(cmd, app, args[0])
			if err != nil {
				output.Error("%v", err)
				return err
			}

			result, err := app.Broker.PlaceOrder(ctx, intent)
			if err != nil {
				output.Error("Order rejected: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			output.Success("✓ Order placed: %s", result.OrderID)
			return nil
		},
	}

	addOrderFlags(cmd)
	return cmd
}

func newOrderModifyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modify ORDER_ID SYMBOL",
		Short: "Modify a pending order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			intent, err := orderIntentFromFlags(cmd, app, args[1])
			if err != nil {
				output.Error("%v", err)
				return err
			}

			if err := app.Broker.ModifyOrder(ctx, args[0], intent); err != nil {
				output.Error("Modify failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"order_id": args[0], "status": "modified"})
			}
			output.Success("✓ Order modified: %s", args[0])
			return nil
		},
	}

	addOrderFlags(cmd)
	return cmd
}

func newOrderCancelCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ORDER_ID",
		Short: "Cancel a pending order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := app.Broker.CancelOrder(ctx, args[0]); err != nil {
				output.Error("Cancel failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"order_id": args[0], "status": "cancelled"})
			}
			output.Success("✓ Order cancelled: %s", args[0])
			return nil
		},
	}
}

func newSquareOffCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "squareoff SYMBOL",
		Short: "Square off an open position at market",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			positions, err := app.Broker.Positions(ctx)
			if err != nil {
				output.Error("Failed to fetch positions: %v", err)
				return err
			}

			symbol := strings.ToUpper(args[0])
			for _, p := range positions {
				if strings.EqualFold(p.Symbol, symbol) && p.NetQty != 0 {
					result, err := app.Broker.SquareOff(ctx, p)
					if err != nil {
						output.Error("Square off failed: %v", err)
						return err
					}
					if output.IsJSON() {
						return output.JSON(result)
					}
					output.Success("✓ Square off order placed: %s", result.OrderID)
					return nil
				}
			}

			output.Warning("No open position in %s", symbol)
			return nil
		},
	}
}

func addOrderFlags(cmd *cobra.Command) {
	cmd.Flags().String("side", "buy", "order side: buy or sell")
	cmd.Flags().Int("qty", 0, "order quantity")
	cmd.Flags().Float64("price", 0, "limit price (ignored for market orders)")
	cmd.Flags().Float64("trigger", 0, "trigger price for SL orders")
	cmd.Flags().String("type", "limit", "price type: market, limit, sl-limit, sl-market")
	cmd.Flags().String("segment", "NSE", "exchange segment")
	cmd.Flags().String("product", "", "product type: I, C or M (default from config)")
	cmd.Flags().Bool("amo", false, "place as after-market order")
}

func orderIntentFromFlags(cmd *cobra.Command, app *App, symbol string) (*models.OrderIntent, error) {
	side, _ := cmd.Flags().GetString("side")
	qty, _ := cmd.Flags().GetInt("qty")
	price, _ := cmd.Flags().GetFloat64("price")
	trigger, _ := cmd.Flags().GetFloat64("trigger")
	priceType, _ := cmd.Flags().GetString("type")
	segment, _ := cmd.Flags().GetString("segment")
	product, _ := cmd.Flags().GetString("product")
	amo, _ := cmd.Flags().GetBool("amo")

	if qty <= 0 {
		return nil, fmt.Errorf("--qty must be positive")
	}

	seg, ok := models.ParseSegment(segment)
	if !ok {
		return nil, fmt.Errorf("unknown segment %q", segment)
	}

	var orderSide models.OrderSide
	switch strings.ToLower(side) {
	case "buy", "b":
		orderSide = models.OrderSideBuy
	case "sell", "s":
		orderSide = models.OrderSideSell
	default:
		return nil, fmt.Errorf("unknown side %q", side)
	}

	var pt models.PriceType
	switch strings.ToLower(priceType) {
	case "market", "mkt":
		pt = models.PriceTypeMarket
	case "limit", "lmt":
		pt = models.PriceTypeLimit
	case "sl-limit", "sl":
		pt = models.PriceTypeSLLimit
	case "sl-market", "sl-mkt":
		pt = models.PriceTypeSLMarket
	default:
		return nil, fmt.Errorf("unknown price type %q", priceType)
	}

	if pt == models.PriceTypeLimit || pt == models.PriceTypeSLLimit {
		if price <= 0 {
			return nil, fmt.Errorf("--price is required for %s orders", pt)
		}
	}
	if pt == models.PriceTypeSLLimit || pt == models.PriceTypeSLMarket {
		if trigger <= 0 {
			return nil, fmt.Errorf("--trigger is required for %s orders", pt)
		}
	}

	if product == "" {
		product = app.Config.Orders.DefaultProduct
	}

	return &models.OrderIntent{
		Symbol:       strings.ToUpper(symbol),
		Segment:      seg,
		Side:         orderSide,
		Quantity:     qty,
		Price:        price,
		PriceType:    pt,
		Product:      models.ProductType(strings.ToUpper(product)),
		TriggerPrice: trigger,
		AMO:          amo,
	}, nil
}

func sideCell(output *Output, side models.OrderSide) string {
	if side == models.OrderSideBuy {
		return output.Green(string(side))
	}
	return output.Red(string(side))
}

func statusCell(output *Output, status models.OrderStatus) string {
	switch status {
	case models.StatusOpen, models.StatusPartiallyFilled:
		return output.Yellow(string(status))
	case models.StatusFilled:
		return output.Green(string(status))
	case models.StatusCancelled, models.StatusRejected:
		return output.Red(string(status))
	}
	return string(status)
}

func triggerCell(trigger float64) string {
	if trigger <= 0 {
		return "-"
	}
	return utils.FormatPrice(trigger)
}
