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

// addGTTCommands adds good-till-triggered alert commands.
func addGTTCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "gtt",
		Short: "Manage GTT conditional orders",
		Long:  "Place and manage good-till-triggered alerts and OCO pairs.",
	}

	cmd.AddCommand(newGTTListCmd(app))
	cmd.AddCommand(newGTTPlaceCmd(app))
	cmd.AddCommand(newGTTOCOCmd(app))
	cmd.AddCommand(newGTTModifyCmd(app))
	cmd.AddCommand(newGTTCancelCmd(app))

	rootCmd.AddCommand(cmd)
}

func newGTTListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending GTT alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			alerts, err := app.Broker.ListGTT(ctx)
			if err != nil {
				output.Error("Failed to fetch GTT alerts: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(alerts)
			}

			if len(alerts) == 0 {
				output.Info("No pending GTT alerts.")
				return nil
			}

			table := NewTable(output, "ALERT ID", "SYMBOL", "SIDE", "CONDITION", "ALERT PRICE", "QTY", "PRICE")
			for _, a := range alerts {
				table.AddRow(
					a.AlertID,
					a.Symbol,
					sideCell(output, a.Side),
					a.Condition,
					utils.FormatPrice(a.AlertPrice),
					fmt.Sprintf("%d", a.Quantity),
					utils.FormatPrice(a.Price),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newGTTPlaceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "place SYMBOL",
		Short: "Place a GTT alert order",
		Args:  cobra.ExactArgs(1),
		Example: `  desk gtt place RELIANCE --side buy --qty 10 --alert-price 2800 --price 2805 --condition below
  desk gtt place SBIN --side sell --qty 50 --alert-price 900 --price 898 --condition above`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			side, _ := cmd.Flags().GetString("side")
			qty, _ := cmd.Flags().GetInt("qty")
			alertPrice, _ := cmd.Flags().GetFloat64("alert-price")
			price, _ := cmd.Flags().GetFloat64("price")
			condition, _ := cmd.Flags().GetString("condition")
			segment, _ := cmd.Flags().GetString("segment")
			product, _ := cmd.Flags().GetString("product")

			if qty <= 0 || alertPrice <= 0 || price <= 0 {
				return fmt.Errorf("--qty, --alert-price and --price must be positive")
			}

			seg, ok := models.ParseSegment(segment)
			if !ok {
				return fmt.Errorf("unknown segment %q", segment)
			}

			var cond string
			switch strings.ToLower(condition) {
			case "above":
				cond = "LTP_ABOVE"
			case "below":
				cond = "LTP_BELOW"
			default:
				return fmt.Errorf("--condition must be 'above' or 'below'")
			}

			orderSide := models.OrderSideBuy
			if strings.EqualFold(side, "sell") {
				orderSide = models.OrderSideSell
			}
			if product == "" {
				product = app.Config.Orders.DefaultProduct
			}

			gtt := &models.GTTOrder{
				Symbol:     strings.ToUpper(args[0]),
				Segment:    seg,
				Side:       orderSide,
				Condition:  cond,
				AlertPrice: alertPrice,
				Quantity:   qty,
				Price:      price,
				PriceType:  models.PriceTypeLimit,
				Product:    models.ProductType(strings.ToUpper(product)),
			}

			result, err := app.Broker.PlaceGTT(ctx, gtt)
			if err != nil {
				output.Error("GTT placement failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			output.Success("✓ GTT alert placed: %s", result.AlertID)
			return nil
		},
	}

	cmd.Flags().String("side", "buy", "order side: buy or sell")
	cmd.Flags().Int("qty", 0, "order quantity")
	cmd.Flags().Float64("alert-price", 0, "price level that triggers the order")
	cmd.Flags().Float64("price", 0, "limit price of the triggered order")
	cmd.Flags().String("condition", "above", "trigger condition: above or below")
	cmd.Flags().String("segment", "NSE", "exchange segment")
	cmd.Flags().String("product", "", "product type: I, C or M (default from config)")

	return cmd
}

func newGTTOCOCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oco SYMBOL",
		Short: "Place an OCO (one-cancels-other) pair",
		Long: `Place a target and stoploss pair around an existing position.
Whichever leg triggers first cancels the other.`,
		Args:    cobra.ExactArgs(1),
		Example: `  desk gtt oco RELIANCE --qty 10 --target 2950 --stoploss 2750`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			qty, _ := cmd.Flags().GetInt("qty")
			target, _ := cmd.Flags().GetFloat64("target")
			stoploss, _ := cmd.Flags().GetFloat64("stoploss")
			segment, _ := cmd.Flags().GetString("segment")
			product, _ := cmd.Flags().GetString("product")

			if qty <= 0 {
				return fmt.Errorf("--qty must be positive")
			}

			seg, ok := models.ParseSegment(segment)
			if !ok {
				return fmt.Errorf("unknown segment %q", segment)
			}
			if product == "" {
				product = app.Config.Orders.DefaultProduct
			}

			oco := &models.OCOOrder{
				Symbol:        strings.ToUpper(args[0]),
				Segment:       seg,
				Side:          models.OrderSideSell,
				Quantity:      qty,
				TargetPrice:   target,
				StoplossPrice: stoploss,
				Product:       models.ProductType(strings.ToUpper(product)),
			}

			result, err := app.Broker.PlaceOCO(ctx, oco)
			if err != nil {
				output.Error("OCO placement failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			output.Success("✓ OCO pair placed: %s", result.AlertID)
			return nil
		},
	}

	cmd.Flags().Int("qty", 0, "order quantity")
	cmd.Flags().Float64("target", 0, "target (profit) price")
	cmd.Flags().Float64("stoploss", 0, "stoploss price")
	cmd.Flags().String("segment", "NSE", "exchange segment")
	cmd.Flags().String("product", "", "product type: I, C or M (default from config)")

	return cmd
}

func newGTTModifyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "modify ALERT_ID SYMBOL",
		Short:   "Modify a pending GTT alert",
		Args:    cobra.ExactArgs(2),
		Example: `  desk gtt modify 25082900042 RELIANCE --side buy --qty 10 --alert-price 2780 --price 2785 --condition below`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			side, _ := cmd.Flags().GetString("side")
			qty, _ := cmd.Flags().GetInt("qty")
			alertPrice, _ := cmd.Flags().GetFloat64("alert-price")
			price, _ := cmd.Flags().GetFloat64("price")
			condition, _ := cmd.Flags().GetString("condition")
			segment, _ := cmd.Flags().GetString("segment")
			product, _ := cmd.Flags().GetString("product")

			if qty <= 0 || alertPrice <= 0 || price <= 0 {
				return fmt.Errorf("--qty, --alert-price and --price must be positive")
			}

			seg, ok := models.ParseSegment(segment)
			if !ok {
				return fmt.Errorf("unknown segment %q", segment)
			}

			var cond string
			switch strings.ToLower(condition) {
			case "above":
				cond = "LTP_ABOVE"
			case "below":
				cond = "LTP_BELOW"
			default:
				return fmt.Errorf("--condition must be 'above' or 'below'")
			}

			orderSide := models.OrderSideBuy
			if strings.EqualFold(side, "sell") {
				orderSide = models.OrderSideSell
			}
			if product == "" {
				product = app.Config.Orders.DefaultProduct
			}

			gtt := &models.GTTOrder{
				Symbol:     strings.ToUpper(args[1]),
				Segment:    seg,
				Side:       orderSide,
				Condition:  cond,
				AlertPrice: alertPrice,
				Quantity:   qty,
				Price:      price,
				PriceType:  models.PriceTypeLimit,
				Product:    models.ProductType(strings.ToUpper(product)),
			}

			if err := app.Broker.ModifyGTT(ctx, args[0], gtt); err != nil {
				output.Error("GTT modify failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"alert_id": args[0], "status": "modified"})
			}
			output.Success("✓ GTT alert modified: %s", args[0])
			return nil
		},
	}

	cmd.Flags().String("side", "buy", "order side: buy or sell")
	cmd.Flags().Int("qty", 0, "order quantity")
	cmd.Flags().Float64("alert-price", 0, "price level that triggers the order")
	cmd.Flags().Float64("price", 0, "limit price of the triggered order")
	cmd.Flags().String("condition", "above", "trigger condition: above or below")
	cmd.Flags().String("segment", "NSE", "exchange segment")
	cmd.Flags().String("product", "", "product type: I, C or M (default from config)")

	return cmd
}

func newGTTCancelCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ALERT_ID",
		Short: "Cancel a pending GTT alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := app.Broker.CancelGTT(ctx, args[0]); err != nil {
				output.Error("Cancel failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"alert_id": args[0], "status": "cancelled"})
			}
			output.Success("✓ GTT alert cancelled: %s", args[0])
			return nil
		},
	}
}
