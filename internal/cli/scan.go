package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"noren-desk/internal/analysis/scanner"
	"noren-desk/internal/instruments"
	"noren-desk/internal/models"
	"noren-desk/internal/store"
	"noren-desk/pkg/utils"
)

// addScanCommands adds the watchlist scan commands.
func addScanCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run condition scans over a watchlist",
	}

	cmd.AddCommand(newScanRunCmd(app))
	cmd.AddCommand(newScanConditionsCmd(app))
	cmd.AddCommand(newScanHistoryCmd(app))

	rootCmd.AddCommand(cmd)
}

func newScanRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [WATCHLIST]",
		Short: "Scan a watchlist against the configured conditions",
		Long: `Scan every instrument in a watchlist (default list: "default")
against the enabled conditions. An instrument must pass all enabled
conditions to appear in the results.

The base filter requires both 20EMA/LTP and 50EMA/20EMA above the
configured ratios. RSI and EMA-relationship conditions can be layered
on top. Instruments that fail to fetch are reported as skips; they
never abort the run.`,
		Args: cobra.MaximumNArgs(1),
		Example: `  desk scan run
  desk scan run momentum --rsi-above 60
  desk scan run default --rsi-below 40 --relation price_above_ema20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()

			listName := "default"
			if len(args) == 1 {
				listName = args[0]
			}

			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}
			entries, err := app.Store.GetWatchlist(ctx, listName)
			if err != nil {
				output.Error("Failed to read watchlist %q: %v", listName, err)
				return err
			}
			if len(entries) == 0 {
				output.Warning("Watchlist %q is empty. Add symbols with 'desk watchlist add'.", listName)
				return nil
			}

			master, err := app.Master()
			if err != nil {
				output.Error("Failed to load instrument master: %v", err)
				return err
			}

			var instrumentList []models.Instrument
			var unresolved []models.ScanSkip
			for _, e := range entries {
				seg, ok := models.ParseSegment(e.Segment)
				if !ok {
					seg = models.NSE
				}
				inst, err := master.Resolve(e.Symbol, seg)
				if err != nil {
					unresolved = append(unresolved, models.ScanSkip{Symbol: e.Symbol, Reason: "not in scripmaster"})
					continue
				}
				instrumentList = append(instrumentList, inst)
			}

			cond, err := conditionsFromFlags(cmd, app)
			if err != nil {
				return err
			}

			index := indexInstrument(app, master)
			sc := scanner.New(app.barProvider(cmd), index, app.Logger)

			report, err := sc.Scan(ctx, instrumentList, cond)
			if err != nil {
				output.Error("Scan failed: %v", err)
				return err
			}
			report.Skips = append(unresolved, report.Skips...)

			if app.Store != nil {
				run := scanRunRecord(listName, cond, report)
				if err := app.Store.LogScanRun(ctx, run); err != nil {
					app.Logger.Warn().Err(err).Msg("Failed to persist scan run")
				}
			}

			if output.IsJSON() {
				return output.JSON(report)
			}
			printScanReport(output, report)
			return nil
		},
	}

	cmd.Flags().Float64("rsi-above", 0, "require RSI above this value")
	cmd.Flags().Float64("rsi-below", 0, "require RSI below this value")
	cmd.Flags().String("relation", "", "EMA relation: price_above_ema20, price_below_ema20, ema20_above_ema50, ema20_below_ema50")
	cmd.Flags().Bool("no-base", false, "disable the EMA-ratio base filter")
	cmd.Flags().String("timeframe", "", "bar timeframe: day, week or month (default from config)")
	cmd.Flags().Int("days", 0, "history window in days (default from config)")

	return cmd
}

// barProvider adapts the marketdata fetcher to the scanner's provider
// contract, honoring the timeframe/window flags.
func (a *App) barProvider(cmd *cobra.Command) scanner.BarProvider {
	timeframe, _ := cmd.Flags().GetString("timeframe")
	if timeframe == "" {
		timeframe = a.Config.Data.DefaultTimeframe
	}
	days, _ := cmd.Flags().GetInt("days")
	if days <= 0 {
		days = a.Config.Data.HistoryDays
	}

	return func(ctx context.Context, inst models.Instrument) ([]models.Bar, error) {
		to := time.Now()
		from := to.AddDate(0, 0, -days)
		return a.Fetcher.Fetch(ctx, inst.Segment, inst.Token, timeframe, from, to)
	}
}

func indexInstrument(app *App, master *instruments.Master) models.Instrument {
	seg, ok := models.ParseSegment(app.Config.Scan.IndexSegment)
	if !ok {
		seg = models.NSE
	}
	inst, err := master.Resolve(app.Config.Scan.IndexSymbol, seg)
	if err != nil {
		app.Logger.Warn().Str("symbol", app.Config.Scan.IndexSymbol).Msg("Benchmark index not in scripmaster, relative strength unavailable")
		return models.Instrument{}
	}
	return inst
}

func conditionsFromFlags(cmd *cobra.Command, app *App) (scanner.Conditions, error) {
	cond := scanner.DefaultConditions(
		app.Config.Scan.EMA20LTPRatio,
		app.Config.Scan.EMA50EMA20Ratio,
		app.Config.Scan.RSIPeriod,
	)

	if noBase, _ := cmd.Flags().GetBool("no-base"); noBase {
		cond.EMARatiosEnabled = false
	}

	rsiAbove, _ := cmd.Flags().GetFloat64("rsi-above")
	rsiBelow, _ := cmd.Flags().GetFloat64("rsi-below")
	if rsiAbove > 0 && rsiBelow > 0 {
		return cond, fmt.Errorf("--rsi-above and --rsi-below are mutually exclusive")
	}
	if rsiAbove > 0 {
		cond.RSIEnabled = true
		cond.RSIThreshold = rsiAbove
		cond.RSIDirection = scanner.RSIAbove
	}
	if rsiBelow > 0 {
		cond.RSIEnabled = true
		cond.RSIThreshold = rsiBelow
		cond.RSIDirection = scanner.RSIBelow
	}

	relation, _ := cmd.Flags().GetString("relation")
	switch scanner.EMARelation(relation) {
	case scanner.RelationNone, scanner.PriceAboveEMA20, scanner.PriceBelowEMA20,
		scanner.EMA20AboveEMA50, scanner.EMA20BelowEMA50:
		cond.Relation = scanner.EMARelation(relation)
	default:
		return cond, fmt.Errorf("unknown relation %q", relation)
	}

	return cond, nil
}

func scanRunRecord(listName string, cond scanner.Conditions, report *scanner.Report) *store.ScanRun {
	return &store.ScanRun{
		RanAt:      time.Now(),
		Watchlist:  listName,
		Conditions: describeConditions(cond),
		Scanned:    report.Scanned,
		Matched:    len(report.Results),
		Skipped:    len(report.Skips),
		Results:    report.Results,
	}
}

func describeConditions(cond scanner.Conditions) string {
	var parts []string
	if cond.EMARatiosEnabled {
		parts = append(parts, fmt.Sprintf("20EMA/LTP>%.2f", cond.EMA20LTPRatio),
			fmt.Sprintf("50EMA/20EMA>%.2f", cond.EMA50EMA20Ratio))
	}
	if cond.RSIEnabled {
		op := ">"
		if cond.RSIDirection == scanner.RSIBelow {
			op = "<"
		}
		parts = append(parts, fmt.Sprintf("RSI%s%.0f", op, cond.RSIThreshold))
	}
	if cond.Relation != scanner.RelationNone {
		parts = append(parts, string(cond.Relation))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func printScanReport(output *Output, report *scanner.Report) {
	if len(report.Results) == 0 {
		output.Info("No matches (%d scanned, %d skipped).", report.Scanned, len(report.Skips))
	} else {
		table := NewTable(output, "SYMBOL", "LTP", "20EMA", "50EMA", "RSI", "RS", "CONDITIONS")
		for _, r := range report.Results {
			rsCell := "-"
			if r.RSFlag != "" {
				rsCell = fmt.Sprintf("%.3f %s", r.RSScore, string(r.RSFlag))
				if r.RSFlag == models.RSOutperform {
					rsCell = output.Green(rsCell)
				} else {
					rsCell = output.Red(rsCell)
				}
			}
			table.AddRow(
				r.Symbol,
				utils.FormatPrice(r.LastPrice),
				utils.FormatPrice(r.EMA20),
				utils.FormatPrice(r.EMA50),
				utils.FormatPrice(r.RSI14),
				rsCell,
				strings.Join(r.MatchedConditions, "; "),
			)
		}
		table.Render()
		output.Println()
		output.Printf("%d matched, %d scanned, %d skipped\n",
			len(report.Results), report.Scanned, len(report.Skips))
	}

	if len(report.Skips) > 0 {
		output.Println()
		output.Dim("Skipped:")
		for _, s := range report.Skips {
			output.Dim("  %s: %s", s.Symbol, s.Reason)
		}
	}
}

func newScanConditionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "conditions",
		Short: "Show the configured scan conditions",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			cond := scanner.DefaultConditions(
				app.Config.Scan.EMA20LTPRatio,
				app.Config.Scan.EMA50EMA20Ratio,
				app.Config.Scan.RSIPeriod,
			)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"base_filter":       cond.EMARatiosEnabled,
					"ema20_ltp_ratio":   cond.EMA20LTPRatio,
					"ema50_ema20_ratio": cond.EMA50EMA20Ratio,
					"rsi_period":        cond.RSIPeriod,
					"index_symbol":      app.Config.Scan.IndexSymbol,
					"relations": []string{
						string(scanner.PriceAboveEMA20), string(scanner.PriceBelowEMA20),
						string(scanner.EMA20AboveEMA50), string(scanner.EMA20BelowEMA50),
					},
				})
			}

			output.Println(output.BoldText("Base filter") + " (disable with --no-base)")
			output.Printf("  20EMA/LTP   > %.2f\n", cond.EMA20LTPRatio)
			output.Printf("  50EMA/20EMA > %.2f\n", cond.EMA50EMA20Ratio)
			output.Println()
			output.Println(output.BoldText("RSI") + fmt.Sprintf(" (period %d)", cond.RSIPeriod))
			output.Println("  --rsi-above N  require RSI above N")
			output.Println("  --rsi-below N  require RSI below N")
			output.Println()
			output.Println(output.BoldText("EMA relations") + " (--relation)")
			for _, rel := range []scanner.EMARelation{
				scanner.PriceAboveEMA20, scanner.PriceBelowEMA20,
				scanner.EMA20AboveEMA50, scanner.EMA20BelowEMA50,
			} {
				output.Printf("  %s\n", string(rel))
			}
			output.Println()
			output.Printf("Relative strength is computed against %s and shown with every result.\n",
				app.Config.Scan.IndexSymbol)
			return nil
		},
	}
}

func newScanHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent scan runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}

			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := app.Store.GetScanRuns(ctx, limit)
			if err != nil {
				output.Error("Failed to read scan history: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(runs)
			}

			if len(runs) == 0 {
				output.Info("No scan runs recorded.")
				return nil
			}

			table := NewTable(output, "TIME", "WATCHLIST", "CONDITIONS", "SCANNED", "MATCHED", "SKIPPED")
			for _, run := range runs {
				table.AddRow(
					run.RanAt.Format("02-01-2006 15:04"),
					run.Watchlist,
					run.Conditions,
					fmt.Sprintf("%d", run.Scanned),
					fmt.Sprintf("%d", run.Matched),
					fmt.Sprintf("%d", run.Skipped),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "number of runs to show")
	return cmd
}
