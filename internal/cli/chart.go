package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"noren-desk/internal/analysis/indicators"
	"noren-desk/internal/marketdata"
	"noren-desk/internal/models"
	"noren-desk/pkg/utils"
)

// addChartCommands adds the indicator summary command.
func addChartCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newChartCmd(app))
}

type chartSummary struct {
	Symbol        string                     `json:"symbol"`
	Timeframe     string                     `json:"timeframe"`
	Bars          int                        `json:"bars"`
	LastPrice     float64                    `json:"last_price"`
	EMA20         float64                    `json:"ema20"`
	EMA50         float64                    `json:"ema50"`
	RSI           float64                    `json:"rsi"`
	MACD          float64                    `json:"macd"`
	MACDSignal    float64                    `json:"macd_signal"`
	RSScore       float64                    `json:"rs_score,omitempty"`
	RSFlag        models.RSFlag              `json:"rs_flag,omitempty"`
	Distribution  *models.DistributionReport `json:"distribution,omitempty"`
}

func newChartCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart SYMBOL",
		Short: "Show an indicator summary for a symbol",
		Long: `Fetch historical bars for a symbol and print an indicator summary:
EMA 20/50, RSI, MACD, relative strength against the benchmark index,
and distribution warnings over the trailing window.`,
		Args: cobra.ExactArgs(1),
		Example: `  desk chart RELIANCE
  desk chart SBIN --timeframe week --days 400`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			segmentFlag, _ := cmd.Flags().GetString("segment")
			timeframe, _ := cmd.Flags().GetString("timeframe")
			days, _ := cmd.Flags().GetInt("days")

			segment, ok := models.ParseSegment(segmentFlag)
			if !ok {
				return fmt.Errorf("unknown segment %q", segmentFlag)
			}
			if timeframe == "" {
				timeframe = app.Config.Data.DefaultTimeframe
			}
			if days <= 0 {
				days = app.Config.Data.HistoryDays
			}

			master, err := app.Master()
			if err != nil {
				output.Error("Failed to load instrument master: %v", err)
				return err
			}
			inst, err := master.Resolve(symbol, segment)
			if err != nil {
				output.Error("Symbol %s not found in scripmaster", symbol)
				return err
			}

			to := time.Now()
			from := to.AddDate(0, 0, -days)
			bars, err := app.Fetcher.Fetch(ctx, inst.Segment, inst.Token, timeframe, from, to)
			if err != nil {
				output.Error("Failed to fetch bars: %v", err)
				return err
			}
			if len(bars) < 2 {
				output.Warning("Not enough data for %s (%d bars)", symbol, len(bars))
				return nil
			}

			closes := marketdata.Closes(bars)
			summary := &chartSummary{
				Symbol:    inst.Symbol,
				Timeframe: timeframe,
				Bars:      len(bars),
				LastPrice: closes[len(closes)-1],
			}

			if ema20, err := indicators.EMA(closes, 20); err == nil {
				summary.EMA20 = indicators.Last(ema20)
			}
			if ema50, err := indicators.EMA(closes, 50); err == nil {
				summary.EMA50 = indicators.Last(ema50)
			}
			if rsi, err := indicators.RSI(closes, app.Config.Scan.RSIPeriod); err == nil {
				summary.RSI = indicators.Last(rsi)
			}
			if macd, err := indicators.MACD(closes, 12, 26, 9); err == nil {
				summary.MACD = indicators.Last(macd.MACD)
				summary.MACDSignal = indicators.Last(macd.Signal)
			}

			// Relative strength against the benchmark; display only.
			if index := indexInstrument(app, master); index.Token != "" && !strings.EqualFold(index.Symbol, inst.Symbol) {
				if indexBars, err := app.Fetcher.Fetch(ctx, index.Segment, index.Token, timeframe, from, to); err == nil {
					if rs, err := indicators.RelativeStrength(bars, indexBars); err == nil {
						summary.RSScore = rs.Score
						summary.RSFlag = rs.Flag
					}
				}
			}

			if dist, err := indicators.DistributionSignals(bars, app.Config.Scan.DistributionLookback); err == nil {
				summary.Distribution = dist
			}

			if output.IsJSON() {
				return output.JSON(summary)
			}
			printChartSummary(output, summary, inst)
			return nil
		},
	}

	cmd.Flags().String("segment", "NSE", "exchange segment")
	cmd.Flags().String("timeframe", "", "bar timeframe: day, week or month (default from config)")
	cmd.Flags().Int("days", 0, "history window in days (default from config)")

	return cmd
}

func printChartSummary(output *Output, s *chartSummary, inst models.Instrument) {
	title := s.Symbol
	if inst.Company != "" {
		title = fmt.Sprintf("%s (%s)", s.Symbol, inst.Company)
	}
	output.Bold("%s — %s, %d bars", title, s.Timeframe, s.Bars)
	output.Println()

	output.Printf("  Last Price:  %s\n", utils.FormatPrice(s.LastPrice))
	output.Printf("  EMA 20:      %s\n", utils.FormatPrice(s.EMA20))
	output.Printf("  EMA 50:      %s\n", utils.FormatPrice(s.EMA50))
	output.Printf("  RSI:         %s\n", utils.FormatPrice(s.RSI))
	output.Printf("  MACD:        %s (signal %s)\n", utils.FormatPrice(s.MACD), utils.FormatPrice(s.MACDSignal))

	if s.RSFlag != "" {
		cell := fmt.Sprintf("%.3f %s", s.RSScore, string(s.RSFlag))
		if s.RSFlag == models.RSOutperform {
			cell = output.Green(cell)
		} else {
			cell = output.Red(cell)
		}
		output.Printf("  Rel. Str.:   %s\n", cell)
	}

	if d := s.Distribution; d != nil {
		output.Println()
		output.Bold("Distribution (last %d bars)", d.Lookback)
		output.Printf("  Up days:     %d of %d (%.0f%%)\n", d.UpDays, d.UpDays+d.DownDays, d.UpDayPercent)
		output.Printf("  Max gain:    %s\n", utils.FormatPercent(d.MaxDayGainPct))
		output.Printf("  Max spread:  %s\n", utils.FormatPrice(d.MaxSpread))
		if len(d.Warnings) == 0 {
			output.Success("  No distribution warnings")
		} else {
			for _, w := range d.Warnings {
				output.Warning("  ⚠ %s", w)
			}
		}
	}
}
