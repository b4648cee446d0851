package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"noren-desk/internal/models"
)

// addWatchlistCommands adds watchlist management commands.
func addWatchlistCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage scan watchlists",
	}

	cmd.AddCommand(newWatchlistAddCmd(app))
	cmd.AddCommand(newWatchlistRemoveCmd(app))
	cmd.AddCommand(newWatchlistShowCmd(app))
	cmd.AddCommand(newWatchlistListsCmd(app))
	cmd.AddCommand(newWatchlistImportCmd(app))

	rootCmd.AddCommand(cmd)
}

func newWatchlistAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add SYMBOL...",
		Short:   "Add symbols to a watchlist",
		Args:    cobra.MinimumNArgs(1),
		Example: `  desk watchlist add RELIANCE SBIN INFY --list momentum`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}

			listName, _ := cmd.Flags().GetString("list")
			segment, _ := cmd.Flags().GetString("segment")
			if _, ok := models.ParseSegment(segment); !ok {
				return fmt.Errorf("unknown segment %q", segment)
			}

			for _, symbol := range args {
				symbol = strings.ToUpper(symbol)
				if err := app.Store.AddToWatchlist(ctx, listName, symbol, strings.ToUpper(segment)); err != nil {
					output.Error("Failed to add %s: %v", symbol, err)
					return err
				}
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"list": listName, "added": len(args)})
			}
			output.Success("✓ Added %d symbol(s) to %q", len(args), listName)
			return nil
		},
	}

	cmd.Flags().String("list", "default", "watchlist name")
	cmd.Flags().String("segment", "NSE", "exchange segment")
	return cmd
}

func newWatchlistRemoveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove SYMBOL...",
		Short: "Remove symbols from a watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}

			listName, _ := cmd.Flags().GetString("list")
			for _, symbol := range args {
				symbol = strings.ToUpper(symbol)
				if err := app.Store.RemoveFromWatchlist(ctx, listName, symbol); err != nil {
					output.Error("Failed to remove %s: %v", symbol, err)
					return err
				}
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"list": listName, "removed": len(args)})
			}
			output.Success("✓ Removed %d symbol(s) from %q", len(args), listName)
			return nil
		},
	}

	cmd.Flags().String("list", "default", "watchlist name")
	return cmd
}

func newWatchlistShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [WATCHLIST]",
		Short: "Show the symbols in a watchlist",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}

			listName := "default"
			if len(args) == 1 {
				listName = args[0]
			}

			entries, err := app.Store.GetWatchlist(ctx, listName)
			if err != nil {
				output.Error("Failed to read watchlist: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(entries)
			}

			if len(entries) == 0 {
				output.Info("Watchlist %q is empty.", listName)
				return nil
			}

			table := NewTable(output, "SYMBOL", "SEGMENT", "ADDED")
			for _, e := range entries {
				table.AddRow(e.Symbol, e.Segment, e.AddedAt.Format("02-01-2006"))
			}
			table.Render()
			return nil
		},
	}

	return cmd
}

func newWatchlistListsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "List all watchlist names",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}

			names, err := app.Store.ListWatchlists(ctx)
			if err != nil {
				output.Error("Failed to list watchlists: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(names)
			}

			if len(names) == 0 {
				output.Info("No watchlists yet.")
				return nil
			}
			for _, name := range names {
				output.Println(name)
			}
			return nil
		},
	}
}

// watchlistRow is one row of a watchlist CSV import file. Only the
// symbol column is required.
type watchlistRow struct {
	Symbol  string `csv:"symbol"`
	Segment string `csv:"segment"`
}

func newWatchlistImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import symbols from a CSV file",
		Long: `Import symbols into a watchlist from a CSV file with a header row.
Expected columns: symbol (required), segment (optional, default NSE).`,
		Args:    cobra.ExactArgs(1),
		Example: `  desk watchlist import stocks.csv --list momentum`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}

			f, err := os.Open(args[0])
			if err != nil {
				output.Error("Failed to open %s: %v", args[0], err)
				return err
			}
			defer f.Close()

			var rows []watchlistRow
			if err := gocsv.UnmarshalFile(f, &rows); err != nil {
				output.Error("Failed to parse CSV: %v", err)
				return err
			}

			listName, _ := cmd.Flags().GetString("list")
			added, skipped := 0, 0
			for _, row := range rows {
				symbol := strings.ToUpper(strings.TrimSpace(row.Symbol))
				if symbol == "" {
					skipped++
					continue
				}
				segment := strings.ToUpper(strings.TrimSpace(row.Segment))
				if _, ok := models.ParseSegment(segment); !ok {
					segment = string(models.NSE)
				}
				if err := app.Store.AddToWatchlist(ctx, listName, symbol, segment); err != nil {
					output.Warning("Skipping %s: %v", symbol, err)
					skipped++
					continue
				}
				added++
			}

			if output.IsJSON() {
				return output.JSON(map[string]int{"added": added, "skipped": skipped})
			}
			output.Success("✓ Imported %d symbol(s) into %q (%d skipped)", added, listName, skipped)
			return nil
		},
	}

	cmd.Flags().String("list", "default", "watchlist name")
	return cmd
}
