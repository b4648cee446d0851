package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"noren-desk/internal/broker"
	"noren-desk/internal/config"
	"noren-desk/internal/instruments"
	"noren-desk/internal/logging"
	"noren-desk/internal/marketdata"
	"noren-desk/internal/session"
	"noren-desk/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-01-15"
)

// App holds the application dependencies.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Broker  broker.Broker
	Store   store.DataStore
	Fetcher *marketdata.Fetcher

	master *instruments.Master
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize broker with any persisted session; the session may be
	// empty or expired, commands that need one check before calling out.
	sess, err := session.Load(cfg.SessionPath())
	if err != nil {
		sess = nil
		logger.Debug().Err(err).Msg("no valid session on disk")
	}
	app.Broker = broker.NewNorenClient(cfg.Broker, cfg.Credentials, sess, logger)
	app.Fetcher = marketdata.NewFetcher(app.Broker, logger)

	// Initialize SQLite store
	dataStore, err := store.NewSQLiteStore(cfg.DatabasePath())
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, some features may be unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Msg("SQLite store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "desk",
		Short: "Noren Desk - retail trading dashboard CLI",
		Long: `Noren Desk is a trading dashboard CLI for Noren-style broker APIs
(Prostocks, Shoonya and compatible platforms).

It covers session login, portfolio views, order placement with bracket
legs, GTT alerts, watchlist scans and indicator summaries.

Use 'desk help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/noren-desk)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	// Add all command groups
	addCoreCommands(rootCmd, app)
	addAuthCommands(rootCmd, app)
	addPortfolioCommands(rootCmd, app)
	addOrderCommands(rootCmd, app)
	addGTTCommands(rootCmd, app)
	addBracketCommands(rootCmd, app)
	addScanCommands(rootCmd, app)
	addChartCommands(rootCmd, app)
	addWatchlistCommands(rootCmd, app)

	return rootCmd
}

// Master lazily loads the instrument master from the configured
// scripmaster path. Loading is deferred because most commands never
// need symbol resolution.
func (a *App) Master() (*instruments.Master, error) {
	if a.master != nil {
		return a.master, nil
	}
	m, err := instruments.Load(a.Config.Data.ScripmasterPath)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug().Int("instruments", m.Count()).Msg("instrument master loaded")
	a.master = m
	return m, nil
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Noren Desk v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write template config files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			dir := app.Config.ConfigDir
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			if err := config.WriteTemplates(dir); err != nil {
				return err
			}
			output.Success("Config templates written to %s", dir)
			output.Dim("Edit credentials.toml before logging in.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Broker")
	output.Printf("  Base URL:        %s\n", cfg.Broker.BaseURL)
	output.Printf("  Timeout:         %ds\n", cfg.Broker.TimeoutSeconds)
	output.Println()

	output.Bold("Data")
	output.Printf("  Scripmaster:     %s\n", cfg.Data.ScripmasterPath)
	output.Printf("  Timeframe:       %s\n", cfg.Data.DefaultTimeframe)
	output.Printf("  History Days:    %d\n", cfg.Data.HistoryDays)
	output.Println()

	output.Bold("Scan")
	output.Printf("  Index:           %s (%s)\n", cfg.Scan.IndexSymbol, cfg.Scan.IndexSegment)
	output.Printf("  20EMA/LTP:       %.2f\n", cfg.Scan.EMA20LTPRatio)
	output.Printf("  50EMA/20EMA:     %.2f\n", cfg.Scan.EMA50EMA20Ratio)
	output.Printf("  RSI Period:      %d\n", cfg.Scan.RSIPeriod)
	output.Printf("  Dist. Lookback:  %d\n", cfg.Scan.DistributionLookback)
	output.Println()

	output.Bold("Orders")
	output.Printf("  Dup Tolerance:   %.2f\n", cfg.Orders.DuplicatePriceTolerance)
	output.Printf("  SL Offset %%:     %.2f\n", cfg.Orders.SLLimitOffsetPct)
	output.Printf("  Product:         %s\n", cfg.Orders.DefaultProduct)

	return nil
}
