package main

import (
	"fmt"
	"os"

	"noren-desk/internal/cli"
	"noren-desk/internal/config"
	"noren-desk/internal/logging"
)

func main() {
	// The --config flag has to be read before cobra parses anything,
	// because config decides how the command tree is wired.
	configDir := ""
	for i, arg := range os.Args {
		if arg == "--config" && i+1 < len(os.Args) {
			configDir = os.Args[i+1]
		}
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultLogConfig()
	logCfg.Console = false // keep command output clean; logs go to file
	logger := logging.NewLoggerWithConfig(logCfg)

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
