package cmd

import (
	"fmt"
	"os"

	"blindtest/config"
	"blindtest/logger"

	"github.com/spf13/cobra"
)

// v holds the environment, .env file and flag values of every command. It is
// built before any init so commands can bind their flags to it.
var v = config.New()

var rootCmd = &cobra.Command{
	Use:   "blindtest",
	Short: "Multiplayer blind test game server.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := config.FromViper(v)
		logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogFile,
			MaxSize:    cfg.LogMaxSize,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAge,
			Compress:   cfg.LogCompress,
		})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
	SilenceUsage: true,
}

func init() {
	fs := rootCmd.PersistentFlags()
	fs.String("log-level", "info", "debug, info, warn or error (env: LOG_LEVEL)")
	fs.String("log-file", "", "also write logs to this rotated file (env: LOG_FILE)")
	fs.String("catalog-url", "https://api.deezer.com", "catalog API base URL (env: CATALOG_API_URL)")
	bindFlags(v, fs, map[string]string{
		"log-level":   config.KeyLogLevel,
		"log-file":    config.KeyLogFile,
		"catalog-url": config.KeyCatalogAPIURL,
	})
}

// Execute executes the root command.
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
