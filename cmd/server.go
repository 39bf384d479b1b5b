package cmd

import (
	"time"

	"blindtest/config"
	"blindtest/logger"
	"blindtest/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the game server",
	Long:  `Start the HTTP server: the game websocket on /ws, room snapshots, health checks and, with a database, the blindtest API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	cfg := config.FromViper(v)
	logger.Info("starting blindtest server",
		logger.String("port", cfg.Port),
		logger.String("catalog", cfg.CatalogAPIURL),
		logger.Duration("round", cfg.RoundDuration),
		logger.Duration("wait", cfg.WaitDuration),
		logger.Bool("redis", cfg.RedisEnabled),
		logger.Bool("db", cfg.DBEnabled))
	return server.Start(cfg)
}

func init() {
	fs := serverCmd.Flags()
	fs.StringP("port", "p", "8080", "port to listen on (env: PORT)")
	fs.Duration("tick", time.Second, "scheduler tick interval (env: GAME_TICK_INTERVAL)")
	fs.Duration("round", 30*time.Second, "how long a track plays (env: GAME_ROUND_DURATION)")
	fs.Duration("wait", 5*time.Second, "pause between two tracks (env: GAME_WAIT_DURATION)")
	fs.Bool("no-repeat", false, "never play the same track twice in a row (env: GAME_NO_IMMEDIATE_REPEAT)")
	fs.String("phrases", "", "JSON phrasebook, reloaded on change (env: GAME_PHRASES_FILE)")
	fs.Bool("redis", false, "cache catalogs in Redis (env: REDIS_ENABLED)")
	fs.Bool("db", false, "serve the blindtest API from MySQL (env: DB_ENABLED)")
	bindFlags(v, fs, map[string]string{
		"port":      config.KeyPort,
		"tick":      config.KeyTickInterval,
		"round":     config.KeyRoundDuration,
		"wait":      config.KeyWaitDuration,
		"no-repeat": config.KeyNoImmediateRepeat,
		"phrases":   config.KeyPhrasesFile,
		"redis":     config.KeyRedisEnabled,
		"db":        config.KeyDBEnabled,
	})

	rootCmd.AddCommand(serverCmd)
}
