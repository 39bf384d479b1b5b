package cmd

import (
	"fmt"

	"blindtest/cache"
	"blindtest/config"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Check the Redis connection",
	Long:  `Connect to Redis and run a write, read and delete round trip on a throwaway key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromViper(v)
		fmt.Printf("Redis: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		client, err := cache.NewRedisClient(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		fmt.Println("connected")

		if err := cache.SelfTest(cmd.Context(), client); err != nil {
			return err
		}
		fmt.Println("read/write round trip ok")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
