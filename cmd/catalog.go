package cmd

import (
	"context"
	"fmt"

	"blindtest/config"
	"blindtest/core/catalog"
	"blindtest/model"

	"github.com/spf13/cobra"
)

var catalogLimit int

var catalogCmd = &cobra.Command{
	Use:   "catalog <playlist-id>",
	Short: "Fetch a playlist the way a room would",
	Long:  `Fetch a playlist from the catalog API and print the playable tracks with their fingerprints.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromViper(v)
		client := catalog.NewClient(cfg.CatalogAPIURL, cfg.CatalogTimeout)

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.CatalogTimeout)
		defer cancel()
		c, err := client.FetchCatalog(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s (%d playable tracks)\n", c.Title, len(c.Tracks))
		for i := range c.Tracks {
			if catalogLimit > 0 && i >= catalogLimit {
				fmt.Printf("... %d more\n", len(c.Tracks)-i)
				break
			}
			printTrack(&c.Tracks[i])
		}
		return nil
	},
}

func printTrack(t *model.Track) {
	fmt.Printf("%10d  %-30s  %-40s  %s\n", t.ID, t.ArtistName, t.AnswerTitle(), t.EnsureFingerprint())
}

func init() {
	catalogCmd.Flags().IntVarP(&catalogLimit, "limit", "n", 0, "print at most n tracks")
	rootCmd.AddCommand(catalogCmd)
}
