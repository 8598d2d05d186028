package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cache-stats",
		Short: "Print content cache statistics as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			application, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			stats := application.orchestrator.CacheStats(cmd.Context())
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}
}
