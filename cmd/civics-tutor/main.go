package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mlourenco/civics-tutor/internal/config"
	"github.com/mlourenco/civics-tutor/pkg/log"
)

var version = "dev"

var configFile string

func main() {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:     "civics-tutor",
		Short:   "Study aid for the US citizenship civics test",
		Version: version,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "optional YAML config file")

	root.AddCommand(
		newServeCmd(),
		newRefreshCmd(),
		newCacheStatsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig builds the configuration from the environment plus the
// optional --config overlay, and initializes logging.
func loadConfig() (*config.Config, error) {
	opts := []config.Option{}
	if configFile != "" {
		opts = append(opts, config.WithFile(configFile))
	}
	cfg, err := config.NewFromEnv(opts...)
	if err != nil {
		return nil, err
	}

	level := log.ParseLevel(cfg.Log.Level)
	if cfg.Log.File != "" {
		if err := log.InitFileLogger(cfg.Log.File, level); err != nil {
			return nil, err
		}
	} else {
		log.InitLogger(level)
	}
	return cfg, nil
}
