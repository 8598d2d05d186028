package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/mlourenco/civics-tutor/pkg/log"
)

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-current",
		Short: "Resolve current answers for time-sensitive questions once and exit",
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

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			n := application.orchestrator.RefreshCurrentAnswers(ctx)
			log.Info("refreshed current answers for %d questions", n)
			return nil
		},
	}
}
