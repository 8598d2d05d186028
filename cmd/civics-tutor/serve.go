package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/mlourenco/civics-tutor/internal/config"
	"github.com/mlourenco/civics-tutor/internal/httpapi"
	"github.com/mlourenco/civics-tutor/pkg/log"
	"github.com/mlourenco/civics-tutor/web"
)

func newServeCmd() *cobra.Command {
	var noUI bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the civics tutor HTTP server",
		Long: `Starts the HTTP API and the embedded study UI. Current answers for
time-sensitive questions are refreshed on the configured cron schedule.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServe(cfg, !noUI)
		},
	}

	cmd.Flags().BoolVar(&noUI, "no-ui", false, "serve the API only, without the embedded UI")
	return cmd
}

func runServe(cfg *config.Config, ui bool) error {
	application, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	// The probe catches misconfigured keys and endpoints at startup.
	// The server still comes up on failure: cached content keeps working
	// even when the provider is unreachable.
	probeCtx, cancelProbe := context.WithTimeout(context.Background(), 15*time.Second)
	if err := application.orchestrator.Probe(probeCtx); err != nil {
		log.Warn("provider probe failed, serving cached content only: %v", err)
	} else {
		log.Info("provider probe succeeded")
	}
	cancelProbe()

	staticFS, err := web.StaticFS()
	if err != nil {
		return err
	}
	server := httpapi.NewServer(application.orchestrator, httpapi.WithUI(staticFS, ui))

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.CurrentAnswer.RefreshCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		n := application.orchestrator.RefreshCurrentAnswers(ctx)
		log.Info("scheduled current-answer refresh completed, %d questions resolved", n)
	}); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening on %s", cfg.Server.ListenAddr)
		errCh <- server.ListenAndServe(cfg.Server.ListenAddr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info("received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
