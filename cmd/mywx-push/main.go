package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/mywx-push/internal/api/http"
	"github.com/i474232898/mywx-push/internal/config"
	"github.com/i474232898/mywx-push/internal/logging"
	"github.com/i474232898/mywx-push/internal/observation"
	"github.com/i474232898/mywx-push/internal/push"
	"github.com/i474232898/mywx-push/internal/scheduler"
	"github.com/i474232898/mywx-push/internal/station"
	"github.com/i474232898/mywx-push/internal/status"
)

var version = "dev"

const appName = "mywx-push"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	rootCmd := newRootCmd(cfg)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.AppConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Push local weather station conditions to a remote endpoint",
		Long:          "Reads current conditions from a local station controller and optional air-quality sensors and pushes them on a fixed interval.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Host, "host", cfg.Host, "station controller host (required)")
	flags.StringVar(&cfg.OutdoorAQHost, "outdoor-aq-host", cfg.OutdoorAQHost, "outdoor air-quality sensor host")
	flags.StringVar(&cfg.IndoorAQHost, "indoor-aq-host", cfg.IndoorAQHost, "indoor air-quality sensor host")
	flags.StringVar(&cfg.BaseURI, "base-uri", cfg.BaseURI, "remote base URI")
	flags.StringVar(&cfg.Slug, "slug", cfg.Slug, "station slug (required)")
	flags.StringVar(&cfg.SecretKey, "secret-key", cfg.SecretKey, "station secret key (required)")
	flags.IntVar(&cfg.IntervalSeconds, "interval", cfg.IntervalSeconds, "seconds between pushes")
	flags.DurationVar(&cfg.HTTPTimeout, "http-timeout", cfg.HTTPTimeout, "timeout of each outbound HTTP request")
	flags.StringVar(&cfg.StatusAddr, "status-addr", cfg.StatusAddr, "listen address of the status endpoint (disabled when empty)")
	flags.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")

	return cmd
}

func run(parent context.Context, cfg *config.AppConfig) error {
	logger := logging.New(os.Stderr, cfg, version, appName)
	slog.SetDefault(logger)

	logger.Info("starting",
		"host", cfg.Host,
		"outdoor_aq_host", cfg.OutdoorAQHost,
		"indoor_aq_host", cfg.IndoorAQHost,
		"interval", cfg.Interval().String(),
	)

	// Shared HTTP client for station and push calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	pool := station.NewPool(httpClient)
	collector := observation.NewCollector(pool, observation.Hosts{
		Primary:   cfg.Host,
		OutdoorAQ: cfg.OutdoorAQHost,
		IndoorAQ:  cfg.IndoorAQHost,
	}, logger)

	pusher, err := push.New(httpClient, cfg.BaseURI, cfg.Slug, cfg.SecretKey)
	if err != nil {
		return err
	}
	logger.Debug("push target", "url", pusher.Target())

	tracker := status.NewTracker()

	sched := scheduler.New(cfg.Interval(), collector, pusher, tracker, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	var app *fiber.App
	if cfg.StatusAddr != "" {
		app = newStatusApp(tracker, cfg.Interval())
		go func() {
			if err := app.Listen(cfg.StatusAddr); err != nil {
				logger.Warn("status server stopped", "err", err)
			}
		}()
	}

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("shutting down")

	if app != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Warn("error during status server shutdown", "err", err)
		}
	}
	return nil
}

func newStatusApp(tracker *status.Tracker, interval time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
	app.Use(recover.New())

	// Stale after three missed cycles, with a minute of slack.
	httpapi.RegisterRoutes(app, tracker, 3*interval+time.Minute)
	return app
}
