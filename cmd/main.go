package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/roadlens/internal/adapters/backend"
	"github.com/okian/roadlens/internal/app"
	"github.com/okian/roadlens/internal/cli"
	"github.com/okian/roadlens/internal/config"
	"github.com/okian/roadlens/pkg/logger"
	"github.com/okian/roadlens/pkg/metrics"
)

func main() {
	// Initialize logging before anything that might want to log.
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Apply configured log level (fallback to info on invalid input).
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Init(metrics.WithNamespace("roadlens"))

	dispatcher := backend.NewDispatcher(cfg.APIBase(),
		backend.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout()}),
		backend.WithDispatcherLogger(log.Named("dispatch")),
	)
	session := backend.NewSession(dispatcher, cfg.Username, cfg.Password,
		backend.WithSessionLogger(log.Named("session")),
	)
	client := backend.NewClient(dispatcher, session,
		backend.WithPreviewAsset(cfg.PreviewAsset),
		backend.WithClientLogger(log.Named("backend")),
	)

	svc := app.New(client,
		app.WithLogger(log),
		app.WithPollInterval(cfg.PollInterval()),
	)

	if err := cli.Run(ctx, svc, cfg, os.Args[1:]); err != nil {
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
