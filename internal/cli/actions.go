package cli

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/okian/roadlens/internal/app"
	"github.com/okian/roadlens/internal/config"
	"github.com/okian/roadlens/internal/domain/model"
	"github.com/okian/roadlens/internal/tui"
	"github.com/okian/roadlens/pkg/logger"
	"github.com/okian/roadlens/pkg/metrics"
)

func runWatch(ctx context.Context, svc *app.Service, cfg *config.Config) error {
	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr)
	}
	return tui.Run(ctx, svc.NewPoller())
}

// serveMetrics exposes the Prometheus registry for the lifetime of the watch
// session. Serve errors are logged, not fatal: the watch view works without it.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log := logger.Named("metrics")
	log.Info(ctx, "serving metrics", logger.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Warn(ctx, "metrics server stopped", logger.Error(err))
	}
}

func runJob(ctx context.Context, svc *app.Service, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: roadlens run <job-id>")
	}
	jobID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid job id %q", args[0])
	}
	if err := svc.RunJob(ctx, jobID); err != nil {
		return err
	}
	fmt.Printf("job %d queued for processing\n", jobID)
	return nil
}

func runReview(ctx context.Context, svc *app.Service, args []string) error {
	fs := flag.NewFlagSet("review", flag.ContinueOnError)
	clip := fs.String("clip", "", "clip filter to reuse for the refreshed view")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		return fmt.Errorf("usage: roadlens review <job-id> <event-id> confirm|reject [--clip <clip-id>]")
	}
	jobID, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid job id %q", fs.Arg(0))
	}
	eventID, err := strconv.ParseInt(fs.Arg(1), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid event id %q", fs.Arg(1))
	}
	decision := model.ReviewDecision(fs.Arg(2))
	if !decision.Valid() {
		return fmt.Errorf("decision must be %q or %q", model.ReviewConfirm, model.ReviewReject)
	}

	vm, err := svc.Review(ctx, jobID, *clip, eventID, decision)
	if err != nil {
		return err
	}
	fmt.Printf("event %d marked %s\n\n", eventID, decision)
	renderDetail(svc, vm)
	return nil
}

func runUpload(ctx context.Context, svc *app.Service, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: roadlens upload <file>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	receipt, err := svc.Upload(ctx, filepath.Base(args[0]), f)
	if err != nil {
		return err
	}
	fmt.Printf("uploaded %s: job %d (%s)\n", filepath.Base(args[0]), receipt.ID, receipt.Status)
	fmt.Println(dimStyle.Render("run it with: roadlens run " + strconv.FormatInt(receipt.ID, 10)))
	return nil
}
