package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/roadlens/internal/adapters/backend"
	"github.com/okian/roadlens/internal/domain/model"
	"github.com/okian/roadlens/pkg/logger"
	"github.com/okian/roadlens/pkg/metrics"
)

// DetailClient is what the aggregator needs from the backend client.
type DetailClient interface {
	GetJob(ctx context.Context, jobID int64) (*model.Job, error)
	ListEvents(ctx context.Context, jobID int64, clipID string) ([]model.Event, error)
	ListAnalytics(ctx context.Context, jobID int64, clipID string) ([]model.AnalyticsWindow, error)
	ListArtifacts(ctx context.Context, jobID int64) ([]model.Artifact, error)
	ListClips(ctx context.Context, jobID int64) ([]model.Clip, error)
	PreviewAssetURL(ctx context.Context, jobID int64) (string, error)
}

// DetailLoader aggregates the six per-job resources into one JobDetail.
//
// Job metadata, events, and analytics are required: any failure there aborts
// the whole aggregation. Artifacts, clips, and the preview asset are
// optional: an application-level failure degrades them to empty values.
//
// Invocations are tagged with a monotonically increasing sequence number.
// When a newer Load starts before an older one settles, the older result is
// discarded, so the exposed view model always reflects the most recently
// requested filter rather than the most recently completed response.
type DetailLoader struct {
	client DetailClient
	log    logger.Logger

	seq    atomic.Uint64
	mu     sync.RWMutex
	latest *model.JobDetail
}

// DetailOption applies a configuration option to the DetailLoader.
type DetailOption func(*DetailLoader)

// WithDetailLogger sets a custom logger for the loader.
func WithDetailLogger(log logger.Logger) DetailOption {
	return func(l *DetailLoader) {
		if log != nil {
			l.log = log
		}
	}
}

// NewDetailLoader creates a job detail aggregator over the given client.
func NewDetailLoader(client DetailClient, opts ...DetailOption) *DetailLoader {
	l := &DetailLoader{
		client: client,
		log:    logger.Get().Named("detail"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fans out the six resource fetches in parallel, waits for all of them
// to settle, and joins them into a JobDetail. A superseded invocation
// returns ErrSuperseded and leaves the exposed view model untouched.
func (l *DetailLoader) Load(ctx context.Context, jobID int64, clipFilter string) (*model.JobDetail, error) {
	tag := l.seq.Add(1)
	start := time.Now()

	var (
		wg sync.WaitGroup

		job    *model.Job
		jobErr error

		events    []model.Event
		eventsErr error

		windows    []model.AnalyticsWindow
		windowsErr error

		artifacts    []model.Artifact
		artifactsErr error

		clips    []model.Clip
		clipsErr error

		previewURL string
		previewErr error
	)

	wg.Add(6)
	go func() { defer wg.Done(); job, jobErr = l.client.GetJob(ctx, jobID) }()
	go func() { defer wg.Done(); events, eventsErr = l.client.ListEvents(ctx, jobID, clipFilter) }()
	go func() { defer wg.Done(); windows, windowsErr = l.client.ListAnalytics(ctx, jobID, clipFilter) }()
	go func() { defer wg.Done(); artifacts, artifactsErr = l.client.ListArtifacts(ctx, jobID) }()
	go func() { defer wg.Done(); clips, clipsErr = l.client.ListClips(ctx, jobID) }()
	go func() { defer wg.Done(); previewURL, previewErr = l.client.PreviewAssetURL(ctx, jobID) }()
	wg.Wait()

	stale := func() bool { return tag != l.seq.Load() }

	// Required resources abort the whole aggregation.
	for _, err := range []error{jobErr, eventsErr, windowsErr} {
		if err == nil {
			continue
		}
		if stale() {
			metrics.RecordStaleAggregation()
			return nil, ErrSuperseded
		}
		metrics.RecordAggregationFailure()
		return nil, err
	}

	// Optional resources degrade on application errors only; transport and
	// auth failures still abort, since nothing useful was reachable.
	for _, err := range []error{artifactsErr, clipsErr, previewErr} {
		if err == nil || backend.IsApplicationError(err) {
			continue
		}
		if stale() {
			metrics.RecordStaleAggregation()
			return nil, ErrSuperseded
		}
		metrics.RecordAggregationFailure()
		return nil, err
	}

	if artifactsErr != nil {
		artifacts = nil
	}
	if clipsErr != nil {
		clips = nil
	}
	if previewErr != nil {
		previewURL = ""
	}

	vm := &model.JobDetail{
		Job:        job,
		Events:     events,
		Analytics:  windows,
		Artifacts:  artifacts,
		Clips:      clips,
		PreviewURL: previewURL,
		ClipFilter: clipFilter,
	}

	l.mu.Lock()
	if tag != l.seq.Load() {
		l.mu.Unlock()
		metrics.RecordStaleAggregation()
		l.log.Debug(ctx, "discarding superseded aggregation",
			logger.Int64("job_id", jobID),
			logger.String("clip_filter", clipFilter))
		return nil, ErrSuperseded
	}
	l.latest = vm
	l.mu.Unlock()

	metrics.RecordAggregation()
	metrics.RecordAggregationLatency(time.Since(start).Seconds())
	l.log.Debug(ctx, "aggregation complete",
		logger.Int64("job_id", jobID),
		logger.Int("events", len(events)),
		logger.Int("windows", len(windows)),
		logger.Duration("elapsed", time.Since(start)))
	return vm, nil
}

// Latest returns the most recently exposed view model, or nil before the
// first successful Load.
func (l *DetailLoader) Latest() *model.JobDetail {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.latest
}
