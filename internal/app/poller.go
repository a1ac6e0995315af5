// Package app provides the orchestration services behind the dashboard:
// the job list poller, the job detail aggregator, the review mutator, and
// the org/token manager. It owns no rendering; consumers receive view
// models and callbacks.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/okian/roadlens/internal/domain/model"
	"github.com/okian/roadlens/pkg/logger"
	"github.com/okian/roadlens/pkg/metrics"
)

// defaultPollInterval matches the dashboard's refresh cadence.
const defaultPollInterval = 5 * time.Second

// JobLister is what the poller needs from the backend client.
type JobLister interface {
	ListJobs(ctx context.Context) ([]model.Job, error)
	RunJob(ctx context.Context, jobID int64) error
}

// Poller keeps an approximately fresh snapshot of the job collection by
// fetching it on a fixed cadence. On failure the previous snapshot stays
// visible (stale-but-available); the error is surfaced separately.
type Poller struct {
	client   JobLister
	interval time.Duration
	log      logger.Logger

	mu       sync.Mutex
	started  bool
	stopped  bool
	latest   []model.Job
	onUpdate func([]model.Job)
	onError  func(error)

	cycleMu sync.Mutex // one fetch cycle at a time; tick and forced fetch never interleave

	cancel context.CancelFunc
	kick   chan struct{}
}

// PollerOption applies a configuration option to the Poller.
type PollerOption func(*Poller)

// WithInterval overrides the poll cadence.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithPollerLogger sets a custom logger for the poller.
func WithPollerLogger(log logger.Logger) PollerOption {
	return func(p *Poller) {
		if log != nil {
			p.log = log
		}
	}
}

// NewPoller creates a job list poller over the given client.
func NewPoller(client JobLister, opts ...PollerOption) *Poller {
	p := &Poller{
		client:   client,
		interval: defaultPollInterval,
		log:      logger.Get().Named("poller"),
		kick:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start triggers one immediate fetch and then refetches on the configured
// interval until the returned stop function is called. After stop returns,
// neither callback fires again, even for a request already in flight.
func (p *Poller) Start(ctx context.Context, onUpdate func([]model.Job), onError func(error)) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	p.started = true
	p.stopped = false
	p.onUpdate = onUpdate
	p.onError = onError
	p.cancel = cancel
	p.mu.Unlock()

	go p.run(ctx)

	return func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()
		cancel()
	}
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cycle(ctx)
		case <-p.kick:
			p.cycle(ctx)
		}
	}
}

// cycle performs one atomic fetch. The cycle mutex guarantees the timer and
// a forced fetch never produce interleaved list states.
func (p *Poller) cycle(ctx context.Context) {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	jobs, err := p.client.ListJobs(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		metrics.RecordPollFailure()
		p.log.Warn(ctx, "poll cycle failed; keeping previous job list", logger.Error(err))
		p.deliverError(err)
		return
	}
	metrics.RecordPollCycle()
	p.deliverUpdate(jobs)
}

func (p *Poller) deliverUpdate(jobs []model.Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.latest = jobs
	if p.onUpdate != nil {
		p.onUpdate(jobs)
	}
}

func (p *Poller) deliverError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	if p.onError != nil {
		p.onError(err)
	}
}

// Latest returns the most recent successfully fetched job list. It stays
// populated across failed cycles.
func (p *Poller) Latest() []model.Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// TriggerRun dispatches a run request for a queued job and, on success,
// forces an immediate extra fetch instead of waiting for the next tick.
func (p *Poller) TriggerRun(ctx context.Context, jobID int64) error {
	p.mu.Lock()
	if p.stopped || !p.started {
		p.mu.Unlock()
		return ErrStopped
	}
	p.mu.Unlock()

	if err := p.client.RunJob(ctx, jobID); err != nil {
		return err
	}

	select {
	case p.kick <- struct{}{}:
	default: // a forced fetch is already pending
	}
	return nil
}
