package app

import (
	"context"
	"io"
	"time"

	"github.com/okian/roadlens/internal/domain/model"
	"github.com/okian/roadlens/pkg/logger"
)

// BackendClient bundles everything the orchestration layer needs from the
// backend adapter. *backend.Client satisfies it; tests substitute fakes.
type BackendClient interface {
	JobLister
	DetailClient
	OrgClient

	ReviewEvent(ctx context.Context, eventID int64, decision model.ReviewDecision) error
	UploadVideo(ctx context.Context, filename string, content io.Reader) (*model.UploadReceipt, error)
	DataPackURL(jobID int64) string
	ArtifactURL(jobID int64, name string) string
}

// Service is the facade the presentation layer talks to. It owns one detail
// loader and one org manager and hands out pollers on demand.
type Service struct {
	client       BackendClient
	log          logger.Logger
	pollInterval time.Duration

	detail *DetailLoader
	org    *OrgManager
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service and its components.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithPollInterval sets the cadence of pollers created by the service.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// New creates the orchestration service over a backend client.
func New(client BackendClient, opts ...Option) *Service {
	s := &Service{
		client:       client,
		log:          logger.Get().Named("app"),
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.detail = NewDetailLoader(client, WithDetailLogger(s.log.Named("detail")))
	s.org = NewOrgManager(client, WithOrgLogger(s.log.Named("org")))
	return s
}

// Jobs fetches the job collection once, outside any poller.
func (s *Service) Jobs(ctx context.Context) ([]model.Job, error) {
	return s.client.ListJobs(ctx)
}

// RunJob triggers processing for a queued job outside any poller.
func (s *Service) RunJob(ctx context.Context, jobID int64) error {
	return s.client.RunJob(ctx, jobID)
}

// NewPoller hands out a job list poller with the service's cadence.
func (s *Service) NewPoller() *Poller {
	return NewPoller(s.client,
		WithInterval(s.pollInterval),
		WithPollerLogger(s.log.Named("poller")),
	)
}

// Detail returns the job detail aggregator.
func (s *Service) Detail() *DetailLoader { return s.detail }

// Org returns the org/token manager.
func (s *Service) Org() *OrgManager { return s.org }

// Review submits a verdict for one event and re-derives the detail view
// from the backend. The review field is never mutated locally; whatever the
// refreshed aggregation reports is authoritative.
func (s *Service) Review(ctx context.Context, jobID int64, clipFilter string, eventID int64, decision model.ReviewDecision) (*model.JobDetail, error) {
	if err := s.client.ReviewEvent(ctx, eventID, decision); err != nil {
		return nil, err
	}
	return s.detail.Load(ctx, jobID, clipFilter)
}

// Upload submits a video file and returns the backend's job receipt.
func (s *Service) Upload(ctx context.Context, filename string, content io.Reader) (*model.UploadReceipt, error) {
	return s.client.UploadVideo(ctx, filename, content)
}

// DataPackURL composes the direct data-pack download link for a job.
func (s *Service) DataPackURL(jobID int64) string { return s.client.DataPackURL(jobID) }

// ArtifactURL composes the direct download link for one artifact.
func (s *Service) ArtifactURL(jobID int64, name string) string {
	return s.client.ArtifactURL(jobID, name)
}
