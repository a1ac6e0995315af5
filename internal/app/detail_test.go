package app_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/roadlens/internal/adapters/backend"
	"github.com/okian/roadlens/internal/app"
	"github.com/okian/roadlens/internal/domain/model"
)

// fakeDetailClient scripts the six per-job resources. eventsDelay lets the
// race test hold one filter's response in flight.
type fakeDetailClient struct {
	mu sync.Mutex

	job    *model.Job
	jobErr error

	eventsByFilter map[string][]model.Event
	eventsErr      error
	eventsDelay    map[string]time.Duration

	windows    []model.AnalyticsWindow
	windowsErr error

	artifacts    []model.Artifact
	artifactsErr error

	clips    []model.Clip
	clipsErr error

	previewURL string
	previewErr error
}

func newFakeDetailClient() *fakeDetailClient {
	return &fakeDetailClient{
		job: &model.Job{ID: 2, Status: "succeeded", Filename: "junction.mp4"},
		eventsByFilter: map[string][]model.Event{
			"": {
				{ID: 7, Type: "speeding", Timestamp: 12, Confidence: 0.9},
				{ID: 8, Type: "jaywalking", Timestamp: 5, Confidence: 0.7},
			},
		},
		windows:    []model.AnalyticsWindow{{TStart: 0, TEnd: 10, CongestionScore: 0.4}},
		artifacts:  []model.Artifact{{Name: "events.csv", SizeBytes: 2048}},
		clips:      []model.Clip{{ClipID: "clip-1"}, {ClipID: "clip-2"}},
		previewURL: "https://cdn.example.com/preview_tracking.mp4",
		eventsDelay: map[string]time.Duration{},
	}
}

func (f *fakeDetailClient) GetJob(context.Context, int64) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.job, f.jobErr
}

func (f *fakeDetailClient) ListEvents(ctx context.Context, _ int64, clipID string) ([]model.Event, error) {
	f.mu.Lock()
	events := f.eventsByFilter[clipID]
	err := f.eventsErr
	delay := f.eventsDelay[clipID]
	f.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return events, err
}

func (f *fakeDetailClient) ListAnalytics(context.Context, int64, string) ([]model.AnalyticsWindow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.windows, f.windowsErr
}

func (f *fakeDetailClient) ListArtifacts(context.Context, int64) ([]model.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.artifacts, f.artifactsErr
}

func (f *fakeDetailClient) ListClips(context.Context, int64) ([]model.Clip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clips, f.clipsErr
}

func (f *fakeDetailClient) PreviewAssetURL(context.Context, int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.previewURL, f.previewErr
}

func TestDetailLoader(t *testing.T) {
	Convey("Given a detail loader over a scripted backend", t, func() {
		client := newFakeDetailClient()
		loader := app.NewDetailLoader(client)
		ctx := context.Background()

		Convey("When every resource settles successfully", func() {
			vm, err := loader.Load(ctx, 2, "")

			Convey("Then the joined view model is complete", func() {
				So(err, ShouldBeNil)
				So(vm.Job, ShouldNotBeNil)
				So(vm.Events, ShouldHaveLength, 2)
				So(vm.Analytics, ShouldHaveLength, 1)
				So(vm.Artifacts, ShouldHaveLength, 1)
				So(vm.Clips, ShouldHaveLength, 2)
				So(vm.PreviewURL, ShouldNotBeEmpty)
				So(loader.Latest(), ShouldEqual, vm)
			})
		})

		Convey("When a required resource fails without a backend message", func() {
			client.eventsErr = &backend.APIError{Op: "load events", Status: 500}

			vm, err := loader.Load(ctx, 2, "")

			Convey("Then the aggregation aborts with the generic template", func() {
				So(vm, ShouldBeNil)
				So(err.Error(), ShouldEqual, "failed to load events (500)")
				So(loader.Latest(), ShouldBeNil)
			})
		})

		Convey("When a required resource fails with a backend message", func() {
			client.jobErr = &backend.APIError{Op: "load job", Status: 404, Detail: "job vanished"}

			_, err := loader.Load(ctx, 2, "")

			Convey("Then the backend's message is preferred", func() {
				So(err.Error(), ShouldEqual, "job vanished")
			})
		})

		Convey("When optional resources fail with application errors", func() {
			client.artifactsErr = &backend.APIError{Op: "load artifacts", Status: 500}
			client.clipsErr = &backend.APIError{Op: "load clips", Status: 500}
			client.previewErr = &backend.APIError{Op: "load preview", Status: 404, Detail: "Not found"}

			vm, err := loader.Load(ctx, 2, "")

			Convey("Then the aggregation degrades instead of aborting", func() {
				So(err, ShouldBeNil)
				So(vm.Artifacts, ShouldBeEmpty)
				So(vm.Clips, ShouldBeEmpty)
				So(vm.PreviewURL, ShouldBeEmpty)
				So(vm.Events, ShouldHaveLength, 2)
			})
		})

		Convey("When an optional resource fails at the transport level", func() {
			client.previewErr = fmt.Errorf("%w: nothing listening", backend.ErrTransport)

			vm, err := loader.Load(ctx, 2, "")

			Convey("Then the whole operation aborts", func() {
				So(vm, ShouldBeNil)
				So(err, ShouldWrap, backend.ErrTransport)
			})
		})

		Convey("When a newer filter supersedes an in-flight load", func() {
			client.mu.Lock()
			client.eventsByFilter["A"] = []model.Event{{ID: 1, Type: "speeding"}}
			client.eventsByFilter["B"] = []model.Event{{ID: 2, Type: "jaywalking"}}
			client.eventsDelay["A"] = 150 * time.Millisecond
			client.mu.Unlock()

			errA := make(chan error, 1)
			go func() {
				_, err := loader.Load(ctx, 2, "A")
				errA <- err
			}()
			time.Sleep(30 * time.Millisecond) // let A's fan-out start first

			vmB, errB := loader.Load(ctx, 2, "B")

			Convey("Then the exposed view model reflects the newest filter", func() {
				So(errB, ShouldBeNil)
				So(vmB.ClipFilter, ShouldEqual, "B")

				So(<-errA, ShouldWrap, app.ErrSuperseded)
				So(loader.Latest().ClipFilter, ShouldEqual, "B")
				So(loader.Latest().Events[0].Type, ShouldEqual, "jaywalking")
			})
		})
	})
}
