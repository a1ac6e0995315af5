package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a metrics manager", t, func() {
		Convey("When created with defaults", func() {
			m := NewManager(WithRegistry(prometheus.NewRegistry()))

			Convey("Then it should be created successfully", func() {
				So(m, ShouldNotBeNil)
			})
		})

		Convey("When created with a custom namespace", func() {
			m := NewManager(
				WithNamespace("test"),
				WithRegistry(prometheus.NewRegistry()),
			)

			Convey("Then it should be created successfully", func() {
				So(m, ShouldNotBeNil)
			})
		})
	})
}

func TestRecordingHelpers(t *testing.T) {
	Convey("Given an installed global manager", t, func() {
		Init(WithRegistry(prometheus.NewRegistry()))

		Convey("When recording dispatcher metrics", func() {
			So(func() {
				RecordRequest("list_jobs", "2xx")
				RecordRequestDuration("list_jobs", 0.05)
				RecordTransportError("list_jobs")
			}, ShouldNotPanic)
		})

		Convey("When recording session and poller metrics", func() {
			So(func() {
				RecordLogin()
				RecordAuthFailure()
				RecordPollCycle()
				RecordPollFailure()
			}, ShouldNotPanic)
		})

		Convey("When recording aggregation and mutation metrics", func() {
			So(func() {
				RecordAggregation()
				RecordAggregationFailure()
				RecordStaleAggregation()
				RecordAggregationLatency(0.2)
				RecordReviewSubmission("confirm")
				RecordTokenMutation("create")
			}, ShouldNotPanic)
		})

		Convey("When serving the registry", func() {
			So(Handler(), ShouldNotBeNil)
		})
	})
}
