package analytics_test

import (
	"testing"

	"github.com/okian/roadlens/internal/domain/analytics"
	"github.com/okian/roadlens/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHistogramByType(t *testing.T) {
	Convey("Given a mixed event sequence", t, func() {
		events := []model.Event{
			{Type: "speeding", Timestamp: 12},
			{Type: "speeding", Timestamp: 23},
			{Type: "jaywalking", Timestamp: 5},
		}

		Convey("When grouping by type", func() {
			hist := analytics.HistogramByType(events)

			Convey("Then each type appears once, in first-occurrence order", func() {
				So(hist, ShouldResemble, []analytics.TypeCount{
					{Type: "speeding", Count: 2},
					{Type: "jaywalking", Count: 1},
				})
			})

			Convey("And the counts sum to the input length", func() {
				total := 0
				for _, tc := range hist {
					total += tc.Count
				}
				So(total, ShouldEqual, len(events))
			})
		})

		Convey("When grouping twice", func() {
			first := analytics.HistogramByType(events)
			second := analytics.HistogramByType(events)

			Convey("Then the output is identical", func() {
				So(second, ShouldResemble, first)
			})
		})
	})

	Convey("Given an empty event sequence", t, func() {
		Convey("When grouping by type", func() {
			hist := analytics.HistogramByType(nil)

			Convey("Then the result is empty, not an error", func() {
				So(hist, ShouldBeEmpty)
			})
		})
	})
}

func TestTimeBuckets(t *testing.T) {
	Convey("Given events spread over the timeline", t, func() {
		events := []model.Event{
			{Type: "speeding", Timestamp: 12},
			{Type: "speeding", Timestamp: 23},
			{Type: "jaywalking", Timestamp: 5},
		}

		Convey("When bucketing", func() {
			buckets := analytics.TimeBuckets(events)

			Convey("Then counts land in ascending 10s buckets", func() {
				So(buckets, ShouldResemble, []analytics.Bucket{
					{Start: 0, Count: 1},
					{Start: 10, Count: 2},
				})
			})

			Convey("And the counts sum to the input length", func() {
				total := 0
				for _, b := range buckets {
					total += b.Count
				}
				So(total, ShouldEqual, len(events))
			})
		})
	})

	Convey("Given events sharing one bucket", t, func() {
		events := []model.Event{
			{Timestamp: 30}, {Timestamp: 31}, {Timestamp: 39.9},
		}

		Convey("When bucketing", func() {
			buckets := analytics.TimeBuckets(events)

			Convey("Then there are no duplicate bucket keys", func() {
				So(buckets, ShouldResemble, []analytics.Bucket{{Start: 30, Count: 3}})
			})
		})
	})

	Convey("Given an event with no usable timestamp", t, func() {
		events := []model.Event{{Type: "loitering"}}

		Convey("When bucketing", func() {
			buckets := analytics.TimeBuckets(events)

			Convey("Then it counts toward bucket zero", func() {
				So(buckets, ShouldResemble, []analytics.Bucket{{Start: 0, Count: 1}})
			})
		})
	})

	Convey("Given an empty event sequence", t, func() {
		Convey("When bucketing", func() {
			So(analytics.TimeBuckets(nil), ShouldBeEmpty)
		})
	})
}
