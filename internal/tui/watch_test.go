package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/roadlens/internal/domain/model"
)

func TestWatchModelUpdate(t *testing.T) {
	Convey("Given a fresh watch model", t, func() {
		updates := make(chan tea.Msg, 1)
		m := newWatchModel(context.Background(), nil, updates)

		Convey("When a jobs snapshot arrives", func() {
			next, _ := m.Update(jobsMsg([]model.Job{
				{ID: 1, Status: "queued", Filename: "a.mp4"},
				{ID: 2, Status: "succeeded", Filename: "b.mp4", DurationS: 42.5},
			}))
			nm := next.(watchModel)

			Convey("Then the table rows mirror the snapshot", func() {
				So(nm.jobs, ShouldHaveLength, 2)
				So(nm.table.Rows(), ShouldHaveLength, 2)
				So(nm.table.Rows()[1][3], ShouldEqual, "42.5s")
				So(nm.lastErr, ShouldBeEmpty)
			})
		})

		Convey("When a poll error follows a snapshot", func() {
			next, _ := m.Update(jobsMsg([]model.Job{{ID: 1, Status: "queued", Filename: "a.mp4"}}))
			next, _ = next.(watchModel).Update(pollErrMsg{err: errors.New("backend unreachable")})
			nm := next.(watchModel)

			Convey("Then the stale rows stay visible alongside the error", func() {
				So(nm.table.Rows(), ShouldHaveLength, 1)
				So(nm.lastErr, ShouldContainSubstring, "backend unreachable")
				So(strings.Contains(nm.View(), "last known list"), ShouldBeTrue)
			})
		})

		Convey("When a run completes", func() {
			next, _ := m.Update(runDoneMsg{jobID: 3})
			nm := next.(watchModel)

			Convey("Then the status line reports it", func() {
				So(nm.status, ShouldContainSubstring, "job 3")
			})
		})

		Convey("When quit is pressed", func() {
			_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

			Convey("Then the program is told to exit", func() {
				So(cmd, ShouldNotBeNil)
				So(cmd(), ShouldHaveSameTypeAs, tea.Quit())
			})
		})
	})
}
