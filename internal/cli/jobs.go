package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/okian/roadlens/internal/app"
	"github.com/okian/roadlens/internal/domain/analytics"
	"github.com/okian/roadlens/internal/domain/model"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	confirmStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	rejectStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

func runJobs(ctx context.Context, svc *app.Service) error {
	jobs, err := svc.Jobs(ctx)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println(dimStyle.Render("no jobs yet; upload a video to create one"))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tFILE\tCREATED\tDURATION")
	for _, j := range jobs {
		duration := ""
		if j.DurationS > 0 {
			duration = fmt.Sprintf("%.1fs", j.DurationS)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", j.ID, j.Status, j.Filename, j.CreatedAt, duration)
	}
	return w.Flush()
}

func runJobDetail(ctx context.Context, svc *app.Service, args []string) error {
	fs := flag.NewFlagSet("job", flag.ContinueOnError)
	clip := fs.String("clip", "", "restrict events and analytics to one clip id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: roadlens job <id> [--clip <clip-id>]")
	}
	jobID, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid job id %q", fs.Arg(0))
	}

	vm, err := svc.Detail().Load(ctx, jobID, *clip)
	if err != nil {
		return err
	}
	renderDetail(svc, vm)
	return nil
}

func renderDetail(svc *app.Service, vm *model.JobDetail) {
	j := vm.Job
	fmt.Println(headingStyle.Render(fmt.Sprintf("Job %d: %s", j.ID, j.Filename)))
	fmt.Printf("  status: %s", j.Status)
	if j.DurationS > 0 {
		fmt.Printf("  duration: %.1fs", j.DurationS)
	}
	fmt.Println()
	if vm.ClipFilter != "" {
		fmt.Println(dimStyle.Render("  filtered to clip " + vm.ClipFilter))
	}
	fmt.Println(dimStyle.Render("  data pack: " + svc.DataPackURL(j.ID)))
	if vm.PreviewURL != "" {
		fmt.Println(dimStyle.Render("  preview:   " + vm.PreviewURL))
	}

	fmt.Println()
	fmt.Println(headingStyle.Render("Events"))
	if len(vm.Events) == 0 {
		fmt.Println(dimStyle.Render("  none detected"))
	}
	for _, e := range vm.Events {
		review := ""
		switch e.ReviewStatus {
		case string(model.ReviewConfirm), "confirmed":
			review = "  " + confirmStyle.Render("[confirmed]")
		case string(model.ReviewReject), "rejected":
			review = "  " + rejectStyle.Render("[rejected]")
		}
		fmt.Printf("  #%d  %-14s t=%.1fs  conf=%.2f%s\n", e.ID, e.Type, float64(e.Timestamp), e.Confidence, review)
	}

	fmt.Println()
	fmt.Println(headingStyle.Render("Event breakdown"))
	for _, tc := range analytics.HistogramByType(vm.Events) {
		fmt.Printf("  %-16s %d\n", tc.Type, tc.Count)
	}
	fmt.Println(headingStyle.Render("Timeline (10s buckets)"))
	for _, b := range analytics.TimeBuckets(vm.Events) {
		fmt.Printf("  %4ds  %s\n", b.Start, bar(b.Count))
	}

	if len(vm.Analytics) > 0 {
		fmt.Println()
		fmt.Println(headingStyle.Render("Congestion windows"))
		for _, win := range vm.Analytics {
			fmt.Printf("  %6.1fs–%-6.1fs  score=%.2f\n", win.TStart, win.TEnd, win.CongestionScore)
		}
	}

	if len(vm.Clips) > 0 {
		fmt.Println()
		fmt.Println(headingStyle.Render("Clips"))
		for _, c := range vm.Clips {
			fmt.Printf("  %s\n", c.ClipID)
		}
	}

	if len(vm.Artifacts) > 0 {
		fmt.Println()
		fmt.Println(headingStyle.Render("Artifacts"))
		for _, a := range vm.Artifacts {
			fmt.Printf("  %-24s %8d bytes  %s\n", a.Name, a.SizeBytes, dimStyle.Render(svc.ArtifactURL(j.ID, a.Name)))
		}
	}
}

func bar(n int) string {
	const max = 40
	if n > max {
		n = max
	}
	out := ""
	for i := 0; i < n; i++ {
		out += "█"
	}
	return out
}
