package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/macmarek/scheduling-assistant/core/metrics/kpi"
)

// WriteKPIChart renders an HTML bar chart of meeting minutes and discomfort
// slots per participant, summed over recs.
func WriteKPIChart(w io.Writer, title string, recs []kpi.Record) error {
	type totals struct{ minutes, discomfort int }
	by := map[string]*totals{}
	for _, r := range recs {
		t := by[r.ParticipantID]
		if t == nil {
			t = &totals{}
			by[r.ParticipantID] = t
		}
		t.minutes += r.MeetingMinutes
		t.discomfort += r.DiscomfortSlots
	}
	names := make([]string, 0, len(by))
	for n := range by {
		names = append(names, n)
	}
	sort.Strings(names)

	minutes := make([]opts.BarData, 0, len(names))
	discomfort := make([]opts.BarData, 0, len(names))
	for _, n := range names {
		minutes = append(minutes, opts.BarData{Value: by[n].minutes})
		discomfort = append(discomfort, opts.BarData{Value: by[n].discomfort})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Participant"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Minutes / slots"}),
	)
	bar.SetXAxis(names).
		AddSeries("Meeting minutes", minutes).
		AddSeries("Slots outside preferred hours", discomfort)
	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
