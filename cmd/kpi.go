package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	kpicore "github.com/macmarek/scheduling-assistant/core/metrics/kpi"
	"github.com/macmarek/scheduling-assistant/core/scheduler/runlog"
	"github.com/macmarek/scheduling-assistant/infra/kpi"
	"github.com/macmarek/scheduling-assistant/jobs/participantkpi"
	"github.com/macmarek/scheduling-assistant/pkg/export"
)

var kpiOpts struct {
	db          string
	participant string
	days        int
	html        string
}

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Backfill and show per-participant meeting load from the run log",
	RunE:  runKPI,
}

func init() {
	f := kpiCmd.Flags()
	f.StringVar(&kpiOpts.db, "db", "kpi.db", "KPI database file")
	f.StringVarP(&kpiOpts.participant, "participant", "p", "", "only this participant")
	f.IntVar(&kpiOpts.days, "days", 30, "number of days to show, ending today")
	f.StringVar(&kpiOpts.html, "html", "", "also write an HTML chart to this file")
	rootCmd.AddCommand(kpiCmd)
}

func runKPI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runs, err := runlog.Open(cfg.RunLog)
	if err != nil {
		return fmt.Errorf("run log: %w", err)
	}
	defer func() { _ = runs.Close() }()
	store, err := kpi.NewSQLiteStore(kpiOpts.db)
	if err != nil {
		return fmt.Errorf("kpi store: %w", err)
	}
	defer func() { _ = store.Close() }()

	added, err := participantkpi.Backfill(cmd.Context(), runs, store, runlog.Query{})
	if err != nil {
		return fmt.Errorf("backfill: %w", err)
	}
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "%d new runs added\n", added)

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -kpiOpts.days)
	recs, err := store.Query(kpiOpts.participant, start, end)
	if err != nil {
		return err
	}
	if kpiOpts.html != "" {
		if err := writeChart(kpiOpts.html, start, end, recs); err != nil {
			return err
		}
	}
	warn := color.New(color.FgYellow)
	for _, r := range recs {
		line := fmt.Sprintf("%s  %-20s %2d meetings %4d min", r.Date.Format("2006-01-02"), r.ParticipantID, r.Meetings, r.MeetingMinutes)
		if r.DiscomfortSlots > 0 {
			_, _ = fmt.Fprint(w, line)
			_, _ = warn.Fprintf(w, "  %d slots outside preferred hours\n", r.DiscomfortSlots)
			continue
		}
		_, _ = fmt.Fprintln(w, line)
	}
	return nil
}

func writeChart(path string, start, end time.Time, recs []kpicore.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("Meeting load %s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err := export.WriteKPIChart(f, title, recs); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
