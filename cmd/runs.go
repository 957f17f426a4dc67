package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/macmarek/scheduling-assistant/core/model"
	"github.com/macmarek/scheduling-assistant/core/scheduler/runlog"
)

var runsOpts struct {
	outcome string
	meeting string
	since   time.Duration
	limit   int
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded scheduling runs",
	RunE:  runRuns,
}

func init() {
	f := runsCmd.Flags()
	f.StringVar(&runsOpts.outcome, "outcome", "", "only runs with this outcome")
	f.StringVar(&runsOpts.meeting, "meeting", "", "only runs including this meeting ID")
	f.DurationVar(&runsOpts.since, "since", 0, "only runs newer than this duration")
	f.IntVarP(&runsOpts.limit, "limit", "n", 20, "show at most this many recent runs (0 for all)")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := runlog.Open(cfg.RunLog)
	if err != nil {
		return fmt.Errorf("run log: %w", err)
	}
	defer func() { _ = store.Close() }()

	q := runlog.Query{Outcome: model.Outcome(runsOpts.outcome), MeetingID: runsOpts.meeting, Limit: runsOpts.limit}
	if runsOpts.since > 0 {
		q.Start = time.Now().Add(-runsOpts.since)
	}
	recs, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	for _, r := range recs {
		c := color.New(color.FgGreen)
		if r.Outcome != model.OutcomeScheduled {
			c = color.New(color.FgRed)
		}
		detail := fmt.Sprintf("objective %d", r.Objective)
		if r.Error != "" {
			detail = r.Error
		}
		_, _ = fmt.Fprintf(w, "%s  %s  ", r.Timestamp.Local().Format(time.DateTime), r.RunID)
		_, _ = c.Fprintf(w, "%-22s", r.Outcome)
		_, _ = fmt.Fprintf(w, " %s  %s\n", strings.Join(r.Meetings, ","), detail)
	}
	if len(recs) == 0 {
		_, _ = fmt.Fprintln(w, "no runs recorded")
	}
	return nil
}
