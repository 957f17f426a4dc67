package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/macmarek/scheduling-assistant/app"
	"github.com/macmarek/scheduling-assistant/core/decoder"
	"github.com/macmarek/scheduling-assistant/core/scheduler"
	"github.com/macmarek/scheduling-assistant/infra/logger"
	"github.com/macmarek/scheduling-assistant/pkg/export"
)

var solveOpts struct {
	output    string
	solver    string
	timeLimit float64
	slot      int
	day       string
}

var solveCmd = &cobra.Command{
	Use:   "solve <input.yaml|input.json>",
	Short: "Schedule the meetings of an input file and print the result",
	Args:  cobra.ExactArgs(1),
	RunE:  runSolve,
}

func init() {
	f := solveCmd.Flags()
	f.StringVarP(&solveOpts.output, "output", "o", "table", "output format: table, json or csv")
	f.StringVar(&solveOpts.solver, "solver", "", "solver engine: lp or backtrack")
	f.Float64Var(&solveOpts.timeLimit, "time-limit", 0, "solver time limit in seconds")
	f.IntVar(&solveOpts.slot, "slot", 0, "slot length in minutes")
	f.StringVar(&solveOpts.day, "day", "", "anchor date (YYYY-MM-DD)")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	switch solveOpts.output {
	case "table", "json", "csv":
	default:
		return fmt.Errorf("unknown output format %q", solveOpts.output)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if solveOpts.solver != "" {
		cfg.Scheduler.Solver.Type = solveOpts.solver
	}
	if solveOpts.timeLimit > 0 {
		cfg.Scheduler.SolverTimeLimitSeconds = solveOpts.timeLimit
	}
	if solveOpts.slot > 0 {
		cfg.Scheduler.SlotMinutes = solveOpts.slot
	}
	if solveOpts.day != "" {
		cfg.Scheduler.Day = solveOpts.day
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	in, err := scheduler.LoadInput(args[0])
	if err != nil {
		return fmt.Errorf("load input: %w", err)
	}
	req, err := in.Request()
	if err != nil {
		return err
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("solve").Errorf("service close: %v", err)
		}
	}()

	res, err := svc.Scheduler.Schedule(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("run %s: %w", res.RunID, err)
	}
	out := cmd.OutOrStdout()
	switch solveOpts.output {
	case "json":
		return export.WriteJSON(out, res.Schedule)
	case "csv":
		return export.WriteCSV(out, res.Schedule)
	}
	renderSchedule(out, res.Schedule)
	return nil
}

// renderSchedule prints one block per meeting with the UTC slot and every
// attendee's local time. Meetings with discomfort are highlighted.
func renderSchedule(w io.Writer, s *decoder.Schedule) {
	bold := color.New(color.Bold)
	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	grey := color.New(color.FgHiBlack)

	_, _ = bold.Fprintf(w, "Schedule for %s (%s, total discomfort %d)\n", s.Day.Format("2006-01-02"), s.StatusName, s.Objective)
	for _, e := range s.Entries {
		label := e.MeetingID
		if e.Team != "" {
			label += " [" + e.Team + "]"
		}
		c := ok
		if e.Discomfort > 0 {
			c = warn
		}
		_, _ = c.Fprintf(w, "%-32s %s-%s UTC  discomfort %d\n", label, e.Start.Format("15:04"), e.End.Format("15:04"), e.Discomfort)
		for _, a := range e.Attendees {
			name, _ := a.LocalStart.Zone()
			day := ""
			if a.LocalStart.YearDay() != e.Start.YearDay() {
				day = " (" + a.LocalStart.Format("Mon") + ")"
			}
			_, _ = grey.Fprintf(w, "    %-20s %s-%s %s%s\n", a.ParticipantID, a.LocalStart.Format("15:04"), a.LocalEnd.Format("15:04"), name, day)
		}
	}
	if len(s.Entries) == 0 {
		_, _ = fmt.Fprintln(w, "no meetings")
	}
}
