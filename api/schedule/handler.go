package schedule

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/macmarek/scheduling-assistant/core/decoder"
	"github.com/macmarek/scheduling-assistant/core/model"
	"github.com/macmarek/scheduling-assistant/core/scheduler"
)

// Runner runs one scheduling request.
type Runner interface {
	Schedule(ctx context.Context, req scheduler.Request) (*scheduler.Result, error)
}

// Stats is the JSON form of scheduler.Stats.
type Stats struct {
	Candidates  int     `json:"candidates"`
	Constraints int     `json:"constraints"`
	Status      string  `json:"solver_status,omitempty"`
	Nodes       int     `json:"nodes"`
	SolveMS     float64 `json:"solve_ms"`
	DurationMS  float64 `json:"duration_ms"`
}

// Response is the body returned by POST /api/schedule.
type Response struct {
	RunID                string            `json:"run_id,omitempty"`
	Outcome              model.Outcome     `json:"outcome"`
	Error                string            `json:"error,omitempty"`
	UnsatisfiableMeeting string            `json:"unsatisfiable_meeting,omitempty"`
	Schedule             *decoder.Schedule `json:"schedule,omitempty"`
	Stats                *Stats            `json:"stats,omitempty"`
}

// NewScheduleHandler returns an HTTP handler solving requests via POST
// /api/schedule. Bodies use the scheduler input format, as JSON or, with a
// YAML content type, as YAML. Requests must include an Authorization header
// with "Bearer <token>" when token is non-empty.
func NewScheduleHandler(s Runner, token string, maxBody int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if maxBody > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}
		format := "json"
		if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
			format = "yaml"
		}
		in, err := scheduler.DecodeInput(r.Body, format)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Response{Outcome: model.OutcomeInvalidInput, Error: err.Error()})
			return
		}
		req, err := in.Request()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Response{Outcome: model.OutcomeInvalidInput, Error: err.Error()})
			return
		}

		res, err := s.Schedule(r.Context(), req)
		out := Response{RunID: res.RunID, Outcome: res.Outcome, Schedule: res.Schedule, Stats: &Stats{
			Candidates:  res.Stats.Candidates,
			Constraints: res.Stats.Constraints,
			Status:      res.Stats.Status,
			Nodes:       res.Stats.Nodes,
			SolveMS:     float64(res.Stats.SolveTime.Microseconds()) / 1000,
			DurationMS:  float64(res.Stats.Duration.Microseconds()) / 1000,
		}}
		if err != nil {
			out.Error = err.Error()
			var unsat *model.UnsatisfiableError
			if errors.As(err, &unsat) {
				out.UnsatisfiableMeeting = unsat.MeetingID
			}
		}
		writeJSON(w, statusFor(res.Outcome), out)
	})
}

func statusFor(o model.Outcome) int {
	switch o {
	case model.OutcomeScheduled:
		return http.StatusOK
	case model.OutcomeInvalidInput:
		return http.StatusBadRequest
	case model.OutcomeUnsatisfiable, model.OutcomeInfeasible:
		return http.StatusUnprocessableEntity
	case model.OutcomeTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
