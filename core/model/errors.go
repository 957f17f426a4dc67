package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput rejects malformed meetings, participants or settings.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsatisfiableMeeting reports a meeting with no feasible start slot.
	ErrUnsatisfiableMeeting = errors.New("unsatisfiable meeting")
	// ErrGlobalInfeasible reports meetings that fit individually but not
	// together.
	ErrGlobalInfeasible = errors.New("no schedule satisfies all meetings together")
	// ErrSolverTimeout reports a solver that stopped without a verdict.
	ErrSolverTimeout = errors.New("solver stopped before finding a schedule")
	// ErrInternalConsistency reports a solution violating the model contract.
	ErrInternalConsistency = errors.New("internal consistency violation")
)

// UnsatisfiableError identifies the meeting that has no candidate start.
type UnsatisfiableError struct {
	MeetingID string
}

func (e *UnsatisfiableError) Error() string {
	return fmt.Sprintf("%v: %q has no start slot where all participants are available", ErrUnsatisfiableMeeting, e.MeetingID)
}

// Is matches ErrUnsatisfiableMeeting.
func (e *UnsatisfiableError) Is(target error) bool { return target == ErrUnsatisfiableMeeting }

// Outcome classifies a scheduling run for reporting.
type Outcome string

const (
	OutcomeScheduled     Outcome = "scheduled"
	OutcomeInvalidInput  Outcome = "invalid_input"
	OutcomeUnsatisfiable Outcome = "unsatisfiable_meeting"
	OutcomeInfeasible    Outcome = "global_infeasible"
	OutcomeTimeout       Outcome = "solver_timeout"
	OutcomeInternal      Outcome = "internal_consistency"
	OutcomeError         Outcome = "error"
)

// OutcomeOf maps a run error to its outcome. A nil error is OutcomeScheduled.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeScheduled
	case errors.Is(err, ErrInvalidInput):
		return OutcomeInvalidInput
	case errors.Is(err, ErrUnsatisfiableMeeting):
		return OutcomeUnsatisfiable
	case errors.Is(err, ErrGlobalInfeasible):
		return OutcomeInfeasible
	case errors.Is(err, ErrSolverTimeout):
		return OutcomeTimeout
	case errors.Is(err, ErrInternalConsistency):
		return OutcomeInternal
	default:
		return OutcomeError
	}
}
