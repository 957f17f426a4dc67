package model

import (
	"fmt"

	"github.com/macmarek/scheduling-assistant/core/timegrid"
)

// Offsets outside this range do not correspond to any real time zone.
const (
	MinUTCOffsetMinutes = -12 * 60
	MaxUTCOffsetMinutes = 14 * 60
)

// Window is a half-open local time range in minutes past local midnight.
// End < Start denotes a window crossing local midnight; Start == End is empty.
type Window struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// DefaultWindow is the 09:00-17:00 working day.
var DefaultWindow = Window{Start: 9 * 60, End: 17 * 60}

// Validate checks both bounds lie within the day.
func (w Window) Validate() error {
	if w.Start < 0 || w.Start > timegrid.MinutesPerDay || w.End < 0 || w.End > timegrid.MinutesPerDay {
		return fmt.Errorf("window [%d,%d) outside [0,%d]", w.Start, w.End, timegrid.MinutesPerDay)
	}
	return nil
}

// String renders the window as HH:MM-HH:MM.
func (w Window) String() string {
	return timegrid.FormatClock(w.Start) + "-" + timegrid.FormatClock(w.End)
}

// Participant is a person who may be required by meetings.
type Participant struct {
	ID               string
	UTCOffsetMinutes int
	// Preferred is the local window in which meetings cause no discomfort.
	Preferred Window
	// Available optionally restricts hard availability separately from the
	// preference window. When nil the preferred window doubles as the hard
	// availability window.
	Available *Window
}

// AvailabilityWindow returns the window used for hard availability.
func (p Participant) AvailabilityWindow() Window {
	if p.Available != nil {
		return *p.Available
	}
	return p.Preferred
}

// Validate checks the offset and windows.
func (p Participant) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: participant without id", ErrInvalidInput)
	}
	if p.UTCOffsetMinutes < MinUTCOffsetMinutes || p.UTCOffsetMinutes > MaxUTCOffsetMinutes {
		return fmt.Errorf("%w: participant %q offset %d outside [%d,%d]", ErrInvalidInput, p.ID, p.UTCOffsetMinutes, MinUTCOffsetMinutes, MaxUTCOffsetMinutes)
	}
	if err := p.Preferred.Validate(); err != nil {
		return fmt.Errorf("%w: participant %q preferred %v", ErrInvalidInput, p.ID, err)
	}
	if p.Available != nil {
		if err := p.Available.Validate(); err != nil {
			return fmt.Errorf("%w: participant %q available %v", ErrInvalidInput, p.ID, err)
		}
	}
	return nil
}
