package model

import (
	"fmt"

	"github.com/macmarek/scheduling-assistant/core/timegrid"
)

// Meeting must be placed once within the day with all its participants.
type Meeting struct {
	ID              string
	Team            string
	DurationMinutes int
	Participants    []string
}

// DurationSlots returns the meeting length on g, rounded up to whole slots.
func (m Meeting) DurationSlots(g timegrid.Grid) int {
	return g.DurationSlots(m.DurationMinutes)
}

// Requires reports whether participant id attends the meeting.
func (m Meeting) Requires(id string) bool {
	for _, p := range m.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// Validate checks the meeting on its own; references to participants are
// checked by the package-level Validate.
func (m Meeting) Validate(g timegrid.Grid) error {
	if m.ID == "" {
		return fmt.Errorf("%w: meeting without id", ErrInvalidInput)
	}
	if len(m.Participants) == 0 {
		return fmt.Errorf("%w: meeting %q has no participants", ErrInvalidInput, m.ID)
	}
	if m.DurationMinutes <= 0 {
		return fmt.Errorf("%w: meeting %q duration %d must be positive", ErrInvalidInput, m.ID, m.DurationMinutes)
	}
	if d := m.DurationSlots(g); d > g.SlotCount() {
		return fmt.Errorf("%w: meeting %q lasts %d slots, day has %d", ErrInvalidInput, m.ID, d, g.SlotCount())
	}
	seen := make(map[string]struct{}, len(m.Participants))
	for _, p := range m.Participants {
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: meeting %q lists %q twice", ErrInvalidInput, m.ID, p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// Validate rejects malformed input before any model is built.
func Validate(g timegrid.Grid, meetings []Meeting, participants []Participant) error {
	if len(meetings) == 0 {
		return fmt.Errorf("%w: no meetings", ErrInvalidInput)
	}
	known := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, dup := known[p.ID]; dup {
			return fmt.Errorf("%w: duplicate participant %q", ErrInvalidInput, p.ID)
		}
		known[p.ID] = struct{}{}
	}
	ids := make(map[string]struct{}, len(meetings))
	for _, m := range meetings {
		if err := m.Validate(g); err != nil {
			return err
		}
		if _, dup := ids[m.ID]; dup {
			return fmt.Errorf("%w: duplicate meeting %q", ErrInvalidInput, m.ID)
		}
		ids[m.ID] = struct{}{}
		for _, p := range m.Participants {
			if _, ok := known[p]; !ok {
				return fmt.Errorf("%w: meeting %q requires unknown participant %q", ErrInvalidInput, m.ID, p)
			}
		}
	}
	return nil
}
