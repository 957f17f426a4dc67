// Package availability projects participants' local windows onto the UTC
// slot grid.
package availability

import (
	"github.com/macmarek/scheduling-assistant/core/model"
	"github.com/macmarek/scheduling-assistant/core/timegrid"
)

// Availability holds the UTC slots of one participant.
type Availability struct {
	ParticipantID string
	// Available slots are hard constraints: meetings may only use them.
	Available timegrid.SlotSet
	// Preferred slots carry no discomfort penalty.
	Preferred timegrid.SlotSet
}

// Projection maps participant IDs to their projected slots.
type Projection map[string]Availability

// Project converts every participant's windows into UTC slot sets.
func Project(g timegrid.Grid, participants []model.Participant) Projection {
	out := make(Projection, len(participants))
	for _, p := range participants {
		preferred := g.SlotsForWindow(p.Preferred.Start, p.Preferred.End, p.UTCOffsetMinutes)
		available := preferred
		if p.Available != nil {
			available = g.SlotsForWindow(p.Available.Start, p.Available.End, p.UTCOffsetMinutes)
		}
		out[p.ID] = Availability{ParticipantID: p.ID, Available: available, Preferred: preferred}
	}
	return out
}

// AvailableFor reports whether participant id can attend every slot of
// [start, end).
func (p Projection) AvailableFor(id string, start, end timegrid.Slot) bool {
	a, ok := p[id]
	return ok && a.Available.ContainsAll(start, end)
}

// Discomfort counts the slots of [start, end) outside id's preferred window.
func (p Projection) Discomfort(id string, start, end timegrid.Slot) int {
	a := p[id]
	n := 0
	for t := start; t < end; t++ {
		if !a.Preferred.Contains(t) {
			n++
		}
	}
	return n
}
