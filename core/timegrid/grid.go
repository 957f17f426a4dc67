package timegrid

import (
	"errors"
	"fmt"
)

// MinutesPerDay is the length of the scheduling horizon.
const MinutesPerDay = 24 * 60

// DefaultSlotMinutes is the slot width used when none is configured.
const DefaultSlotMinutes = 30

var (
	// ErrSlotMinutes is returned for a slot width that does not tile the day.
	ErrSlotMinutes = errors.New("slot minutes must be positive and divide 1440")
	// ErrWrap is returned when a span would continue past the end of the day.
	ErrWrap = errors.New("span wraps past midnight")
	// ErrClockRange is returned for clock values outside [0, 1440].
	ErrClockRange = errors.New("clock value outside day")
)

// Slot indexes a fixed-width UTC interval of the scheduling day.
type Slot int

// Grid holds the discretisation of the day. The zero value is not usable;
// construct grids with New.
type Grid struct {
	slotMinutes int
	slots       int
}

// New returns a grid with the given slot width in minutes.
func New(slotMinutes int) (Grid, error) {
	if slotMinutes <= 0 || MinutesPerDay%slotMinutes != 0 {
		return Grid{}, fmt.Errorf("%w: got %d", ErrSlotMinutes, slotMinutes)
	}
	return Grid{slotMinutes: slotMinutes, slots: MinutesPerDay / slotMinutes}, nil
}

// MustNew is like New but panics on an invalid width. Intended for tests and
// package-level defaults.
func MustNew(slotMinutes int) Grid {
	g, err := New(slotMinutes)
	if err != nil {
		panic(err)
	}
	return g
}

// SlotMinutes returns the slot width.
func (g Grid) SlotMinutes() int { return g.slotMinutes }

// SlotCount returns the number of slots in the day.
func (g Grid) SlotCount() int { return g.slots }

// SlotToClock returns the start of the slot in minutes past UTC midnight.
func (g Grid) SlotToClock(s Slot) int { return int(s) * g.slotMinutes }

// ClockToSlot returns the slot starting at minutes. Values that are not
// slot-aligned round up to the next boundary. 1440 maps to SlotCount, the
// exclusive end of the day.
func (g Grid) ClockToSlot(minutes int) (Slot, error) {
	if minutes < 0 || minutes > MinutesPerDay {
		return 0, fmt.Errorf("%w: %d", ErrClockRange, minutes)
	}
	return Slot(ceilDiv(minutes, g.slotMinutes)), nil
}

// DurationSlots converts a duration in minutes to whole slots, rounding up.
func (g Grid) DurationSlots(minutes int) int {
	if minutes <= 0 {
		return 0
	}
	return ceilDiv(minutes, g.slotMinutes)
}

// Span returns the exclusive end slot of a span of n slots starting at start.
// Spans ending exactly at midnight are allowed; anything further is ErrWrap.
func (g Grid) Span(start Slot, n int) (Slot, error) {
	if start < 0 || int(start) >= g.slots || n < 0 {
		return 0, fmt.Errorf("span [%d,+%d) outside grid of %d slots", start, n, g.slots)
	}
	end := int(start) + n
	if end > g.slots {
		return 0, fmt.Errorf("%w: [%d,%d) with %d slots", ErrWrap, start, end, g.slots)
	}
	return Slot(end), nil
}

// Wrap reduces i modulo the slot count into [0, SlotCount).
func (g Grid) Wrap(i int) Slot {
	return Slot(mod(i, g.slots))
}

// SlotsForWindow returns the UTC slots overlapping the local window
// [localStart, localEnd) of a participant at offsetMinutes east of UTC.
//
// A window with localEnd < localStart crosses local midnight. An equal start
// and end is an empty window. Slot indices wrap circularly modulo SlotCount.
func (g Grid) SlotsForWindow(localStart, localEnd, offsetMinutes int) SlotSet {
	set := NewSlotSet(g.slots)
	length := localEnd - localStart
	if length < 0 {
		length += MinutesPerDay
	}
	if length == 0 {
		return set
	}
	utcStart := localStart - offsetMinutes
	first := floorDiv(utcStart, g.slotMinutes)
	last := ceilDiv(utcStart+length, g.slotMinutes)
	if last-first > g.slots {
		last = first + g.slots
	}
	for k := first; k < last; k++ {
		set[mod(k, g.slots)] = true
	}
	return set
}

// FormatClock renders minutes past midnight as HH:MM, wrapping modulo a day.
func FormatClock(minutes int) string {
	m := mod(minutes, MinutesPerDay)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}
