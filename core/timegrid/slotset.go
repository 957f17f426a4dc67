package timegrid

// SlotSet marks membership of each slot of a grid. Sets produced by this
// package are never mutated after construction; combinators return new sets.
type SlotSet []bool

// NewSlotSet returns an empty set sized for n slots.
func NewSlotSet(n int) SlotSet { return make(SlotSet, n) }

// Contains reports whether s is in the set. Out-of-range slots are not.
func (s SlotSet) Contains(slot Slot) bool {
	return slot >= 0 && int(slot) < len(s) && s[slot]
}

// ContainsAll reports whether every slot in [start, end) is in the set.
func (s SlotSet) ContainsAll(start, end Slot) bool {
	if start < 0 || int(end) > len(s) {
		return false
	}
	for t := start; t < end; t++ {
		if !s[t] {
			return false
		}
	}
	return true
}

// Count returns the number of member slots.
func (s SlotSet) Count() int {
	n := 0
	for _, v := range s {
		if v {
			n++
		}
	}
	return n
}

// Slots lists member slots in ascending order.
func (s SlotSet) Slots() []Slot {
	out := make([]Slot, 0, s.Count())
	for i, v := range s {
		if v {
			out = append(out, Slot(i))
		}
	}
	return out
}

// Union returns a new set containing the members of s and o.
func (s SlotSet) Union(o SlotSet) SlotSet {
	out := make(SlotSet, max(len(s), len(o)))
	for i := range out {
		out[i] = (i < len(s) && s[i]) || (i < len(o) && o[i])
	}
	return out
}

// Intersect returns a new set containing the slots in both s and o.
func (s SlotSet) Intersect(o SlotSet) SlotSet {
	out := make(SlotSet, min(len(s), len(o)))
	for i := range out {
		out[i] = s[i] && o[i]
	}
	return out
}

// IsSubsetOf reports whether every member of s is also in o.
func (s SlotSet) IsSubsetOf(o SlotSet) bool {
	for i, v := range s {
		if v && !o.Contains(Slot(i)) {
			return false
		}
	}
	return true
}
