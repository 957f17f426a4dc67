// Package timegrid discretises a single UTC day into fixed-width slots.
//
// Slot i covers the half-open interval [i*w, (i+1)*w) minutes past UTC
// midnight, where w is the slot width. Meeting spans never wrap past the end
// of the day. Local preference windows do wrap: once shifted by a UTC offset
// they are reduced circularly modulo the slot count, because only one day is
// modelled.
package timegrid
