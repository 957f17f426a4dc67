// Package scheduler places a day's meetings on the UTC slot grid.
//
// A run validates the request, projects each participant's local windows
// onto the grid, enumerates candidate start slots, builds a 0-1 model and
// solves it under a time limit. The assignment is decoded into a Schedule
// with UTC and per-attendee local times. Every run is logged, recorded in
// the metrics sink, appended to the run log and published on the event bus.
//
// Requests can be read from YAML or JSON files with LoadInput.
package scheduler
