// Package events defines the scheduling events emitted on the event bus.
//
// Available event types:
//   - RunCompleted: a scheduling run finished, successfully or not
package events
