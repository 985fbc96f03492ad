// Package events defines the matching related events emitted on the event bus.
//
// Available event types:
//   - RoundEvent: one proposal/resolution round finished
//   - UnitDissolvedEvent: a sibling unit lost its stay-together constraint
//   - FallbackEvent: an applicant was placed by the fallback allocator
//   - RunCompletedEvent: a run finished
package events
