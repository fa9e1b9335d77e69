// Package events defines the typed events published by the interview
// orchestrator while a session progresses: phase and mic-gate changes,
// transcript mutations, playback milestones, and finalization results.
//
// Events are value types. Consumers switch on the concrete type (or on
// [Event.Kind]) and must not retain references into the orchestrator's
// internal state; every payload is a copy taken at emission time.
package events
