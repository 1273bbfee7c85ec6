package models

import "time"

// EventTypeOutreach is the campaign type seeded at boot. The type table is
// a lookup so new campaign kinds can be added without a schema change.
const EventTypeOutreach = "discord-outreach"

// Event is a time-boxed outreach campaign. At most one event is open
// (EndTime null) system-wide; a partial unique index on the events table
// enforces that, not application code.
type Event struct {
	ID        string     `json:"id"`
	LeaderID  string     `json:"leader_id"`
	EventType string     `json:"event_type"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Started reports whether the event has been explicitly started. A pending
// event still blocks creation of a second one.
func (e Event) Started() bool {
	return e.StartTime != nil
}
