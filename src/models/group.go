package models

import "time"

// Group is a leader-led sub-team inside an event. Seq is 1-based creation
// order within the event and exists only for display naming ("Outreach
// Group 3"); it can skip under concurrent creation, so ID is the identity.
type Group struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	LeaderID  string    `json:"leader_id"`
	Seq       int       `json:"seq"`
	Stats     Stats     `json:"stats"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats are the engagement counters a group accumulates over an event.
// Updates are additive deltas, never absolute overwrites.
type Stats struct {
	Vegan       int `json:"vegan"`
	Considered  int `json:"considered"`
	Thanked     int `json:"thanked"`
	Documentary int `json:"documentary"`
	Educated    int `json:"educated"`
}
