package models

import "time"

// GroupMember records a (group, user) participation. The composite primary
// key on (group_id, user_id) is the idempotency guard for member addition.
type GroupMember struct {
	GroupID string    `json:"group_id"`
	UserID  string    `json:"user_id"`
	AddedAt time.Time `json:"added_at"`
}
