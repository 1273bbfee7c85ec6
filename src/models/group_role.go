package models

import "time"

// GroupRoleBinding links a group to the platform role that mirrors its
// roster. Exactly one binding exists per group, created in the same
// transaction as the group itself.
type GroupRoleBinding struct {
	GroupID   string    `json:"group_id"`
	RoleID    string    `json:"role_id"`
	CreatedAt time.Time `json:"created_at"`
}
