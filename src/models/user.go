package models

import "time"

// User is the locally persisted profile of a platform member. Rows are
// upserted before anything references the user id as a foreign key.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	UpdatedAt time.Time `json:"updated_at"`
}
