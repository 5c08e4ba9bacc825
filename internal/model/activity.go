package model

import "time"

// Activity is one entry of the staff activity log.
type Activity struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Activity  string    `json:"activity" db:"activity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
