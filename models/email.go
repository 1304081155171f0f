package models

import "time"

// Email is a captured address.
type Email struct {
	Email     string    `db:"email"      json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
