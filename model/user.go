package model

import (
	"database/sql"
	"time"
)

// User represents an account in the system.
type User struct {
	ID           int64          `json:"id"`
	Username     string         `json:"username"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"-"` // Not exposed in API responses
	Bio          sql.NullString `json:"bio,omitempty"`
	Image        sql.NullString `json:"image,omitempty"`
	Credits      int            `json:"credits"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}
