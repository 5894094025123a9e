package auth

import "time"

// User is one clerk account from the legacy user registry.
type User struct {
	Code         string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
