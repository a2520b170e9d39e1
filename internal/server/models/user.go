package models

import "time"

// User is an account. Email is stored normalized and is unique.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
