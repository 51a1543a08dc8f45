package domain

import "time"

// DefaultRole is assigned to every newly registered user.
const DefaultRole = "user"

// User is the stored identity record. Created on registration, mutated on
// password change, never physically deleted by the auth flows themselves.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // argon2id PHC encoded
	Roles        []string
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
