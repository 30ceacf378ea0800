// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a directory entry. PasswordHash is a bcrypt hash and never leaves
// the directory layer.
type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}
