package models

import "time"

// RefreshToken is one active refresh token row. Token is the opaque random
// value handed to the client and acts as the primary key.
type RefreshToken struct {
	Token     string
	UserID    string
	Expires   time.Time
	CreatedAt time.Time
}
