package models

import "time"

// User represents a registered account.
// PasswordHash is an argon2id PHC string and must never be written to
// logs or serialized into API responses.
type User struct {
	ID           string    `json:"id"`         // UUID
	Email        string    `json:"email"`      // unique, stored lowercased
	PasswordHash string    `json:"-"`          // argon2id PHC string
	CreatedAt    time.Time `json:"created_at"` // creation time
	UpdatedAt    time.Time `json:"updated_at"` // last modification time
}
