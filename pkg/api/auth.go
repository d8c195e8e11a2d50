package api

import "time"

// RegisterRequest represents a request to create a new account
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents an authentication request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents a request to rotate a token pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse represents an issued token pair
type TokenResponse struct {
	AccessToken  string `json:"access_token"`  // short-lived JWT
	RefreshToken string `json:"refresh_token"` // long-lived JWT
	ExpiresIn    int64  `json:"expires_in"`    // access token lifetime in seconds
}

// UserResponse represents a user summary without sensitive fields
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorResponse represents an error reply
type ErrorResponse struct {
	Error   string `json:"error"`             // HTTP status text
	Message string `json:"message,omitempty"` // additional detail, never internal state
}
