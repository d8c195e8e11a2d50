package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken indicates that a user with this email already exists
	ErrEmailTaken = errors.New("email already taken")

	// ErrTranscriptNotFound indicates that the transcript does not exist
	// or belongs to a different user. Storage never distinguishes the two.
	ErrTranscriptNotFound = errors.New("transcript not found")
)
