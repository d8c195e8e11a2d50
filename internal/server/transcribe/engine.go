// Package transcribe orchestrates the upload-to-transcript pipeline
// around an opaque speech-recognition engine.
package transcribe

import "context"

//go:generate go tool moq -out engine_mock.go . Engine

// Result is what the engine produces for one audio file
type Result struct {
	Text            string
	DurationSeconds *float64 // nil when the engine does not report it
}

// Engine is the external transcription capability. Implementations may
// be slow; callers bound them with the context deadline. The engine is
// never retried by the pipeline.
type Engine interface {
	Transcribe(ctx context.Context, audioPath string) (Result, error)
}
