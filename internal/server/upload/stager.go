// Package upload stages incoming audio payloads on disk.
// A staged file lives in the scratch directory only for the duration of
// one request; the owning pipeline removes it on every exit path.
package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Typed rejections. The stager never leaves a partial file behind when
// returning any of these.
var (
	// ErrTooLarge indicates the declared or streamed size exceeds the
	// configured maximum
	ErrTooLarge = errors.New("upload too large")

	// ErrUnsupportedFormat indicates a file extension outside the
	// configured allow-set
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrStreamTruncated indicates the body could not be read to the
	// end, e.g. the caller disconnected mid-upload
	ErrStreamTruncated = errors.New("upload stream truncated")
)

// Handle references one staged temporary file
type Handle struct {
	Path   string // absolute path inside the scratch directory
	Size   int64  // bytes actually written
	Format string // lowercased extension without the dot
}

// Remove deletes the staged file. Safe to call more than once.
func (h *Handle) Remove() error {
	err := os.Remove(h.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove staged file: %w", err)
	}
	return nil
}

// Stager validates and stages uploads into a scratch directory
type Stager struct {
	scratchDir string
	maxSize    int64
	allowed    map[string]bool
}

// NewStager creates a stager. formats is the extension allow-set
// (lowercase, without dots). The scratch directory is created if needed.
func NewStager(scratchDir string, maxSize int64, formats []string) (*Stager, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}

	if err := os.MkdirAll(scratchDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	allowed := make(map[string]bool, len(formats))
	for _, f := range formats {
		allowed[strings.ToLower(f)] = true
	}

	return &Stager{
		scratchDir: scratchDir,
		maxSize:    maxSize,
		allowed:    allowed,
	}, nil
}

// Stage writes body to a uniquely named scratch file and returns a
// handle to it. Checks run in order: declared size, format, then a
// streaming guard that caps the bytes actually read even when the
// declared length understated the payload.
func (s *Stager) Stage(filename string, declaredSize int64, body io.Reader) (*Handle, error) {
	if declaredSize > s.maxSize {
		return nil, ErrTooLarge
	}

	format, err := s.checkFormat(filename)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(s.scratchDir, fmt.Sprintf("upload_%s.%s", uuid.New().String(), format))

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch file: %w", err)
	}

	written, err := io.Copy(dst, io.LimitReader(body, s.maxSize+1))

	if closeErr := dst.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to flush scratch file: %w", closeErr)
	}

	if err != nil {
		s.discard(path)
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrStreamTruncated
		}
		return nil, fmt.Errorf("%w: %s", ErrStreamTruncated, err)
	}

	if written > s.maxSize {
		s.discard(path)
		return nil, ErrTooLarge
	}

	return &Handle{Path: path, Size: written, Format: format}, nil
}

// checkFormat extracts and validates the file extension
func (s *Stager) checkFormat(filename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" || !s.allowed[ext] {
		return "", ErrUnsupportedFormat
	}
	return ext, nil
}

// discard removes a partial file; the write error takes precedence
func (s *Stager) discard(path string) {
	_ = os.Remove(path)
}
