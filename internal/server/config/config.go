// Package config loads server settings from the environment once at
// startup into an immutable value that is injected into constructors.
// Request-handling code never reads process environment state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Defaults
const (
	DefaultAddress          = ":8080"
	DefaultDatabasePath     = "audioscribe.db"
	DefaultDenylistPath     = "denylist.db"
	DefaultAccessTokenTTL   = 15 * time.Minute
	DefaultRefreshTokenTTL  = 7 * 24 * time.Hour
	DefaultMaxUploadBytes   = 50 << 20 // 50 MiB
	DefaultEngineTimeout    = 120 * time.Second
	DefaultAllowedFormatCSV = "wav,mp3,m4a,flac,ogg"
)

// Config holds runtime settings for the audioscribe server
type Config struct {
	Address         string        // HTTP bind address
	DatabasePath    string        // SQLite file path
	DenylistPath    string        // BoltDB file path for revoked tokens
	JWTSecret       string        // HMAC secret for signing tokens, required
	AccessTokenTTL  time.Duration // access token lifetime
	RefreshTokenTTL time.Duration // refresh token lifetime
	MaxUploadBytes  int64         // upload size ceiling
	AllowedFormats  []string      // audio extension allow-set
	ScratchDir      string        // staging directory, must be writable
	EngineURL       string        // speech engine endpoint, required
	EngineAPIKey    string        // optional engine credential
	EngineTimeout   time.Duration // per-request engine deadline
}

// Load reads configuration from environment variables, applying
// defaults, then validates it
func Load() (*Config, error) {
	cfg := &Config{
		Address:         getenv("ADDRESS", DefaultAddress),
		DatabasePath:    getenv("DATABASE_PATH", DefaultDatabasePath),
		DenylistPath:    getenv("DENYLIST_PATH", DefaultDenylistPath),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  time.Duration(getInt64("ACCESS_TOKEN_TTL_MIN", 15)) * time.Minute,
		RefreshTokenTTL: time.Duration(getInt64("REFRESH_TOKEN_TTL_DAYS", 7)) * 24 * time.Hour,
		MaxUploadBytes:  getInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
		AllowedFormats:  splitCSV(getenv("ALLOWED_FORMATS", DefaultAllowedFormatCSV)),
		ScratchDir:      getenv("SCRATCH_DIR", os.TempDir()),
		EngineURL:       os.Getenv("ENGINE_URL"),
		EngineAPIKey:    os.Getenv("ENGINE_API_KEY"),
		EngineTimeout:   time.Duration(getInt64("ENGINE_TIMEOUT_SEC", 120)) * time.Second,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks required settings and the scratch directory
func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.EngineURL == "" {
		return fmt.Errorf("ENGINE_URL must be set")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if len(c.AllowedFormats) == 0 {
		return fmt.Errorf("ALLOWED_FORMATS must not be empty")
	}

	if err := checkWritable(c.ScratchDir); err != nil {
		return fmt.Errorf("scratch directory %q is not writable: %w", c.ScratchDir, err)
	}

	return nil
}

// checkWritable probes the directory with a throwaway file
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".probe_"+uuid.New().String())
	f, err := os.Create(probe)
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(probe)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return i
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
