// Package crypto implements password hashing with argon2id.
// Hashes are encoded in PHC string format so the salt and parameters
// travel with the hash and no separate salt storage is needed.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters
const (
	// Argon2Time is the number of iterations (time cost)
	Argon2Time = 1
	// Argon2Memory is the memory cost in KiB (64 MiB)
	Argon2Memory = 64 * 1024
	// Argon2Threads is the degree of parallelism
	Argon2Threads = 4
	// Argon2KeyLen is the derived key length in bytes
	Argon2KeyLen = 32
	// SaltSize is the per-hash random salt size in bytes
	SaltSize = 16
)

// ErrMalformedHash indicates a stored hash that cannot be parsed.
// This is a data-integrity failure, not a wrong password.
var ErrMalformedHash = errors.New("malformed password hash")

// HashPassword derives an argon2id hash with a fresh random salt and
// returns it in PHC format:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, Argon2Time, Argon2Memory, Argon2Threads, Argon2KeyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		Argon2Memory,
		Argon2Time,
		Argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

// VerifyPassword checks password against a stored PHC hash.
// A mismatch is a normal (false, nil) result. An unparseable stored hash
// returns ErrMalformedHash.
func VerifyPassword(password, encodedHash string) (bool, error) {
	salt, key, params, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(key)))

	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
}

// decodeHash parses a PHC argon2id string into salt, key, and parameters
func decodeHash(encodedHash string) ([]byte, []byte, *argon2Params, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, ErrMalformedHash
	}
	if version != argon2.Version {
		return nil, nil, nil, ErrMalformedHash
	}

	params := &argon2Params{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil {
		return nil, nil, nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, ErrMalformedHash
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, nil, ErrMalformedHash
	}

	return salt, key, params, nil
}
