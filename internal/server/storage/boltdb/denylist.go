// Package boltdb implements the token denylist on BoltDB.
// A tiny embedded kv store is a better fit than the relational schema
// here: the data is a flat jti -> expiry map with no joins.
package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var bucketDenylist = []byte("denylist")

// Denylist represents BoltDB-backed revoked-token storage
type Denylist struct {
	db *bbolt.DB
}

// New creates a new BoltDB denylist instance.
// dbPath is the path to the BoltDB database file.
func New(ctx context.Context, dbPath string) (*Denylist, error) {
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketDenylist); err != nil {
			return fmt.Errorf("failed to create denylist bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Denylist{db: db}, nil
}

// Close closes the database
func (d *Denylist) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Revoke marks a token id as revoked until expiresAt
func (d *Denylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDenylist)
		if bucket == nil {
			return fmt.Errorf("denylist bucket not found")
		}

		var value [8]byte
		binary.BigEndian.PutUint64(value[:], uint64(expiresAt.Unix()))

		if err := bucket.Put([]byte(jti), value[:]); err != nil {
			return fmt.Errorf("failed to save denylist entry: %w", err)
		}

		return nil
	})
}

// IsRevoked reports whether a token id is currently revoked
func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool

	err := d.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDenylist)
		if bucket == nil {
			return fmt.Errorf("denylist bucket not found")
		}

		value := bucket.Get([]byte(jti))
		if value == nil || len(value) != 8 {
			return nil
		}

		expiresAt := time.Unix(int64(binary.BigEndian.Uint64(value)), 0)
		revoked = time.Now().Before(expiresAt)

		return nil
	})

	if err != nil {
		return false, err
	}

	return revoked, nil
}

// PurgeExpired removes entries whose TTL has passed
func (d *Denylist) PurgeExpired(ctx context.Context) (int, error) {
	count := 0
	now := time.Now()

	err := d.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDenylist)
		if bucket == nil {
			return fmt.Errorf("denylist bucket not found")
		}

		cursor := bucket.Cursor()
		for key, value := cursor.First(); key != nil; key, value = cursor.Next() {
			if len(value) != 8 {
				continue
			}
			expiresAt := time.Unix(int64(binary.BigEndian.Uint64(value)), 0)
			if now.Before(expiresAt) {
				continue
			}
			if err := cursor.Delete(); err != nil {
				return fmt.Errorf("failed to delete denylist entry: %w", err)
			}
			count++
		}

		return nil
	})

	if err != nil {
		return 0, err
	}

	return count, nil
}
