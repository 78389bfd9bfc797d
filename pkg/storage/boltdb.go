package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketSettings = []byte("settings")
	bucketRestarts = []byte("restarts")
)

var (
	keyPreferredHost = []byte("preferred_host")
	keyRestartLog    = []byte("history")
)

// maxRestartHistory bounds the persisted restart history
const maxRestartHistory = 50

// Store persists console state that should survive a session: the last
// responsive backend host and the restart history. Everything here is
// best-effort cache; callers treat failures as non-fatal.
type Store struct {
	db *bolt.DB
}

// Open creates or opens the console state store under dataDir
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "zkconsole.db")

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketSettings, bucketRestarts} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// SavePreferredHost records the last responsive backend host
func (s *Store) SavePreferredHost(host string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSettings).Put(keyPreferredHost, []byte(host))
	})
}

// PreferredHost returns the last responsive backend host, or "" when none
// has been recorded.
func (s *Store) PreferredHost() (string, error) {
	var host string
	err := s.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(bucketSettings).Get(keyPreferredHost); data != nil {
			host = string(data)
		}
		return nil
	})
	return host, err
}

// RecordRestart appends a restart timestamp, keeping the newest entries
func (s *Store) RecordRestart(at time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRestarts)

		var history []time.Time
		if data := b.Get(keyRestartLog); data != nil {
			if err := json.Unmarshal(data, &history); err != nil {
				// Corrupt history is discarded rather than blocking writes.
				history = nil
			}
		}

		history = append(history, at)
		if len(history) > maxRestartHistory {
			history = history[len(history)-maxRestartHistory:]
		}

		data, err := json.Marshal(history)
		if err != nil {
			return fmt.Errorf("failed to marshal restart history: %w", err)
		}
		return b.Put(keyRestartLog, data)
	})
}

// RestartHistory returns restart timestamps, oldest first
func (s *Store) RestartHistory() ([]time.Time, error) {
	var history []time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(bucketRestarts).Get(keyRestartLog); data != nil {
			return json.Unmarshal(data, &history)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read restart history: %w", err)
	}
	return history, nil
}
