// Package store keeps the most recent aggregation result on disk so the
// HTTP route can answer repeated requests without re-scraping.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Adda-Baaj/seema-khobor/internal/aggregator"
)

var (
	bucketSnapshots = []byte("snapshots")
	keyLatest       = []byte("latest")
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("snapshot store is closed")

// snapshot is the stored record.
type snapshot struct {
	SavedAt time.Time         `json:"savedAt"`
	Result  aggregator.Result `json:"result"`
}

// Snapshots is a single-record bbolt cache for the latest run. A zero TTL
// disables it: Save is a no-op and Latest never hits.
type Snapshots struct {
	db  *bolt.DB
	ttl time.Duration
}

// Open opens (or creates) the snapshot database at path.
func Open(path string, ttl time.Duration) (*Snapshots, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open snapshot db %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSnapshots)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshot bucket: %w", err)
	}
	return &Snapshots{db: db, ttl: ttl}, nil
}

// TTL reports how long a snapshot stays fresh.
func (s *Snapshots) TTL() time.Duration { return s.ttl }

// Save replaces the stored snapshot with res.
func (s *Snapshots) Save(res aggregator.Result, savedAt time.Time) error {
	if s.ttl <= 0 {
		return nil
	}
	if s.db == nil {
		return ErrClosed
	}
	raw, err := json.Marshal(snapshot{SavedAt: savedAt.UTC(), Result: res})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Put(keyLatest, raw)
	})
}

// Latest returns the stored result when it is younger than the TTL at now.
func (s *Snapshots) Latest(now time.Time) (aggregator.Result, bool, error) {
	if s.ttl <= 0 {
		return aggregator.Result{}, false, nil
	}
	if s.db == nil {
		return aggregator.Result{}, false, ErrClosed
	}

	var snap snapshot
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketSnapshots).Get(keyLatest)
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &snap)
	})
	if err != nil {
		return aggregator.Result{}, false, fmt.Errorf("read snapshot: %w", err)
	}
	if !found || now.Sub(snap.SavedAt) >= s.ttl {
		return aggregator.Result{}, false, nil
	}
	return snap.Result, true, nil
}

// Close releases the database file lock.
func (s *Snapshots) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
