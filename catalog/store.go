// Package catalog keeps encoded conditions and fulfillments in a bbolt
// database keyed by condition URI.
package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/cryptoconditions/cc-go/conditions"
)

var (
	bucketConditions   = []byte("conditions_by_uri")
	bucketFulfillments = []byte("fulfillments_by_uri")
)

// ErrNotFound is returned when a URI has no stored entry.
var ErrNotFound = errors.New("catalog: not found")

type Store struct {
	dir      string
	db       *bolt.DB
	manifest *Manifest
	verifier *conditions.Verifier
	logger   *slog.Logger
	maxBytes int
}

// Open opens or creates the catalog under cfg.DataDir. A nil logger uses
// slog.Default().
func Open(cfg Config, logger *slog.Logger) (*Store, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	dir := filepath.Join(cfg.DataDir, "catalog")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	bdb, err := bolt.Open(filepath.Join(dir, "catalog.db"), 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}
	s := &Store{
		dir:      dir,
		db:       bdb,
		verifier: conditions.NewVerifier(nil, logger),
		logger:   logger,
		maxBytes: cfg.MaxFulfillmentBytes,
	}

	if err := s.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketConditions, bucketFulfillments} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	m, err := loadOrInitManifest(dir)
	if err != nil {
		_ = bdb.Close()
		return nil, err
	}
	s.manifest = m
	logger.Debug("catalog opened", "dir", dir, "schema_version", m.SchemaVersion)
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) Manifest() *Manifest {
	if s == nil {
		return nil
	}
	return s.manifest
}

// canonicalKey re-renders uri so that equivalent spellings share a key.
func canonicalKey(uri string) ([]byte, error) {
	c, err := conditions.ParseConditionURI(uri)
	if err != nil {
		return nil, err
	}
	return []byte(c.URI()), nil
}

// PutCondition stores c and returns its URI.
func (s *Store) PutCondition(c conditions.Condition) (string, error) {
	if c.IsZero() {
		return "", errors.New("catalog: empty condition")
	}
	if c.Unsupported() {
		return "", fmt.Errorf("catalog: cannot index unsupported type %d", c.Type())
	}
	uri := c.URI()
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketConditions).Put([]byte(uri), c.Encode())
	}); err != nil {
		return "", fmt.Errorf("put condition: %w", err)
	}
	s.logger.Debug("condition stored", "uri", uri)
	return uri, nil
}

// GetCondition returns the stored condition for uri.
func (s *Store) GetCondition(uri string) (conditions.Condition, error) {
	key, err := canonicalKey(uri)
	if err != nil {
		return conditions.Condition{}, err
	}
	var raw []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketConditions).Get(key); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return conditions.Condition{}, err
	}
	if raw == nil {
		return conditions.Condition{}, ErrNotFound
	}
	c, err := conditions.DecodeCondition(raw)
	if err != nil {
		return conditions.Condition{}, fmt.Errorf("stored condition %s: %w", key, err)
	}
	return c, nil
}

// PutFulfillment stores f together with its derived condition.
func (s *Store) PutFulfillment(f *conditions.Fulfillment) (string, error) {
	if f == nil {
		return "", errors.New("catalog: nil fulfillment")
	}
	enc := f.Encode()
	if len(enc) > s.maxBytes {
		return "", fmt.Errorf("catalog: fulfillment is %d bytes, limit %d", len(enc), s.maxBytes)
	}
	c := f.Condition()
	uri := c.URI()
	if err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketConditions).Put([]byte(uri), c.Encode()); err != nil {
			return err
		}
		return tx.Bucket(bucketFulfillments).Put([]byte(uri), enc)
	}); err != nil {
		return "", fmt.Errorf("put fulfillment: %w", err)
	}
	s.logger.Debug("fulfillment stored", "uri", uri, "bytes", len(enc))
	return uri, nil
}

func (s *Store) GetFulfillment(uri string) (*conditions.Fulfillment, error) {
	key, err := canonicalKey(uri)
	if err != nil {
		return nil, err
	}
	var raw []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketFulfillments).Get(key); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotFound
	}
	f, err := conditions.DecodeFulfillment(raw)
	if err != nil {
		return nil, fmt.Errorf("stored fulfillment %s: %w", key, err)
	}
	return f, nil
}

// Verify checks the stored fulfillment for uri against the stored condition.
func (s *Store) Verify(uri string, message []byte) (bool, error) {
	c, err := s.GetCondition(uri)
	if err != nil {
		return false, err
	}
	f, err := s.GetFulfillment(uri)
	if err != nil {
		return false, err
	}
	return s.VerifyWith(f, c, message)
}

// VerifyWith checks an externally supplied fulfillment against c.
func (s *Store) VerifyWith(f *conditions.Fulfillment, c conditions.Condition, message []byte) (bool, error) {
	ok, err := s.verifier.Verify(f, c, message)
	if err != nil {
		return false, err
	}
	s.logger.Info("verified", "uri", c.URI(), "ok", ok)
	return ok, nil
}

// Delete removes the condition and any fulfillment stored under uri.
func (s *Store) Delete(uri string) error {
	key, err := canonicalKey(uri)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketConditions).Delete(key); err != nil {
			return err
		}
		return tx.Bucket(bucketFulfillments).Delete(key)
	})
}

// Entry is one row of List.
type Entry struct {
	URI       string
	Fulfilled bool
}

// List returns every stored condition URI in key order.
func (s *Store) List() ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		fb := tx.Bucket(bucketFulfillments)
		return tx.Bucket(bucketConditions).ForEach(func(k, _ []byte) error {
			out = append(out, Entry{URI: string(k), Fulfilled: fb.Get(k) != nil})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
