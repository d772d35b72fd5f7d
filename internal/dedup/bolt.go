package dedup

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/maplewav/newslens/internal/types"
)

var bucketSeen = []byte("seen_urls")

// boltFile persists seen URLs in a bbolt file so repeated harvests skip
// articles fetched by earlier runs.
type boltFile struct {
	db     *bolt.DB
	logger *slog.Logger
}

func openBolt(path string, logger *slog.Logger) (*boltFile, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &types.StorageError{Backend: "bbolt", Err: err}
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, &types.StorageError{Backend: "bbolt", Err: fmt.Errorf("open %s: %w", path, err)}
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSeen)
		return err
	})
	if err != nil {
		db.Close()
		return nil, &types.StorageError{Backend: "bbolt", Err: err}
	}

	s := &boltFile{
		db:     db,
		logger: logger.With("component", "dedup"),
	}
	if n, err := s.Count(); err == nil {
		s.logger.Debug("dedup store opened", "path", path, "known_urls", n)
	}
	return s, nil
}

func (s *boltFile) Seen(rawURL string) (bool, error) {
	key := []byte(hashURL(CanonicalizeURL(rawURL)))

	var seen bool
	err := s.db.View(func(tx *bolt.Tx) error {
		seen = tx.Bucket(bucketSeen).Get(key) != nil
		return nil
	})
	if err != nil {
		return false, &types.StorageError{Backend: "bbolt", Err: err}
	}
	return seen, nil
}

func (s *boltFile) Mark(rawURL string) error {
	key := []byte(hashURL(CanonicalizeURL(rawURL)))

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSeen).Put(key, []byte{1})
	})
	if err != nil {
		return &types.StorageError{Backend: "bbolt", Err: err}
	}
	return nil
}

func (s *boltFile) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketSeen).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, &types.StorageError{Backend: "bbolt", Err: err}
	}
	return n, nil
}

func (s *boltFile) Close() error {
	return s.db.Close()
}
