package cache

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/matzehuels/schemahub/pkg/errors"
)

const boltBucket = "notifications"

// BoltStore keeps the document in a bbolt bucket.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "cache: bolt path is required")
	}
	cleaned := filepath.Clean(path)
	if dir := filepath.Dir(cleaned); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "create cache directory")
		}
	}
	db, err := bolt.Open(cleaned, 0o600, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open %s", cleaned)
	}
	return &BoltStore{db: db}, nil
}

// Load reads every key of the bucket.
func (s *BoltStore) Load(ctx context.Context) (map[string]string, error) {
	m := map[string]string{}
	err := s.db.View(func(tx *bolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		b := tx.Bucket([]byte(boltBucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			m[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load notification cache")
	}
	return m, nil
}

// Replace drops and recreates the bucket in one transaction.
func (s *BoltStore) Replace(ctx context.Context, entries map[string]string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := tx.DeleteBucket([]byte(boltBucket)); err != nil && !stderrors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket([]byte(boltBucket))
		if err != nil {
			return err
		}
		for owner, fp := range entries {
			if err := b.Put([]byte(owner), []byte(fp)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "persist notification cache")
	}
	return nil
}

// Close closes the database.
func (s *BoltStore) Close() error { return s.db.Close() }

// Ensure BoltStore implements Store.
var _ Store = (*BoltStore)(nil)
