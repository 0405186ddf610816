package store

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	"tensord/internal/common/fsutil"
	"tensord/internal/tensor"
)

var tensorsBucket = []byte("tensors")

// Snapshotter saves and restores the tensor keyspace to a bbolt file.
// Non-tensor values are not persisted; they are rebuilt at startup.
type Snapshotter struct {
	path string
	log  zerolog.Logger
}

func NewSnapshotter(path string, log zerolog.Logger) *Snapshotter {
	return &Snapshotter{path: path, log: log}
}

func (s *Snapshotter) Path() string { return s.path }

func (s *Snapshotter) open() (*bolt.DB, error) {
	if err := fsutil.EnsureParentDir(s.path); err != nil {
		return nil, err
	}
	return bolt.Open(s.path, 0o644, &bolt.Options{Timeout: time.Second})
}

// Save replaces the snapshot contents with every tensor in m and returns
// how many were written.
func (s *Snapshotter) Save(m *Memory) (int, error) {
	db, err := s.open()
	if err != nil {
		return 0, fmt.Errorf("open snapshot %s: %w", s.path, err)
	}
	defer db.Close()

	vals := make(map[string][]byte)
	var encErr error
	m.RangeTensors(func(key string, t *tensor.Handle) bool {
		defer t.Release()
		b, err := t.MarshalBinary()
		if err != nil {
			encErr = fmt.Errorf("key %s: %w", key, err)
			return false
		}
		vals[key] = b
		return true
	})
	if encErr != nil {
		return 0, encErr
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(tensorsBucket) != nil {
			if err := tx.DeleteBucket(tensorsBucket); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket(tensorsBucket)
		if err != nil {
			return err
		}
		for k, v := range vals {
			if err := b.Put([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info().Str("path", s.path).Int("keys", len(vals)).Msg("snapshot saved")
	return len(vals), nil
}

// Restore loads every tensor from the snapshot into m without replicating.
// A missing snapshot file restores nothing. Entries that fail to decode are
// logged and skipped.
func (s *Snapshotter) Restore(m *Memory) (int, error) {
	if !fsutil.PathExists(s.path) {
		return 0, nil
	}
	db, err := s.open()
	if err != nil {
		return 0, fmt.Errorf("open snapshot %s: %w", s.path, err)
	}
	defer db.Close()

	n, skipped := 0, 0
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(tensorsBucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			t, err := tensor.Decode(v)
			if err != nil {
				s.log.Warn().Err(err).Str("path", s.path).Str("key", string(k)).Msg("skipping undecodable snapshot entry")
				skipped++
				continue
			}
			e, err := m.OpenForWrite(string(k))
			if err != nil {
				t.Release()
				return err
			}
			err = e.Commit(t)
			e.Close()
			t.Release()
			if err != nil {
				return fmt.Errorf("key %s: %w", k, err)
			}
			n++
		}
		return nil
	})
	if err != nil {
		return n, err
	}
	s.log.Info().Str("path", s.path).Int("keys", n).Int("skipped", skipped).Msg("snapshot restored")
	return n, nil
}
