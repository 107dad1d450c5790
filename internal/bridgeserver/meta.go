package bridgeserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/PolarWolf314/storjcli/internal/bridge"
	"go.etcd.io/bbolt"
)

var (
	bucketBuckets = []byte("buckets")
	bucketFiles   = []byte("files")
)

var (
	// ErrBucketNotFound is returned for unknown buckets and buckets owned by someone else.
	ErrBucketNotFound = errors.New("bucket not found")
	// ErrFileNotFound is returned for unknown file ids within a bucket.
	ErrFileNotFound = errors.New("file not found")
)

type bucketRecord struct {
	bridge.Bucket
	Owner string `json:"owner"`
}

// MetaStore keeps bucket and file metadata in bbolt. Files of one bucket
// live in a nested bbolt bucket keyed by the bucket id.
type MetaStore struct {
	db  *bbolt.DB
	now func() time.Time
}

// OpenMetaStore opens or creates the database at path, creating the parent
// directory if needed.
func OpenMetaStore(path string) (*MetaStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("bridgeserver: create directory: %w", err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bridgeserver: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketBuckets, bucketFiles} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("boltstore: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bridgeserver: create buckets: %w", err)
	}

	return &MetaStore{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *MetaStore) Close() error { return s.db.Close() }

func getBucket(tx *bbolt.Tx, owner, id string) (*bucketRecord, error) {
	raw := tx.Bucket(bucketBuckets).Get([]byte(id))
	if raw == nil {
		return nil, ErrBucketNotFound
	}
	var rec bucketRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode bucket %s: %w", id, err)
	}
	if rec.Owner != owner {
		return nil, ErrBucketNotFound
	}
	return &rec, nil
}

// ListBuckets returns the owner's buckets oldest first.
func (s *MetaStore) ListBuckets(owner string) ([]bridge.Bucket, error) {
	buckets := []bridge.Bucket{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBuckets).ForEach(func(k, v []byte) error {
			var rec bucketRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode bucket %s: %w", k, err)
			}
			if rec.Owner == owner {
				buckets = append(buckets, rec.Bucket)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return buckets, nil
}

// CreateBucket stores a new bucket for owner. Names need not be unique.
func (s *MetaStore) CreateBucket(owner string, info bridge.BucketInfo) (bridge.Bucket, error) {
	now := s.now().UTC()
	rec := bucketRecord{
		Bucket: bridge.Bucket{
			ID:       newID(now),
			Name:     info.Name,
			Storage:  info.Storage,
			Transfer: info.Transfer,
			Created:  now,
		},
		Owner: owner,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return bridge.Bucket{}, fmt.Errorf("encode bucket: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketBuckets).Put([]byte(rec.ID), data); err != nil {
			return fmt.Errorf("boltstore: put bucket: %w", err)
		}
		_, err := tx.Bucket(bucketFiles).CreateBucket([]byte(rec.ID))
		return err
	})
	if err != nil {
		return bridge.Bucket{}, err
	}
	return rec.Bucket, nil
}

// GetBucket returns one of the owner's buckets.
func (s *MetaStore) GetBucket(owner, id string) (bridge.Bucket, error) {
	var b bridge.Bucket
	err := s.db.View(func(tx *bbolt.Tx) error {
		rec, err := getBucket(tx, owner, id)
		if err != nil {
			return err
		}
		b = rec.Bucket
		return nil
	})
	return b, err
}

// DeleteBucket removes the bucket and its file records and returns the ids
// of the files that were in it, so their blobs can be removed.
func (s *MetaStore) DeleteBucket(owner, id string) ([]string, error) {
	var fileIDs []string
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := getBucket(tx, owner, id); err != nil {
			return err
		}
		files := tx.Bucket(bucketFiles)
		if fb := files.Bucket([]byte(id)); fb != nil {
			if err := fb.ForEach(func(k, _ []byte) error {
				fileIDs = append(fileIDs, string(k))
				return nil
			}); err != nil {
				return err
			}
			if err := files.DeleteBucket([]byte(id)); err != nil {
				return fmt.Errorf("boltstore: delete files of %s: %w", id, err)
			}
		}
		return tx.Bucket(bucketBuckets).Delete([]byte(id))
	})
	if err != nil {
		return nil, err
	}
	return fileIDs, nil
}

// ListFiles returns the files of one of the owner's buckets, oldest first.
func (s *MetaStore) ListFiles(owner, bucketID string) ([]bridge.File, error) {
	files := []bridge.File{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		if _, err := getBucket(tx, owner, bucketID); err != nil {
			return err
		}
		fb := tx.Bucket(bucketFiles).Bucket([]byte(bucketID))
		if fb == nil {
			return nil
		}
		return fb.ForEach(func(k, v []byte) error {
			var f bridge.File
			if err := json.Unmarshal(v, &f); err != nil {
				return fmt.Errorf("decode file %s: %w", k, err)
			}
			files = append(files, f)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// NewFileID allocates an id for a file that is about to be stored.
func (s *MetaStore) NewFileID() string { return newID(s.now()) }

// PutFile records a stored file. f.ID must come from NewFileID and
// f.Created is set if zero.
func (s *MetaStore) PutFile(owner string, f bridge.File) (bridge.File, error) {
	if f.Created.IsZero() {
		f.Created = s.now().UTC()
	}
	data, err := json.Marshal(f)
	if err != nil {
		return bridge.File{}, fmt.Errorf("encode file: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := getBucket(tx, owner, f.Bucket); err != nil {
			return err
		}
		fb, err := tx.Bucket(bucketFiles).CreateBucketIfNotExists([]byte(f.Bucket))
		if err != nil {
			return fmt.Errorf("boltstore: create bucket %q: %w", f.Bucket, err)
		}
		if err := fb.Put([]byte(f.ID), data); err != nil {
			return fmt.Errorf("boltstore: put file: %w", err)
		}
		return nil
	})
	if err != nil {
		return bridge.File{}, err
	}
	return f, nil
}

// GetFile returns one file record.
func (s *MetaStore) GetFile(owner, bucketID, fileID string) (bridge.File, error) {
	var f bridge.File
	err := s.db.View(func(tx *bbolt.Tx) error {
		if _, err := getBucket(tx, owner, bucketID); err != nil {
			return err
		}
		fb := tx.Bucket(bucketFiles).Bucket([]byte(bucketID))
		if fb == nil {
			return ErrFileNotFound
		}
		raw := fb.Get([]byte(fileID))
		if raw == nil {
			return ErrFileNotFound
		}
		return json.Unmarshal(raw, &f)
	})
	return f, err
}

// DeleteFile removes one file record.
func (s *MetaStore) DeleteFile(owner, bucketID, fileID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := getBucket(tx, owner, bucketID); err != nil {
			return err
		}
		fb := tx.Bucket(bucketFiles).Bucket([]byte(bucketID))
		if fb == nil || fb.Get([]byte(fileID)) == nil {
			return ErrFileNotFound
		}
		return fb.Delete([]byte(fileID))
	})
}
