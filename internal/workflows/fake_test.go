package workflows

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/PolarWolf314/storjcli/internal/bridge"
	kerrors "github.com/PolarWolf314/storjcli/internal/errors"
)

// fakeBridge is an in-memory bridge behind a bridge.MockClient.
type fakeBridge struct {
	mu      sync.Mutex
	next    int
	buckets []bridge.Bucket
	files   map[string][]bridge.File
	blobs   map[string][]byte
	calls   map[string]int

	// storeErr, when set, fails StoreFileInBucket.
	storeErr error
	// storedID, when set, replaces the id of the next stored file.
	storedID *string
	// storedFrom records the local paths handed to StoreFileInBucket.
	storedFrom []string
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{
		files: make(map[string][]bridge.File),
		blobs: make(map[string][]byte),
		calls: make(map[string]int),
	}
}

func (f *fakeBridge) id() string {
	f.next++
	return fmt.Sprintf("%024x", f.next)
}

func (f *fakeBridge) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBridge) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeBridge) hasBucket(id string) bool {
	for _, b := range f.buckets {
		if b.ID == id {
			return true
		}
	}
	return false
}

func (f *fakeBridge) client() *bridge.MockClient {
	return &bridge.MockClient{
		ListBucketsFn: func(ctx context.Context) ([]bridge.Bucket, error) {
			f.hit("ListBuckets")
			f.mu.Lock()
			defer f.mu.Unlock()
			return append([]bridge.Bucket(nil), f.buckets...), nil
		},
		CreateBucketFn: func(ctx context.Context, info bridge.BucketInfo) (*bridge.Bucket, error) {
			f.hit("CreateBucket")
			f.mu.Lock()
			defer f.mu.Unlock()
			b := bridge.Bucket{ID: f.id(), Name: info.Name, Storage: info.Storage, Transfer: info.Transfer, Created: time.Now()}
			f.buckets = append(f.buckets, b)
			return &b, nil
		},
		DeleteBucketFn: func(ctx context.Context, bucketID string) error {
			f.hit("DeleteBucket")
			f.mu.Lock()
			defer f.mu.Unlock()
			for i, b := range f.buckets {
				if b.ID == bucketID {
					f.buckets = append(f.buckets[:i], f.buckets[i+1:]...)
					delete(f.files, bucketID)
					return nil
				}
			}
			return kerrors.ErrRemoteNotFound
		},
		ListFilesInBucketFn: func(ctx context.Context, bucketID string) ([]bridge.File, error) {
			f.hit("ListFilesInBucket")
			f.mu.Lock()
			defer f.mu.Unlock()
			if !f.hasBucket(bucketID) {
				return nil, kerrors.ErrRemoteNotFound
			}
			return append([]bridge.File(nil), f.files[bucketID]...), nil
		},
		DeleteFileFn: func(ctx context.Context, bucketID, fileID string) error {
			f.hit("DeleteFile")
			f.mu.Lock()
			defer f.mu.Unlock()
			files := f.files[bucketID]
			for i, file := range files {
				if file.ID == fileID {
					f.files[bucketID] = append(files[:i], files[i+1:]...)
					delete(f.blobs, fileID)
					return nil
				}
			}
			return kerrors.ErrRemoteNotFound
		},
		CreateTokenFn: func(ctx context.Context, bucketID string, op bridge.Operation) (*bridge.Token, error) {
			f.hit("CreateToken:" + string(op))
			return &bridge.Token{Token: "tok-" + string(op), Bucket: bucketID, Operation: op, Expires: time.Now().Add(time.Minute)}, nil
		},
		StoreFileInBucketFn: func(ctx context.Context, bucketID, token, localPath string, meta bridge.FileMeta) (*bridge.File, error) {
			f.hit("StoreFileInBucket")
			f.mu.Lock()
			defer f.mu.Unlock()
			f.storedFrom = append(f.storedFrom, localPath)
			if f.storeErr != nil {
				return nil, f.storeErr
			}
			if !f.hasBucket(bucketID) {
				return nil, kerrors.ErrRemoteNotFound
			}
			if token != "tok-PUSH" {
				return nil, kerrors.ErrInvalidToken
			}
			data, err := os.ReadFile(localPath)
			if err != nil {
				return nil, err
			}
			id := f.id()
			if f.storedID != nil {
				id, f.storedID = *f.storedID, nil
			}
			file := bridge.File{ID: id, Bucket: bucketID, Filename: meta.Filename, Mimetype: meta.Mimetype, Size: int64(len(data)), Created: time.Now()}
			f.files[bucketID] = append(f.files[bucketID], file)
			f.blobs[file.ID] = data
			return &file, nil
		},
		CreateFileStreamFn: func(ctx context.Context, bucketID, fileID string) (io.ReadCloser, error) {
			f.hit("CreateFileStream")
			f.mu.Lock()
			defer f.mu.Unlock()
			data, ok := f.blobs[fileID]
			if !ok {
				return nil, kerrors.ErrRemoteNotFound
			}
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
