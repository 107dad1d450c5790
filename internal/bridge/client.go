package bridge

import (
	"context"
	"io"
)

// Client is the storage bridge contract storjcli is built on.
type Client interface {
	ListBuckets(ctx context.Context) ([]Bucket, error)
	CreateBucket(ctx context.Context, info BucketInfo) (*Bucket, error)
	DeleteBucket(ctx context.Context, bucketID string) error

	ListFilesInBucket(ctx context.Context, bucketID string) ([]File, error)
	DeleteFile(ctx context.Context, bucketID, fileID string) error

	// CreateToken requests a transfer token scoped to bucketID and op.
	CreateToken(ctx context.Context, bucketID string, op Operation) (*Token, error)

	// StoreFileInBucket uploads the file at localPath using a PUSH token.
	StoreFileInBucket(ctx context.Context, bucketID, token, localPath string, meta FileMeta) (*File, error)

	// CreateFileStream opens the raw (still encrypted) remote content.
	// It requests its own PULL token. The caller must close the stream.
	CreateFileStream(ctx context.Context, bucketID, fileID string) (io.ReadCloser, error)
}
