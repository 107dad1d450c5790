package bridge

import (
	"context"
	"io"
)

// MockClient is a test double for Client.
// All function fields must be set before the corresponding method is called.
type MockClient struct {
	ListBucketsFn       func(ctx context.Context) ([]Bucket, error)
	CreateBucketFn      func(ctx context.Context, info BucketInfo) (*Bucket, error)
	DeleteBucketFn      func(ctx context.Context, bucketID string) error
	ListFilesInBucketFn func(ctx context.Context, bucketID string) ([]File, error)
	DeleteFileFn        func(ctx context.Context, bucketID, fileID string) error
	CreateTokenFn       func(ctx context.Context, bucketID string, op Operation) (*Token, error)
	StoreFileInBucketFn func(ctx context.Context, bucketID, token, localPath string, meta FileMeta) (*File, error)
	CreateFileStreamFn  func(ctx context.Context, bucketID, fileID string) (io.ReadCloser, error)
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) ListBuckets(ctx context.Context) ([]Bucket, error) {
	return m.ListBucketsFn(ctx)
}
func (m *MockClient) CreateBucket(ctx context.Context, info BucketInfo) (*Bucket, error) {
	return m.CreateBucketFn(ctx, info)
}
func (m *MockClient) DeleteBucket(ctx context.Context, bucketID string) error {
	return m.DeleteBucketFn(ctx, bucketID)
}
func (m *MockClient) ListFilesInBucket(ctx context.Context, bucketID string) ([]File, error) {
	return m.ListFilesInBucketFn(ctx, bucketID)
}
func (m *MockClient) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	return m.DeleteFileFn(ctx, bucketID, fileID)
}
func (m *MockClient) CreateToken(ctx context.Context, bucketID string, op Operation) (*Token, error) {
	return m.CreateTokenFn(ctx, bucketID, op)
}
func (m *MockClient) StoreFileInBucket(ctx context.Context, bucketID, token, localPath string, meta FileMeta) (*File, error) {
	return m.StoreFileInBucketFn(ctx, bucketID, token, localPath, meta)
}
func (m *MockClient) CreateFileStream(ctx context.Context, bucketID, fileID string) (io.ReadCloser, error) {
	return m.CreateFileStreamFn(ctx, bucketID, fileID)
}
