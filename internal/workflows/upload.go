package workflows

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/storjcli/internal/audit"
	"github.com/PolarWolf314/storjcli/internal/bridge"
	kerrors "github.com/PolarWolf314/storjcli/internal/errors"
	"github.com/PolarWolf314/storjcli/internal/resolver"
	"github.com/PolarWolf314/storjcli/internal/secrets"
	"github.com/PolarWolf314/storjcli/internal/utils"
)

// UploadOptions configures the upload workflow.
type UploadOptions struct {
	// Bucket is a bucket name or id.
	Bucket string

	// Path is the local file to upload.
	Path string

	// Name is the remote filename. Defaults to the base name of Path.
	Name string

	// CreateBucket creates Bucket with default quotas when no bucket has that name.
	CreateBucket bool

	// BucketDefaults supplies the quotas for a created bucket.
	BucketDefaults CreateBucketOptions

	KeyRingAccess
}

// UploadResult contains the outcome of an upload.
type UploadResult struct {
	// File is the stored file as reported by the bridge.
	File *bridge.File

	// BucketID is the resolved bucket id.
	BucketID string

	// BucketCreated is true when the bucket was created for this upload.
	BucketCreated bool

	// Source is the local path that was uploaded.
	Source string

	// Size is the plaintext size in bytes.
	Size int64
}

// Upload encrypts a local file with a fresh secret, stores the ciphertext in
// a bucket and records the secret in the keyring under the new file id.
//
// The ciphertext is staged in <Path>.crypt, or a unique <Path>.*.crypt when
// that name already exists, and removed on every exit. Existing files are
// never overwritten.
// The secret is written only after the bridge confirms the store.
//
// Returns ErrLocalFileNotFound if Path does not exist.
// Returns ErrNoBuckets or ErrBucketNotFound if the bucket cannot be resolved
// and CreateBucket is false.
// Returns ErrSecretNotSaved together with a result if the file was stored
// but the keyring write failed.
func Upload(ctx context.Context, client bridge.Client, opts UploadOptions) (*UploadResult, error) {
	if err := checkUploadSource(opts.Path); err != nil {
		return nil, err
	}

	bucketID, created, err := uploadBucket(ctx, client, opts)
	if err != nil {
		return nil, err
	}

	return upload(ctx, client, bucketID, created, opts)
}

func checkUploadSource(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", kerrors.ErrLocalFileNotFound, path)
	}
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", path)
	}
	return nil
}

func uploadBucket(ctx context.Context, client bridge.Client, opts UploadOptions) (string, bool, error) {
	if opts.CreateBucket {
		defaults := opts.BucketDefaults
		defaults.DataDir = opts.DataDir
		return EnsureBucket(ctx, client, opts.Bucket, defaults)
	}
	id, err := resolver.BucketID(ctx, client, opts.Bucket)
	return id, false, err
}

func upload(ctx context.Context, client bridge.Client, bucketID string, created bool, opts UploadOptions) (*UploadResult, error) {
	secret, err := secrets.NewSecret()
	if err != nil {
		return nil, err
	}

	tmp, size, err := stageCiphertext(secret, opts.Path)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp)

	kr, err := opts.open()
	if err != nil {
		return nil, err
	}
	defer kr.Close()

	token, err := client.CreateToken(ctx, bucketID, bridge.OperationPush)
	if err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = filepath.Base(opts.Path)
	}
	file, err := client.StoreFileInBucket(ctx, bucketID, token.Token, tmp, bridge.FileMeta{
		Filename: name,
		Mimetype: utils.ContentType(opts.Path),
	})
	if err != nil {
		return nil, err
	}

	result := &UploadResult{
		File:          file,
		BucketID:      bucketID,
		BucketCreated: created,
		Source:        opts.Path,
		Size:          size,
	}

	entry := audit.New(audit.OpUpload)
	entry.Bucket, entry.BucketID = opts.Bucket, bucketID
	entry.File, entry.FileID, entry.Size = name, file.ID, size
	audit.Log(opts.DataDir, entry)

	if err := kr.Set(file.ID, secret); err != nil {
		return result, fmt.Errorf("%w (file id %s): %w", kerrors.ErrSecretNotSaved, file.ID, err)
	}
	return result, nil
}

// stageCiphertext encrypts path into <path>.crypt. If that name is taken, by a
// user file or a concurrent upload, it uses a unique <path>.*.crypt instead.
// The returned file was created by this call and is the caller's to remove.
func stageCiphertext(secret secrets.Secret, path string) (string, int64, error) {
	tmp := path + utils.TempSuffix
	size, err := secrets.EncryptFile(secret, path, tmp)
	if err == nil {
		return tmp, size, nil
	}
	if !errors.Is(err, os.ErrExist) {
		return "", 0, err
	}
	return secrets.EncryptFileTemp(secret, path, filepath.Dir(path), filepath.Base(path)+".*"+utils.TempSuffix)
}

// UploadManyOptions configures uploading several paths to one bucket.
type UploadManyOptions struct {
	Bucket string

	// Patterns are files, directories or doublestar globs.
	Patterns []string

	// BaseDir resolves relative patterns. Defaults to the working directory.
	BaseDir string

	CreateBucket   bool
	BucketDefaults CreateBucketOptions

	KeyRingAccess
}

// UploadMany expands opts.Patterns and uploads each file in order. The bucket
// is resolved (and created, if allowed) once. It stops at the first failure
// and returns the uploads that completed before it.
//
// Returns ErrNoFilesMatched if the patterns match no files.
func UploadMany(ctx context.Context, client bridge.Client, opts UploadManyOptions) ([]*UploadResult, error) {
	baseDir := opts.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		baseDir = wd
	}

	var skip []string
	if opts.DataDir != "" {
		skip = append(skip, opts.DataDir)
	}
	paths, err := utils.ResolveFiles(opts.Patterns, baseDir, skip...)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, kerrors.ErrNoFilesMatched
	}

	single := UploadOptions{
		Bucket:         opts.Bucket,
		CreateBucket:   opts.CreateBucket,
		BucketDefaults: opts.BucketDefaults,
		KeyRingAccess:  opts.KeyRingAccess,
	}
	bucketID, created, err := uploadBucket(ctx, client, single)
	if err != nil {
		return nil, err
	}

	results := make([]*UploadResult, 0, len(paths))
	for i, p := range paths {
		single.Path = p
		res, err := upload(ctx, client, bucketID, created && i == 0, single)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, fmt.Errorf("uploading %s: %w", p, err)
		}
	}
	return results, nil
}
