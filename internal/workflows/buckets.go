package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PolarWolf314/storjcli/internal/audit"
	"github.com/PolarWolf314/storjcli/internal/bridge"
	kerrors "github.com/PolarWolf314/storjcli/internal/errors"
	"github.com/PolarWolf314/storjcli/internal/keyring"
	"github.com/PolarWolf314/storjcli/internal/resolver"
)

// Quotas used when a bucket is created without explicit values.
const (
	DefaultBucketStorage  = 30
	DefaultBucketTransfer = 10
)

// CreateBucketOptions configures the create-bucket workflow.
type CreateBucketOptions struct {
	Name string

	// Storage and Transfer are quotas in GB. Zero uses the defaults.
	Storage  int
	Transfer int

	// DataDir receives the audit entry. Optional.
	DataDir string
}

// CreateBucket creates a bucket named opts.Name.
//
// Returns ErrInvalidBucketName if the name is empty, contains a path
// separator, or would be mistaken for a bucket id.
func CreateBucket(ctx context.Context, client bridge.Client, opts CreateBucketOptions) (*bridge.Bucket, error) {
	name := strings.TrimSpace(opts.Name)
	if err := validateBucketName(name); err != nil {
		return nil, err
	}

	info := bridge.BucketInfo{
		Name:     name,
		Storage:  opts.Storage,
		Transfer: opts.Transfer,
	}
	if info.Storage <= 0 {
		info.Storage = DefaultBucketStorage
	}
	if info.Transfer <= 0 {
		info.Transfer = DefaultBucketTransfer
	}

	b, err := client.CreateBucket(ctx, info)
	if err != nil {
		return nil, err
	}

	entry := audit.New(audit.OpCreateBucket)
	entry.Bucket, entry.BucketID = b.Name, b.ID
	audit.Log(opts.DataDir, entry)

	return b, nil
}

func validateBucketName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is empty", kerrors.ErrInvalidBucketName)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator", kerrors.ErrInvalidBucketName, name)
	case resolver.IsID(name):
		return fmt.Errorf("%w: %q looks like a bucket id", kerrors.ErrInvalidBucketName, name)
	}
	return nil
}

// EnsureBucket resolves ref and creates a bucket named ref if none exists.
// An id reference is never created. It reports whether a bucket was created.
func EnsureBucket(ctx context.Context, client bridge.Client, ref string, defaults CreateBucketOptions) (string, bool, error) {
	id, err := resolver.BucketID(ctx, client, ref)
	if err == nil {
		return id, false, nil
	}
	if resolver.IsID(ref) || !(errors.Is(err, kerrors.ErrNoBuckets) || errors.Is(err, kerrors.ErrBucketNotFound)) {
		return "", false, err
	}

	defaults.Name = ref
	b, err := CreateBucket(ctx, client, defaults)
	if err != nil {
		return "", false, err
	}
	return b.ID, true, nil
}

// ListBuckets returns every bucket of the account.
func ListBuckets(ctx context.Context, client bridge.Client) ([]bridge.Bucket, error) {
	return client.ListBuckets(ctx)
}

// RemoveBucketOptions configures the remove-bucket workflow.
type RemoveBucketOptions struct {
	Bucket string

	// KeyRingAccess is used to forget the secrets of the bucket's files.
	// With an empty Password the keyring is left untouched.
	KeyRingAccess
}

// RemoveBucketResult contains the outcome of remove-bucket.
type RemoveBucketResult struct {
	BucketID       string
	Files          int
	SecretsRemoved int
}

// RemoveBucket deletes a bucket and, when a password is given, the keyring
// secrets of the files it contained.
func RemoveBucket(ctx context.Context, client bridge.Client, opts RemoveBucketOptions) (*RemoveBucketResult, error) {
	bucketID, err := resolver.BucketID(ctx, client, opts.Bucket)
	if err != nil {
		return nil, err
	}

	files, err := client.ListFilesInBucket(ctx, bucketID)
	if err != nil {
		return nil, err
	}

	var kr *keyring.KeyRing
	if opts.Password != "" {
		// Unlock before deleting anything so a wrong password changes nothing.
		kr, err = opts.open()
		if err != nil {
			return nil, err
		}
		defer kr.Close()
	}

	if err := client.DeleteBucket(ctx, bucketID); err != nil {
		return nil, err
	}

	result := &RemoveBucketResult{BucketID: bucketID, Files: len(files)}

	entry := audit.New(audit.OpRemoveBucket)
	entry.Bucket, entry.BucketID = opts.Bucket, bucketID
	audit.Log(opts.DataDir, entry)

	if kr != nil {
		ids := make([]string, len(files))
		for i, f := range files {
			ids[i] = f.ID
		}
		result.SecretsRemoved, err = forgetSecrets(kr, ids...)
		if err != nil {
			return result, err
		}
	}
	return result, nil
}
