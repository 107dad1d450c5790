// Package resolver maps user-supplied bucket and file references to bridge ids.
//
// A reference that already looks like an id (24 hex characters) is passed
// through without touching the bridge. Anything else is treated as a name and
// matched exactly against a single listing call.
package resolver

import (
	"context"
	"fmt"
	"regexp"

	"github.com/PolarWolf314/storjcli/internal/bridge"
	kerrors "github.com/PolarWolf314/storjcli/internal/errors"
)

var idPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// IsID reports whether ref is a bridge id rather than a name.
func IsID(ref string) bool {
	return idPattern.MatchString(ref)
}

// BucketID resolves ref to a bucket id.
func BucketID(ctx context.Context, client bridge.Client, ref string) (string, error) {
	if IsID(ref) {
		return ref, nil
	}

	buckets, err := client.ListBuckets(ctx)
	if err != nil {
		return "", err
	}
	if len(buckets) == 0 {
		return "", kerrors.ErrNoBuckets
	}

	id, ok := BucketNameIndex(buckets)[ref]
	if !ok {
		return "", fmt.Errorf("%w: %q", kerrors.ErrBucketNotFound, ref)
	}
	return id, nil
}

// FileID resolves ref to the id of a file inside bucketID.
func FileID(ctx context.Context, client bridge.Client, bucketID, ref string) (string, error) {
	if IsID(ref) {
		return ref, nil
	}

	files, err := client.ListFilesInBucket(ctx, bucketID)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", kerrors.ErrNoFilesInBucket
	}

	f, ok := FilenameIndex(files)[ref]
	if !ok {
		return "", fmt.Errorf("%w: %q", kerrors.ErrFileNotFound, ref)
	}
	return f.ID, nil
}

// BucketNameIndex maps bucket names to ids. With duplicate names the first
// bucket in listing order wins.
func BucketNameIndex(buckets []bridge.Bucket) map[string]string {
	index := make(map[string]string, len(buckets))
	for _, b := range buckets {
		if _, seen := index[b.Name]; !seen {
			index[b.Name] = b.ID
		}
	}
	return index
}

// FilenameIndex maps filenames to files. With duplicate names the first file
// in listing order wins.
func FilenameIndex(files []bridge.File) map[string]bridge.File {
	index := make(map[string]bridge.File, len(files))
	for _, f := range files {
		if _, seen := index[f.Filename]; !seen {
			index[f.Filename] = f
		}
	}
	return index
}
