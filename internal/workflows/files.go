package workflows

import (
	"context"

	"github.com/PolarWolf314/storjcli/internal/audit"
	"github.com/PolarWolf314/storjcli/internal/bridge"
	"github.com/PolarWolf314/storjcli/internal/resolver"
)

// ListFilesResult contains the files of one bucket.
type ListFilesResult struct {
	BucketID string
	Files    []bridge.File
}

// ListFiles resolves bucketRef and lists its files.
func ListFiles(ctx context.Context, client bridge.Client, bucketRef string) (*ListFilesResult, error) {
	bucketID, err := resolver.BucketID(ctx, client, bucketRef)
	if err != nil {
		return nil, err
	}

	files, err := client.ListFilesInBucket(ctx, bucketID)
	if err != nil {
		return nil, err
	}
	return &ListFilesResult{BucketID: bucketID, Files: files}, nil
}

// RemoveFileOptions configures the remove-file workflow.
type RemoveFileOptions struct {
	Bucket string
	File   string

	// KeepSecret leaves the file's secret in the keyring.
	KeepSecret bool

	KeyRingAccess
}

// RemoveFileResult contains the outcome of remove-file.
type RemoveFileResult struct {
	BucketID      string
	FileID        string
	SecretRemoved bool
}

// RemoveFile deletes a remote file, then its secret from the keyring.
// The keyring is unlocked first so a wrong password leaves the remote file intact.
func RemoveFile(ctx context.Context, client bridge.Client, opts RemoveFileOptions) (*RemoveFileResult, error) {
	bucketID, err := resolver.BucketID(ctx, client, opts.Bucket)
	if err != nil {
		return nil, err
	}

	fileID, err := resolver.FileID(ctx, client, bucketID, opts.File)
	if err != nil {
		return nil, err
	}

	result := &RemoveFileResult{BucketID: bucketID, FileID: fileID}

	if opts.KeepSecret {
		if err := client.DeleteFile(ctx, bucketID, fileID); err != nil {
			return nil, err
		}
		logRemoveFile(opts, result)
		return result, nil
	}

	kr, err := opts.open()
	if err != nil {
		return nil, err
	}
	defer kr.Close()

	if err := client.DeleteFile(ctx, bucketID, fileID); err != nil {
		return nil, err
	}
	logRemoveFile(opts, result)

	removed, err := forgetSecrets(kr, fileID)
	if err != nil {
		return result, err
	}
	result.SecretRemoved = removed == 1
	return result, nil
}

func logRemoveFile(opts RemoveFileOptions, r *RemoveFileResult) {
	entry := audit.New(audit.OpRemoveFile)
	entry.Bucket, entry.BucketID = opts.Bucket, r.BucketID
	entry.File, entry.FileID = opts.File, r.FileID
	audit.Log(opts.DataDir, entry)
}
