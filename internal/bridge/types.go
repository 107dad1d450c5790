package bridge

import (
	"fmt"
	"strings"
	"time"
)

// Operation is the transfer direction a token is scoped to.
type Operation string

const (
	// OperationPush authorizes storing a file.
	OperationPush Operation = "PUSH"
	// OperationPull authorizes reading a file.
	OperationPull Operation = "PULL"
)

// ParseOperation accepts PUSH or PULL in any case.
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(strings.ToUpper(strings.TrimSpace(s))); op {
	case OperationPush, OperationPull:
		return op, nil
	default:
		return "", fmt.Errorf("unknown token operation %q", s)
	}
}

// Bucket is a named container of files owned by the account.
type Bucket struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Storage  int       `json:"storage"`
	Transfer int       `json:"transfer"`
	Created  time.Time `json:"created"`
}

// BucketInfo is the payload for creating a bucket.
type BucketInfo struct {
	Name     string `json:"name"`
	Storage  int    `json:"storage"`
	Transfer int    `json:"transfer"`
}

// File is a stored object inside a bucket.
type File struct {
	ID       string    `json:"id"`
	Bucket   string    `json:"bucket"`
	Filename string    `json:"filename"`
	Mimetype string    `json:"mimetype"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
}

// FileMeta describes how a local file should be named on the bridge.
type FileMeta struct {
	Filename string
	Mimetype string
}

// Token is a short-lived transfer credential for one bucket and one operation.
type Token struct {
	Token     string    `json:"token"`
	Bucket    string    `json:"bucket"`
	Operation Operation `json:"operation"`
	Expires   time.Time `json:"expires"`
}

type tokenRequest struct {
	Operation Operation `json:"operation"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Header names used by the transfer routes.
const (
	HeaderToken    = "x-token"
	HeaderFilename = "x-filename"
)
