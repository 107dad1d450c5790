package workflows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PolarWolf314/storjcli/internal/audit"
	kerrors "github.com/PolarWolf314/storjcli/internal/errors"
	"github.com/dustin/go-humanize"
)

const auditTimeLayout = "2006-01-02T15:04:05.000000Z"

// HistoryOptions configures the history workflow.
type HistoryOptions struct {
	// DataDir holds audit.jsonl.
	DataDir string

	// Limit is the maximum number of entries to return. 0 means no limit.
	Limit int

	// Reverse orders entries from most recent to oldest when true.
	Reverse bool

	// Operations filters entries by operation types (comma-separated).
	Operations string

	// Bucket filters entries by bucket name or id.
	Bucket string

	// Since filters entries after this date (YYYY-MM-DD format).
	Since string

	// Until filters entries before this date (YYYY-MM-DD format).
	Until string
}

// HistoryResult contains the outcome of a history read.
type HistoryResult struct {
	// Entries are the filtered audit log entries.
	Entries []audit.Entry

	// TotalEntriesBeforeFilter is the count of entries before filtering.
	TotalEntriesBeforeFilter int
}

// History reads and filters the audit log. A missing log yields no entries.
//
// Returns ErrInvalidDateFormat if the date format is invalid.
func History(ctx context.Context, opts HistoryOptions) (*HistoryResult, error) {
	entries, err := audit.ReadEntries(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	result := &HistoryResult{
		TotalEntriesBeforeFilter: len(entries),
	}

	if len(entries) == 0 {
		result.Entries = entries
		return result, nil
	}

	filtered := entries

	if opts.Operations != "" {
		ops := strings.Split(opts.Operations, ",")
		for i := range ops {
			ops[i] = strings.TrimSpace(ops[i])
		}
		filtered = filterByOperations(filtered, ops)
	}

	if opts.Bucket != "" {
		filtered = filterByBucket(filtered, opts.Bucket)
	}

	if opts.Since != "" {
		sinceTime, err := time.Parse("2006-01-02", opts.Since)
		if err != nil {
			return nil, fmt.Errorf("%w: --since date format invalid, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
		filtered = filterTime(filtered, func(t time.Time) bool { return !t.Before(sinceTime) })
	}

	if opts.Until != "" {
		untilTime, err := time.Parse("2006-01-02", opts.Until)
		if err != nil {
			return nil, fmt.Errorf("%w: --until date format invalid, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
		// Include the entire day by setting to end of day.
		untilTime = untilTime.Add(24*time.Hour - time.Nanosecond)
		filtered = filterTime(filtered, func(t time.Time) bool { return !t.After(untilTime) })
	}

	if opts.Reverse {
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}

	if opts.Limit > 0 && len(filtered) > opts.Limit {
		if opts.Reverse {
			// When reversed, limit takes first N (most recent).
			filtered = filtered[:opts.Limit]
		} else {
			// When not reversed, limit takes last N (most recent).
			filtered = filtered[len(filtered)-opts.Limit:]
		}
	}

	result.Entries = filtered
	return result, nil
}

// filterByOperations filters entries by operation types.
func filterByOperations(entries []audit.Entry, ops []string) []audit.Entry {
	opSet := make(map[string]bool)
	for _, op := range ops {
		opSet[strings.ToLower(op)] = true
	}

	var result []audit.Entry
	for _, e := range entries {
		if opSet[strings.ToLower(e.Operation)] {
			result = append(result, e)
		}
	}
	return result
}

// filterByBucket keeps entries whose bucket name or id equals ref.
func filterByBucket(entries []audit.Entry, ref string) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		if e.Bucket == ref || e.BucketID == ref {
			result = append(result, e)
		}
	}
	return result
}

func filterTime(entries []audit.Entry, keep func(time.Time) bool) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		t, ok := parseTimestamp(e.Timestamp)
		if ok && keep(t) {
			result = append(result, e)
		}
	}
	return result
}

func parseTimestamp(ts string) (time.Time, bool) {
	t, err := time.Parse(auditTimeLayout, ts)
	if err != nil {
		t, err = time.Parse(time.RFC3339, ts)
	}
	return t, err == nil
}

// FormatDateTime formats a timestamp string to YYYY-MM-DD HH:MM:SS format.
func FormatDateTime(ts string) string {
	t, ok := parseTimestamp(ts)
	if !ok {
		if len(ts) >= 19 {
			return ts[:19]
		}
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

// FormatDetails describes what an entry touched, e.g. "cat.jpg -> photos (1.2 MB)".
func FormatDetails(e audit.Entry) string {
	bucket := e.Bucket
	if bucket == "" {
		bucket = e.BucketID
	}

	switch e.Operation {
	case audit.OpUpload:
		return fmt.Sprintf("%s -> %s (%s)", e.File, bucket, humanize.Bytes(uint64(e.Size)))
	case audit.OpDownload:
		return fmt.Sprintf("%s/%s -> %s (%s)", bucket, e.File, e.Output, humanize.Bytes(uint64(e.Size)))
	case audit.OpStream:
		return fmt.Sprintf("%s/%s (%s)", bucket, e.File, humanize.Bytes(uint64(e.Size)))
	case audit.OpRemoveFile:
		return fmt.Sprintf("%s/%s", bucket, e.File)
	case audit.OpCreateBucket, audit.OpRemoveBucket:
		return bucket
	default:
		return ""
	}
}
