package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/PolarWolf314/storjcli/internal/utils"
	"github.com/google/uuid"
)

// FileName is the audit log inside the data directory.
const FileName = "audit.jsonl"

// Operation names recorded in the log.
const (
	OpUpload       = "upload"
	OpDownload     = "download"
	OpStream       = "cat"
	OpCreateBucket = "create-bucket"
	OpRemoveBucket = "remove-bucket"
	OpRemoveFile   = "remove-file"
	OpKeyringInit  = "keyring-init"
)

// Entry represents a single audit log entry.
type Entry struct {
	ID        string `json:"id"`   // Random UUID, unique per entry.
	Timestamp string `json:"ts"`   // RFC3339 with microseconds.
	User      string `json:"user"` // Local OS user.
	Host      string `json:"host,omitempty"`
	Operation string `json:"op"`

	// Optional fields depending on operation.
	Bridge   string `json:"bridge,omitempty"`
	Bucket   string `json:"bucket,omitempty"`    // Name or id as typed by the user.
	BucketID string `json:"bucket_id,omitempty"` // Resolved id.
	File     string `json:"file,omitempty"`      // Remote filename or local path.
	FileID   string `json:"file_id,omitempty"`
	Size     int64  `json:"size,omitempty"` // Plaintext bytes uploaded or downloaded.
	Output   string `json:"output,omitempty"`
}

// New returns an entry for op with id, user and host filled in.
func New(op string) Entry {
	entry := Entry{ID: uuid.NewString(), Operation: op}
	if user, err := utils.GetUsername(); err == nil {
		entry.User = user
	}
	if host, err := utils.GetHostname(); err == nil {
		entry.Host = host
	}
	return entry
}

// Log appends an entry to the audit log in dataDir.
// Audit logging is best-effort: failures are dropped and never fail the operation.
func Log(dataDir string, entry Entry) {
	if dataDir == "" {
		return
	}

	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return
	}

	f, err := os.OpenFile(LogPath(dataDir), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, _ = f.Write(append(data, '\n'))
}

// LogPath returns the path to the audit log file.
func LogPath(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

// ReadEntries reads all entries from the audit log.
// Returns an empty slice if the log doesn't exist.
func ReadEntries(dataDir string) ([]Entry, error) {
	data, err := os.ReadFile(LogPath(dataDir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				// Skip malformed entries.
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
