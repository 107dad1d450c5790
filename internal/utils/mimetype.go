package utils

import (
	"mime"
	"path/filepath"
	"strings"
)

// DefaultContentType is used for files whose extension is unknown.
const DefaultContentType = "application/octet-stream"

// ContentType guesses a mimetype from the file extension.
func ContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return DefaultContentType
	}
	ct := mime.TypeByExtension(ext)
	if ct == "" {
		return DefaultContentType
	}
	// Drop parameters like "; charset=utf-8".
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}
