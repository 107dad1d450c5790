package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kerrors "github.com/PolarWolf314/storjcli/internal/errors"
	"github.com/bmatcuk/doublestar/v4"
)

// TempSuffix marks encrypted temp files written next to an upload source.
const TempSuffix = ".crypt"

// ResolveFiles takes user-provided paths, directories and globs and returns
// the regular files they name, deduplicated, in argument order.
// Relative patterns are resolved against baseDir. Directories are walked
// recursively; ** is supported in globs. Leftover .crypt temp files and
// anything at or below a path listed in skipDirs are ignored, whether named
// literally, by glob or through a directory. Relative skipDirs are resolved
// against baseDir.
func ResolveFiles(patterns []string, baseDir string, skipDirs ...string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	r := resolver{baseDir: baseDir}
	for _, d := range skipDirs {
		if d != "" {
			r.skip = append(r.skip, r.abs(d))
		}
	}

	var files []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		resolved, err := r.resolvePattern(pattern)
		if err != nil {
			return nil, err
		}

		for _, f := range resolved {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrNoFilesMatched, strings.Join(patterns, ", "))
	}

	return files, nil
}

type resolver struct {
	baseDir string
	skip    []string
}

func (r resolver) abs(pattern string) string {
	if filepath.IsAbs(pattern) {
		return filepath.Clean(pattern)
	}
	return filepath.Join(r.baseDir, pattern)
}

func (r resolver) resolvePattern(pattern string) ([]string, error) {
	absPattern := r.abs(pattern)

	info, err := os.Stat(absPattern)
	if err == nil && info.IsDir() {
		return r.findFilesInDir(absPattern)
	}

	if strings.ContainsAny(pattern, "*?[{") {
		return r.expandGlob(absPattern, pattern)
	}

	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrLocalFileNotFound, pattern)
	}
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", pattern)
	}
	if r.skipped(absPattern) {
		return nil, nil
	}

	return []string{absPattern}, nil
}

func (r resolver) expandGlob(absPattern, pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(absPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}

	var filtered []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if r.skipped(m) {
			continue
		}
		filtered = append(filtered, m)
	}

	return filtered, nil
}

func (r resolver) findFilesInDir(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if r.inSkipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || r.skipped(path) {
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

func (r resolver) skipped(path string) bool {
	if strings.HasSuffix(path, TempSuffix) {
		return true
	}
	return r.inSkipDir(path)
}

// inSkipDir reports whether path is a skipped directory or lies below one.
func (r resolver) inSkipDir(path string) bool {
	for _, d := range r.skip {
		if path == d || strings.HasPrefix(path, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
