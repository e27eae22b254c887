// Package scanner resolves the -input argument to the ordered list of event
// files a run replays.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Scanner finds event files under a root path.
type Scanner struct {
	root string
}

// New creates a scanner for the given path, which may name a single event
// file or a directory of them.
func New(root string) *Scanner {
	return &Scanner{root: root}
}

// Scan returns the event files to replay. A file path returns just that
// file. A directory is walked for known extensions and the results are
// sorted lexically by path, so multi-file replays are deterministic.
func (s *Scanner) Scan() ([]string, error) {
	root := s.expandHome(s.root)

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat input path %s: %w", root, err)
	}

	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !isEventFile(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

// isEventFile checks for a known event stream extension.
func isEventFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".csv" || ext == ".ofx" || ext == ".qfx"
}

// expandHome expands a leading ~ to the user's home directory.
func (s *Scanner) expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
