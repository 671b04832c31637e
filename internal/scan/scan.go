// Package scan enumerates the directories and files of an application tree
// that take part in a deployment.
package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// DefaultIgnore lists the directories skipped when no ignore list is given.
var DefaultIgnore = []string{"bin", "obj"}

// DefaultBinaryPatterns lists the binary asset globs used when none are given.
var DefaultBinaryPatterns = []string{"*.png", "*.bmp", "*.jpg", "*.jpeg", "*.gif", "*.ico", "*.tiff", "*.swf"}

// Scanner walks an application root once and answers file queries against
// the directories it kept.
type Scanner struct {
	Root   string
	Ignore []string

	dirs []string
}

// New scans root and returns a Scanner over its included directories.
func New(root string, ignore []string) (*Scanner, error) {
	dirs, err := Directories(root, ignore)
	if err != nil {
		return nil, err
	}
	return &Scanner{Root: root, Ignore: ignore, dirs: dirs}, nil
}

// Files returns the files matching any of patterns in the included
// directories.
func (s *Scanner) Files(patterns ...string) ([]string, error) {
	return Files(s.dirs, patterns...)
}

// Rel returns path relative to the root with forward slashes.
func (s *Scanner) Rel(path string) (string, error) {
	return RelSlash(s.Root, path)
}

// Directories returns root and every directory beneath it, skipping each
// ignored directory together with its whole subtree. Ignore entries are
// relative to root; an entry excludes a directory only on a path component
// boundary, so "bin" excludes "bin" and "bin/debug" but not "bin2".
func Directories(root string, ignore []string) ([]string, error) {
	root = filepath.Clean(root)
	ignored := make(map[string]bool, len(ignore))
	for _, entry := range ignore {
		entry = NormalizeIgnore(entry)
		if entry == "" {
			continue
		}
		ignored[filepath.Join(root, entry)] = true
	}

	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if ignored[path] {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", root)
	}
	return dirs, nil
}

// NormalizeIgnore converts an operator-supplied ignore entry to a clean
// relative OS path: surrounding whitespace and leading separators are
// dropped and forward slashes become the OS separator.
func NormalizeIgnore(entry string) string {
	entry = strings.TrimSpace(entry)
	entry = filepath.FromSlash(strings.ReplaceAll(entry, "\\", "/"))
	entry = strings.TrimLeft(entry, string(filepath.Separator))
	if entry == "" {
		return ""
	}
	return filepath.Clean(entry)
}

// Files returns the regular files directly inside each of dirs whose name
// matches any of patterns. Results are grouped by pattern, then by
// directory, and each file appears once.
func Files(dirs []string, patterns ...string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, errors.Wrapf(err, "pattern %q", pattern)
		}
		for _, dir := range dirs {
			entries, err := os.ReadDir(dir)
			if err != nil {
				return nil, errors.Wrapf(err, "read %s", dir)
			}
			for _, e := range entries {
				if e.IsDir() || !matchFold(pattern, e.Name()) {
					continue
				}
				path := filepath.Join(dir, e.Name())
				if seen[path] {
					continue
				}
				seen[path] = true
				files = append(files, path)
			}
		}
	}
	return files, nil
}

// matchFold matches name against pattern ignoring case.
func matchFold(pattern, name string) bool {
	ok, _ := filepath.Match(strings.ToLower(pattern), strings.ToLower(name))
	return ok
}

// RelSlash returns path relative to root with forward slashes.
func RelSlash(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return filepath.ToSlash(rel), nil
}

// SplitList splits a separated operator list, trimming blanks.
func SplitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
