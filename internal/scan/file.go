// Package scan turns file trees, uploads and repository archives into scan reports.
package scan

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"sentinelscan/internal/config"
)

// File is one candidate for scanning. Path is relative to the scan root and
// always uses forward slashes.
type File struct {
	Path    string
	Content []byte
}

// Filter decides which files reach the detectors.
type Filter struct {
	Extensions  map[string]bool
	ExcludeDirs map[string]bool
	MaxFileSize int64
}

// NewFilter builds a Filter from scan settings.
func NewFilter(s config.ScanSettings) *Filter {
	f := &Filter{
		Extensions:  make(map[string]bool, len(s.Extensions)),
		ExcludeDirs: make(map[string]bool, len(s.ExcludeDirs)),
		MaxFileSize: s.MaxFileSize,
	}
	for _, ext := range s.Extensions {
		f.Extensions[strings.ToLower(ext)] = true
	}
	for _, dir := range s.ExcludeDirs {
		f.ExcludeDirs[dir] = true
	}
	return f
}

// DefaultFilter uses the built-in allow-list and a 1 MB cap.
func DefaultFilter() *Filter {
	return NewFilter(config.ScanSettings{
		MaxFileSize: 1_000_000,
		Extensions:  config.DefaultExtensions,
		ExcludeDirs: config.DefaultExcludeDirs,
	})
}

// Excluded reports whether any component of rel is hidden or an excluded directory.
func (f *Filter) Excluded(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == "" || part == "." {
			continue
		}
		if strings.HasPrefix(part, ".") || f.ExcludeDirs[part] {
			return true
		}
	}
	return false
}

// Accept reports whether a file of the given size at rel should be scanned.
func (f *Filter) Accept(rel string, size int64) bool {
	if f.MaxFileSize > 0 && size > f.MaxFileSize {
		return false
	}
	if f.Excluded(rel) {
		return false
	}
	return f.Extensions[strings.ToLower(path.Ext(filepath.ToSlash(rel)))]
}

// CollectDir walks root and loads every accepted file, sorted by path.
func CollectDir(root string, filter *Filter) ([]File, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		content, err := os.ReadFile(root)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", root, err)
		}
		name := filepath.Base(root)
		if !filter.Accept(name, int64(len(content))) {
			return nil, nil
		}
		return []File{{Path: name, Content: content}}, nil
	}

	var files []File
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if rel != "." && filter.Excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		if !filter.Accept(rel, fi.Size()) {
			return nil
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", rel, err)
		}
		files = append(files, File{Path: filepath.ToSlash(rel), Content: content})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// decode converts raw bytes to text. Content with a NUL byte is binary and
// rejected; invalid UTF-8 sequences are dropped.
func decode(content []byte) (string, bool) {
	if bytes.IndexByte(content, 0) >= 0 {
		return "", false
	}
	if utf8.Valid(content) {
		return string(content), true
	}
	return strings.ToValidUTF8(string(content), ""), true
}
