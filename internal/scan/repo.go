package scan

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"

	"sentinelscan/internal/config"
	"sentinelscan/internal/model"
	"sentinelscan/internal/telemetry"
)

// ErrRepoUnavailable is returned when no branch archive could be downloaded.
var ErrRepoUnavailable = errors.New("repository unavailable")

// FetchError describes one failed archive download.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("archive fetch %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("archive fetch %s failed (status %d)", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher produces the files of a remote repository.
type Fetcher interface {
	Fetch(ctx context.Context, repoURL string) ([]File, error)
}

// RepoFetcher downloads branch archives over HTTP and extracts them in memory.
type RepoFetcher struct {
	client          *http.Client
	branches        []string
	maxArchiveBytes int64
	filter          *Filter
}

// NewRepoFetcher creates a fetcher. A nil client gets one with the configured timeout.
func NewRepoFetcher(settings config.RepoSettings, filter *Filter, client *http.Client) *RepoFetcher {
	if client == nil {
		client = &http.Client{Timeout: settings.Timeout}
	}
	if filter == nil {
		filter = DefaultFilter()
	}
	branches := settings.Branches
	if len(branches) == 0 {
		branches = []string{"main", "master"}
	}
	return &RepoFetcher{
		client:          client,
		branches:        branches,
		maxArchiveBytes: settings.MaxArchiveBytes,
		filter:          filter,
	}
}

// NormalizeRepoURL trims trailing slashes and a ".git" suffix.
func NormalizeRepoURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	return strings.TrimSuffix(u, ".git")
}

// ArchiveURL is the download location of a branch archive.
func ArchiveURL(repoURL, branch string) string {
	return fmt.Sprintf("%s/archive/refs/heads/%s.zip", repoURL, branch)
}

// Fetch tries each configured branch in order and returns the files of the
// first archive that downloads.
func (f *RepoFetcher) Fetch(ctx context.Context, repoURL string) ([]File, error) {
	base := NormalizeRepoURL(repoURL)
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid repository url %q", ErrRepoUnavailable, repoURL)
	}

	var lastErr error
	for _, branch := range f.branches {
		archiveURL := ArchiveURL(base, branch)
		body, err := f.download(ctx, archiveURL)
		if err != nil {
			telemetry.LogDebug("Archive download failed", "url", archiveURL, "error", err)
			lastErr = err
			continue
		}
		files, err := f.extract(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRepoUnavailable, err)
		}
		return files, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrRepoUnavailable, lastErr)
}

func (f *RepoFetcher) download(ctx context.Context, archiveURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return nil, &FetchError{URL: archiveURL, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: archiveURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: archiveURL, StatusCode: resp.StatusCode}
	}

	reader := io.Reader(resp.Body)
	if f.maxArchiveBytes > 0 {
		reader = io.LimitReader(resp.Body, f.maxArchiveBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &FetchError{URL: archiveURL, StatusCode: resp.StatusCode, Err: err}
	}
	if f.maxArchiveBytes > 0 && int64(len(body)) > f.maxArchiveBytes {
		return nil, &FetchError{
			URL:        archiveURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("archive exceeds %d bytes", f.maxArchiveBytes),
		}
	}
	return body, nil
}

// extract reads the accepted files of a zip archive. A single top-level
// directory, as produced by branch archives, is stripped from every path.
func (f *RepoFetcher) extract(body []byte) ([]File, error) {
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	prefix := commonRoot(zr.File)
	var files []File
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		name := path.Clean(strings.TrimPrefix(zf.Name, prefix))
		if name == "." || strings.HasPrefix(name, "../") || name == ".." || path.IsAbs(name) {
			continue
		}
		if !f.filter.Accept(name, int64(zf.UncompressedSize64)) {
			continue
		}
		content, err := readZipFile(zf, f.filter.MaxFileSize)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", zf.Name, err)
		}
		files = append(files, File{Path: name, Content: content})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func readZipFile(zf *zip.File, limit int64) ([]byte, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	if limit > 0 {
		return io.ReadAll(io.LimitReader(rc, limit))
	}
	return io.ReadAll(rc)
}

// commonRoot returns "dir/" when every entry lives under the same top-level directory.
func commonRoot(entries []*zip.File) string {
	root := ""
	for _, zf := range entries {
		first, _, nested := strings.Cut(zf.Name, "/")
		if !nested {
			return ""
		}
		if root == "" {
			root = first
		} else if first != root {
			return ""
		}
	}
	if root == "" {
		return ""
	}
	return root + "/"
}

// ScanRepository fetches repoURL and scans it. Acquisition failures are not
// returned as errors: they produce a stored report with status "error".
func (a *Aggregator) ScanRepository(ctx context.Context, fetcher Fetcher, repoURL string) (*model.ScanReport, error) {
	files, err := fetcher.Fetch(ctx, repoURL)
	if err != nil {
		return a.Fail(ctx, repoURL, err)
	}
	return a.Scan(ctx, repoURL, files)
}
