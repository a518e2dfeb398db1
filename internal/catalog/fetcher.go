package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	// ArchiveFileName is the name of the downloaded catalog archive.
	ArchiveFileName = "rdf-files.tar.zip"
	// TarFileName is the inner archive wrapped by the zip container.
	TarFileName = "rdf-files.tar"
	// RecordsSubpath is where the extracted tree keeps the record files.
	RecordsSubpath = "cache/epub"
)

// HTTPFetcher downloads the remote catalog archive into the staging
// directory.
type HTTPFetcher struct {
	httpClient *http.Client
	url        string
	stagingDir string
}

// NewHTTPFetcher creates a fetcher for the given catalog URL. The timeout
// bounds the whole download; on expiry the fetch fails.
func NewHTTPFetcher(url, stagingDir string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		url:        url,
		stagingDir: stagingDir,
	}
}

// Fetch downloads the catalog archive and returns the local path of the
// fully written file.
func (f *HTTPFetcher) Fetch(ctx context.Context) (string, error) {
	if err := os.MkdirAll(f.stagingDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "bibliotech/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status fetching catalog: %d", resp.StatusCode)
	}

	archivePath := filepath.Join(f.stagingDir, ArchiveFileName)
	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("create archive file: %w", err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return "", fmt.Errorf("write archive file: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("flush archive file: %w", err)
	}

	return archivePath, nil
}
