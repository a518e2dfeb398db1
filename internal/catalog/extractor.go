package catalog

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ArchiveExtractor unpacks the nested catalog archive: a zip container
// wrapping a tar of the record tree. Both layers land in the staging
// directory.
type ArchiveExtractor struct {
	stagingDir string
}

// NewArchiveExtractor creates an extractor rooted at the staging directory.
func NewArchiveExtractor(stagingDir string) *ArchiveExtractor {
	return &ArchiveExtractor{stagingDir: stagingDir}
}

// Extract unpacks both archive layers. It fails if either layer cannot
// produce a readable tree.
func (e *ArchiveExtractor) Extract(archivePath string) error {
	if err := e.extractZip(archivePath); err != nil {
		return fmt.Errorf("failed to extract catalog container: %w", err)
	}

	tarPath := filepath.Join(e.stagingDir, TarFileName)
	if err := e.extractTar(tarPath); err != nil {
		return fmt.Errorf("failed to extract catalog records: %w", err)
	}

	return nil
}

func (e *ArchiveExtractor) extractZip(archivePath string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip archive: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		destPath, err := e.safeJoin(file.Name)
		if err != nil {
			return err
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(destPath, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", destPath, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", destPath, err)
		}

		src, err := file.Open()
		if err != nil {
			return fmt.Errorf("open %s in zip archive: %w", file.Name, err)
		}

		if err := writeFile(destPath, src); err != nil {
			src.Close()
			return err
		}
		src.Close()
	}

	return nil
}

func (e *ArchiveExtractor) extractTar(tarPath string) error {
	file, err := os.Open(tarPath)
	if err != nil {
		return fmt.Errorf("open tar archive: %w", err)
	}
	defer file.Close()

	reader := tar.NewReader(file)
	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar archive: %w", err)
		}

		destPath, err := e.safeJoin(header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(destPath, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", destPath, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
				return fmt.Errorf("create directory for %s: %w", destPath, err)
			}
			if err := writeFile(destPath, reader); err != nil {
				return err
			}
		}
	}

	return nil
}

// safeJoin resolves an archive entry name under the staging directory and
// rejects entries that would escape it. An entry resolving to the staging
// root itself (tar writes "./" as its first entry) is allowed and resolves
// to the root.
func (e *ArchiveExtractor) safeJoin(name string) (string, error) {
	root := filepath.Clean(e.stagingDir)
	destPath := filepath.Join(root, name)
	if destPath != root && !strings.HasPrefix(destPath, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes staging directory: %s", name)
	}
	return destPath, nil
}

func writeFile(destPath string, src io.Reader) error {
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	return out.Close()
}
