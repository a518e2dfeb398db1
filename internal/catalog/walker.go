package catalog

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
)

// RecordFile is one item produced by the walker: either the raw bytes of a
// record file, or the error that kept it from being read. A read error never
// stops enumeration of the remaining files.
type RecordFile struct {
	Path string
	Data []byte
	Err  error
}

// FileWalker enumerates record files under the staging tree.
type FileWalker struct{}

// NewFileWalker creates a walker.
func NewFileWalker() *FileWalker {
	return &FileWalker{}
}

// Walk recursively visits every regular file under root, sending one
// RecordFile per file on the returned channel. The channel is closed once
// the tree is exhausted or the context is cancelled. The sequence is
// single-pass.
func (w *FileWalker) Walk(ctx context.Context, root string) <-chan RecordFile {
	out := make(chan RecordFile)

	go func() {
		defer close(out)

		_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return filepath.SkipAll
			}
			if err != nil {
				// Report and keep walking the rest of the tree.
				select {
				case out <- RecordFile{Path: path, Err: err}:
				case <-ctx.Done():
					return filepath.SkipAll
				}
				return nil
			}
			if entry.IsDir() {
				return nil
			}

			data, readErr := os.ReadFile(path)
			select {
			case out <- RecordFile{Path: path, Data: data, Err: readErr}:
			case <-ctx.Done():
				return filepath.SkipAll
			}
			return nil
		})
	}()

	return out
}
