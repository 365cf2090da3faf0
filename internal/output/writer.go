package output

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/quantmind-br/tslib-build/internal/domain"
	"github.com/quantmind-br/tslib-build/internal/manifest"
	"github.com/quantmind-br/tslib-build/internal/utils"
)

// Writer handles writing files into the build directory
type Writer struct {
	fs      afero.Fs
	baseDir string
}

// WriterOptions contains options for the writer
type WriterOptions struct {
	Fs      afero.Fs
	BaseDir string
}

// NewWriter creates a new output writer
func NewWriter(opts WriterOptions) *Writer {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.BaseDir == "" {
		opts.BaseDir = "./build"
	}

	return &Writer{
		fs:      opts.Fs,
		baseDir: filepath.Clean(opts.BaseDir),
	}
}

// BaseDir returns the build directory
func (w *Writer) BaseDir() string {
	return w.baseDir
}

// Path returns the location of a slash-separated path relative to the build dir
func (w *Writer) Path(rel string) string {
	return filepath.Join(w.baseDir, filepath.FromSlash(rel))
}

// WriteFile writes data to rel, creating parent directories.
// The returned error wraps both domain.ErrWriteFailed and the cause.
func (w *Writer) WriteFile(rel string, data []byte) error {
	path := w.Path(rel)
	if err := w.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrWriteFailed, path, err)
	}
	if err := afero.WriteFile(w.fs, path, data, 0644); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrWriteFailed, path, err)
	}
	return nil
}

// WriteJSON writes v to rel as indented JSON
func (w *Writer) WriteJSON(rel string, v any) error {
	data, err := manifest.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", rel, err)
	}
	return w.WriteFile(rel, data)
}

// CopyOptional copies src to rel. A missing src is not an error; copied
// reports whether anything was written.
func (w *Writer) CopyOptional(src, rel string) (copied bool, err error) {
	data, err := afero.ReadFile(w.fs, src)
	if err != nil {
		if utils.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", src, err)
	}
	if err := w.WriteFile(rel, data); err != nil {
		return false, err
	}
	return true, nil
}

// Clean removes the output directory
func (w *Writer) Clean() error {
	return w.fs.RemoveAll(w.baseDir)
}

// Files returns every regular file under the build dir as sorted,
// slash-separated relative paths. A missing build dir yields no files.
func (w *Writer) Files() ([]string, error) {
	var files []string
	err := afero.Walk(w.fs, w.baseDir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			rel, err := filepath.Rel(w.baseDir, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		if utils.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Stats returns the number of files and total size of the output directory
func (w *Writer) Stats() (int, int64, error) {
	var count int
	var size int64

	err := afero.Walk(w.fs, w.baseDir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			count++
			size += info.Size()
		}
		return nil
	})
	if err != nil && utils.IsNotExist(err) {
		return 0, 0, nil
	}

	return count, size, err
}
