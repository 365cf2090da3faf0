package output

import (
	"archive/tar"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/quantmind-br/tslib-build/internal/domain"
)

// TarballPrefix is the directory every packed file is placed under
const TarballPrefix = "package/"

// packTime is stamped on every tarball entry so repeated packs are identical
var packTime = time.Date(1985, time.October, 26, 8, 15, 0, 0, time.UTC)

// TarballName returns the archive file name for a package, e.g.
// "@scope/lib" 1.0.0 becomes "scope-lib-1.0.0.tgz"
func TarballName(name, version string) string {
	base := strings.ReplaceAll(strings.TrimPrefix(name, "@"), "/", "-")
	if version == "" {
		return base + ".tgz"
	}
	return base + "-" + version + ".tgz"
}

// Pack writes a gzip-compressed tarball of the build directory to dst and
// returns its size. dst must be outside the build directory.
func (w *Writer) Pack(dst string) (int64, error) {
	if rel, err := filepath.Rel(w.baseDir, dst); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return 0, fmt.Errorf("tarball %s must be outside %s", dst, w.baseDir)
	}

	files, err := w.Files()
	if err != nil {
		return 0, fmt.Errorf("list build dir: %w", err)
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("%w: nothing to pack in %s", domain.ErrWriteFailed, w.baseDir)
	}

	f, err := w.fs.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", domain.ErrWriteFailed, dst, err)
	}

	if err := w.writeTarball(f, files); err != nil {
		_ = f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("%w: %s: %w", domain.ErrWriteFailed, dst, err)
	}

	info, err := w.fs.Stat(dst)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (w *Writer) writeTarball(out io.Writer, files []string) error {
	gz, err := gzip.NewWriterLevel(out, gzip.BestCompression)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(gz)

	for _, rel := range files {
		if err := w.addToTar(tw, rel); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("close gzip: %w", err)
	}
	return nil
}

func (w *Writer) addToTar(tw *tar.Writer, rel string) error {
	src, err := w.fs.Open(w.Path(rel))
	if err != nil {
		return fmt.Errorf("open %s: %w", rel, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}

	mode := int64(0644)
	if info.Mode().Perm()&0111 != 0 {
		mode = 0755
	}

	header := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     TarballPrefix + rel,
		Mode:     mode,
		Size:     info.Size(),
		ModTime:  packTime,
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("tar header %s: %w", rel, err)
	}
	if _, err := io.Copy(tw, src); err != nil {
		return fmt.Errorf("tar %s: %w", rel, err)
	}
	return nil
}
