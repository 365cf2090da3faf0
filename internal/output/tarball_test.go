package output

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/tslib-build/internal/domain"
)

func TestTarballName(t *testing.T) {
	tests := []struct {
		name    string
		pkg     string
		version string
		want    string
	}{
		{name: "plain", pkg: "lib", version: "1.2.3", want: "lib-1.2.3.tgz"},
		{name: "scoped", pkg: "@acme/lib", version: "0.1.0", want: "acme-lib-0.1.0.tgz"},
		{name: "no version", pkg: "lib", version: "", want: "lib.tgz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TarballName(tt.pkg, tt.version))
		})
	}
}

func readTarball(t *testing.T, data []byte) map[string]*tar.Header {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	headers := make(map[string]*tar.Header)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		_, err = io.Copy(io.Discard, tr)
		require.NoError(t, err)
		headers[h.Name] = h
	}
	return headers
}

func TestWriter_Pack(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewWriter(WriterOptions{Fs: fs, BaseDir: "/project/build"})
	require.NoError(t, w.WriteFile("package.json", []byte(`{"name":"lib"}`)))
	require.NoError(t, w.WriteFile("index.cjs", []byte("module.exports = {};")))
	require.NoError(t, w.WriteFile("sub/package.json", []byte(`{"name":"lib/sub"}`)))

	size, err := w.Pack("/project/lib-1.0.0.tgz")
	require.NoError(t, err)
	assert.Positive(t, size)

	data, err := afero.ReadFile(fs, "/project/lib-1.0.0.tgz")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), size)

	headers := readTarball(t, data)
	require.Len(t, headers, 3)
	for _, name := range []string{"package/package.json", "package/index.cjs", "package/sub/package.json"} {
		h, ok := headers[name]
		require.True(t, ok, name)
		assert.Equal(t, packTime.Unix(), h.ModTime.Unix())
		assert.Equal(t, int64(0644), h.Mode)
	}
	assert.Equal(t, int64(len(`{"name":"lib"}`)), headers["package/package.json"].Size)
}

func TestWriter_Pack_Deterministic(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewWriter(WriterOptions{Fs: fs, BaseDir: "/project/build"})
	require.NoError(t, w.WriteFile("index.mjs", []byte("export {};")))
	require.NoError(t, w.WriteFile("README.md", []byte("# lib")))

	_, err := w.Pack("/project/a.tgz")
	require.NoError(t, err)
	_, err = w.Pack("/project/b.tgz")
	require.NoError(t, err)

	a, err := afero.ReadFile(fs, "/project/a.tgz")
	require.NoError(t, err)
	b, err := afero.ReadFile(fs, "/project/b.tgz")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestWriter_Pack_Errors(t *testing.T) {
	t.Run("empty build dir", func(t *testing.T) {
		w := NewWriter(WriterOptions{Fs: afero.NewMemMapFs(), BaseDir: "/project/build"})
		_, err := w.Pack("/project/lib.tgz")
		assert.ErrorIs(t, err, domain.ErrWriteFailed)
	})

	t.Run("destination inside build dir", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		w := NewWriter(WriterOptions{Fs: fs, BaseDir: "/project/build"})
		require.NoError(t, w.WriteFile("index.mjs", []byte("export {};")))

		_, err := w.Pack("/project/build/lib.tgz")
		assert.Error(t, err)
	})

	t.Run("destination in dot-prefixed dir inside build dir", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		w := NewWriter(WriterOptions{Fs: fs, BaseDir: "/project/build"})
		require.NoError(t, w.WriteFile("index.mjs", []byte("export {};")))

		_, err := w.Pack("/project/build/..cache/lib.tgz")
		assert.Error(t, err)
	})

	t.Run("close failure", func(t *testing.T) {
		fs := &closeFailFs{Fs: afero.NewMemMapFs()}
		w := NewWriter(WriterOptions{Fs: fs, BaseDir: "/project/build"})
		require.NoError(t, w.WriteFile("index.mjs", []byte("export {};")))

		_, err := w.Pack("/project/lib.tgz")
		assert.ErrorIs(t, err, domain.ErrWriteFailed)
		assert.ErrorIs(t, err, errDiskFull)
	})
}

var errDiskFull = errors.New("no space left on device")

// closeFailFs fails Close on every file it creates
type closeFailFs struct {
	afero.Fs
}

func (c *closeFailFs) Create(name string) (afero.File, error) {
	f, err := c.Fs.Create(name)
	if err != nil {
		return nil, err
	}
	return closeFailFile{File: f}, nil
}

type closeFailFile struct {
	afero.File
}

func (f closeFailFile) Close() error {
	_ = f.File.Close()
	return errDiskFull
}
