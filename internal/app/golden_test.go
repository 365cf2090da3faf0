package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/tslib-build/internal/domain"
	"github.com/quantmind-br/tslib-build/internal/utils"
)

const (
	goldenRoot = "testdata/packages"
	goldenDir  = "__build"
)

// fakeBundler writes one small file per entry and format
type fakeBundler struct {
	fs afero.Fs
}

func (f *fakeBundler) Bundle(ctx context.Context, opts domain.BundleOptions, onDone domain.Hook) error {
	var files []string
	for _, e := range opts.Entries {
		for _, ext := range []string{domain.CJSExt, domain.ESMExt} {
			rel := e.Stem + ext
			content := fmt.Sprintf("// %s compiled from %s\n", strings.TrimPrefix(ext, "."), e.Locator)
			path := filepath.Join(opts.OutDir, filepath.FromSlash(rel))
			if err := f.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return err
			}
			if err := afero.WriteFile(f.fs, path, []byte(content), 0644); err != nil {
				return err
			}
			files = append(files, rel)
			if opts.Progress != nil {
				opts.Progress(ext)
			}
		}
	}
	return onDone(ctx, &domain.BundleResult{OutDir: opts.OutDir, Entries: opts.Entries, Files: files})
}

// copyTree copies src into dst, skipping the golden output dir
func copyTree(t *testing.T, src, dst string) {
	t.Helper()
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == goldenDir {
				return filepath.SkipDir
			}
			return os.MkdirAll(filepath.Join(dst, rel), 0755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dst, rel), data, 0644)
	})
	require.NoError(t, err)
}

func listFiles(t *testing.T, root string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if utils.IsNotExist(err) {
		return files
	}
	require.NoError(t, err)
	return files
}

// compareDirs reports every file that is missing, unexpected or different
func compareDirs(t *testing.T, got, want string) {
	t.Helper()
	gotFiles := listFiles(t, got)
	wantFiles := listFiles(t, want)

	names := make(map[string]bool)
	for name := range gotFiles {
		names[name] = true
	}
	for name := range wantFiles {
		names[name] = true
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	dmp := diffmatchpatch.New()
	for _, name := range sorted {
		g, inGot := gotFiles[name]
		w, inWant := wantFiles[name]
		switch {
		case !inGot:
			t.Errorf("%s: missing from build output", name)
		case !inWant:
			t.Errorf("%s: not expected in build output", name)
		case g != w:
			diffs := dmp.DiffMain(w, g, false)
			t.Errorf("%s: content differs:\n%s", name, dmp.DiffPrettyText(diffs))
		}
	}
}

func TestBuilder_GoldenPackages(t *testing.T) {
	update := os.Getenv("UPDATE") == "1"

	entries, err := os.ReadDir(goldenRoot)
	require.NoError(t, err)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()

		t.Run(name, func(t *testing.T) {
			src := filepath.Join(goldenRoot, name)
			project := t.TempDir()
			copyTree(t, src, project)

			fs := afero.NewOsFs()
			b := NewBuilder(BuilderOptions{
				Fs:      fs,
				Bundler: &fakeBundler{fs: fs},
				Logger:  utils.NewNopLogger(),
			})

			result, err := b.Build(context.Background(), BuildOptions{ProjectDir: project})
			require.NoError(t, err)

			want := filepath.Join(src, goldenDir)
			if update {
				require.NoError(t, os.RemoveAll(want))
				copyTree(t, result.BuildDir, want)
				return
			}
			compareDirs(t, result.BuildDir, want)
		})
	}
}
