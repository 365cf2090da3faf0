// Package packager turns a finished bundle into a publishable directory: the
// trimmed package.json with its exports map, per-subpath manifests, the
// license and the readme.
package packager

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/quantmind-br/tslib-build/internal/config"
	"github.com/quantmind-br/tslib-build/internal/domain"
	"github.com/quantmind-br/tslib-build/internal/manifest"
	"github.com/quantmind-br/tslib-build/internal/output"
	"github.com/quantmind-br/tslib-build/internal/utils"
)

// Files read from the project root and written to the build dir
const (
	LicenseFile = "LICENSE.txt"
	ReadmeFile  = "README.md"
)

// ReadmeAction records how the readme was produced
type ReadmeAction string

const (
	ReadmeStub    ReadmeAction = "stub"
	ReadmeCopied  ReadmeAction = "copied"
	ReadmeSkipped ReadmeAction = "skipped"
)

// Input is everything one post-processing run needs
type Input struct {
	// ProjectDir holds the optional LICENSE.txt and README.md
	ProjectDir string
	// OutDir is the build directory the bundler wrote to
	OutDir   string
	Manifest *manifest.Manifest
	Config   *config.Config
	Entries  []domain.Entry
}

// Report describes what a run wrote
type Report struct {
	Manifest *manifest.Object
	// Subpaths lists written subpath manifests relative to the build dir
	Subpaths []string
	License  bool
	Readme   ReadmeAction
}

// Packager writes manifests and assets into the build directory
type Packager struct {
	fs     afero.Fs
	logger *utils.Logger
}

// Options contains options for the packager
type Options struct {
	Fs     afero.Fs
	Logger *utils.Logger
}

// New creates a new packager
func New(opts Options) *Packager {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewNopLogger()
	}
	return &Packager{
		fs:     opts.Fs,
		logger: opts.Logger.WithComponent("packager"),
	}
}

// Process writes subpath manifests, the output manifest, the license and the
// readme, in that order.
func (p *Packager) Process(ctx context.Context, in Input) (*Report, error) {
	if in.Manifest == nil || in.Config == nil {
		return nil, fmt.Errorf("packager: manifest and config are required")
	}

	w := output.NewWriter(output.WriterOptions{Fs: p.fs, BaseDir: in.OutDir})
	logger := p.logger.WithPackage(in.Manifest.Name)

	out, err := BuildManifest(in.Manifest, in.Config.FieldsToCopy, in.Entries)
	if err != nil {
		return nil, err
	}
	report := &Report{Manifest: out}

	for _, e := range in.Entries {
		if e.IsRoot() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rel := strings.TrimPrefix(e.Path, "/") + "/" + domain.ManifestFile
		if err := w.WriteJSON(rel, SubpathManifest(in.Manifest.Name, e)); err != nil {
			return nil, fmt.Errorf("write subpath manifest: %w", err)
		}
		report.Subpaths = append(report.Subpaths, rel)
		logger.WithEntry(e.Key).Debug().Str("file", rel).Msg("Wrote subpath manifest")
	}

	if err := w.WriteJSON(domain.ManifestFile, out); err != nil {
		return nil, fmt.Errorf("write package manifest: %w", err)
	}
	logger.Debug().Strs("keys", out.Keys()).Msg("Wrote package manifest")

	report.License, err = w.CopyOptional(filepath.Join(in.ProjectDir, LicenseFile), LicenseFile)
	if err != nil {
		return nil, fmt.Errorf("copy license: %w", err)
	}
	if !report.License {
		logger.Debug().Msg("No LICENSE.txt, skipping")
	}

	report.Readme, err = p.writeReadme(w, in, out)
	if err != nil {
		return nil, fmt.Errorf("write readme: %w", err)
	}
	logger.Debug().Str("readme", string(report.Readme)).Msg("Readme handled")

	return report, nil
}

func (p *Packager) writeReadme(w *output.Writer, in Input, out *manifest.Object) (ReadmeAction, error) {
	if homepage, ok := out.GetString("homepage"); in.Config.TrimReadme && ok && homepage != "" {
		if err := w.WriteFile(ReadmeFile, []byte(ReadmeStubText(homepage))); err != nil {
			if utils.IsNotExist(err) {
				return ReadmeSkipped, nil
			}
			return "", err
		}
		return ReadmeStub, nil
	}

	copied, err := w.CopyOptional(filepath.Join(in.ProjectDir, ReadmeFile), ReadmeFile)
	if err != nil {
		if utils.IsNotExist(err) {
			return ReadmeSkipped, nil
		}
		return "", err
	}
	if !copied {
		return ReadmeSkipped, nil
	}
	return ReadmeCopied, nil
}

// ReadmeStubText is the one-line readme written when trimReadme is set
func ReadmeStubText(homepage string) string {
	return fmt.Sprintf("See [package home](%s) for actual README", homepage)
}
