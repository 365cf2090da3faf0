package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/quantmind-br/tslib-build/internal/bundler"
	"github.com/quantmind-br/tslib-build/internal/config"
	"github.com/quantmind-br/tslib-build/internal/domain"
	"github.com/quantmind-br/tslib-build/internal/manifest"
	"github.com/quantmind-br/tslib-build/internal/output"
	"github.com/quantmind-br/tslib-build/internal/packager"
	"github.com/quantmind-br/tslib-build/internal/utils"
)

// Builder coordinates one package build: manifest, config, bundle, post-process
type Builder struct {
	fs          afero.Fs
	bundler     domain.Bundler
	packager    *packager.Packager
	logger      *utils.Logger
	stdout      io.Writer
	progressOut io.Writer
}

// BuilderOptions contains options for creating a builder
type BuilderOptions struct {
	// Fs is used for every read and write. Defaults to the OS filesystem.
	Fs afero.Fs
	// Bundler defaults to the in-process esbuild bundler
	Bundler domain.Bundler
	// Logger takes precedence over LogLevel, LogFormat and Verbose
	Logger    *utils.Logger
	LogLevel  string
	LogFormat string
	Verbose   bool
	// Stdout receives the progress and completion lines. Nil discards them.
	Stdout io.Writer
	// ProgressOutput receives the progress bar. Nil disables it.
	ProgressOutput io.Writer
}

// BuildOptions are the per-run inputs
type BuildOptions struct {
	// ProjectDir holds package.json. Defaults to the working directory.
	ProjectDir string
	// BuildDir overrides the configured build directory
	BuildDir string
	// ConfigFile overrides the override file location
	ConfigFile string
	// Pack writes a tarball of the build directory into ProjectDir
	Pack bool
}

// Result summarizes a finished build
type Result struct {
	Name     string
	Version  string
	BuildDir string
	Entries  []domain.Entry
	Files    int
	Size     int64
	Report   *packager.Report
	// Tarball is empty unless BuildOptions.Pack was set
	Tarball     string
	TarballSize int64
	Duration    time.Duration
}

// NewBuilder creates a new builder
func NewBuilder(opts BuilderOptions) *Builder {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	logger := opts.Logger
	if logger == nil {
		logFormat := "pretty"
		if opts.LogFormat != "" {
			logFormat = opts.LogFormat
		}
		logger = utils.NewLogger(utils.LoggerOptions{
			Level:   opts.LogLevel,
			Format:  logFormat,
			Verbose: opts.Verbose,
		})
	}

	b := opts.Bundler
	if b == nil {
		b = bundler.New(bundler.Options{Fs: opts.Fs, Logger: logger})
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = io.Discard
	}

	return &Builder{
		fs:          opts.Fs,
		bundler:     b,
		packager:    packager.New(packager.Options{Fs: opts.Fs, Logger: logger}),
		logger:      logger,
		stdout:      stdout,
		progressOut: opts.ProgressOutput,
	}
}

// Resolve loads the manifest and the build configuration without building
func (b *Builder) Resolve(opts BuildOptions) (*manifest.Manifest, *config.Config, error) {
	projectDir, err := resolveProjectDir(opts.ProjectDir)
	if err != nil {
		return nil, nil, err
	}

	m, err := manifest.NewLoader(b.fs).Load(filepath.Join(projectDir, domain.ManifestFile))
	if err != nil {
		return nil, nil, fmt.Errorf("load manifest: %w", err)
	}

	cfg, err := config.NewLoader(b.fs, b.logger).Load(config.LoadOptions{
		ProjectDir: projectDir,
		ConfigFile: opts.ConfigFile,
		PublishDir: m.PublishDirectory(),
		BuildDir:   opts.BuildDir,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("resolve config: %w", err)
	}

	return m, cfg, nil
}

// Build runs the whole pipeline. Either every step completes or the first
// failure is returned.
func (b *Builder) Build(ctx context.Context, opts BuildOptions) (*Result, error) {
	startTime := time.Now()

	projectDir, err := resolveProjectDir(opts.ProjectDir)
	if err != nil {
		return nil, err
	}
	opts.ProjectDir = projectDir

	m, cfg, err := b.Resolve(opts)
	if err != nil {
		return nil, err
	}

	entries := cfg.Entries()
	keys := domain.ExportKeys(entries)
	outDir := utils.ResolvePath(projectDir, cfg.BuildDir)
	if err := config.CheckBuildDir(projectDir, outDir); err != nil {
		return nil, fmt.Errorf("resolve config: %w", err)
	}
	logger := b.logger.WithPackage(m.Name)

	logger.Info().
		Strs("exports", keys).
		Str("build_dir", outDir).
		Msg("Starting build")
	fmt.Fprintf(b.stdout, "Building %s [%s]\n", m.Name, strings.Join(keys, ", "))

	w := output.NewWriter(output.WriterOptions{Fs: b.fs, BaseDir: outDir})
	if err := w.Clean(); err != nil {
		return nil, fmt.Errorf("clean build dir: %w", err)
	}

	bundleOpts := domain.BundleOptions{
		ProjectDir:   projectDir,
		OutDir:       outDir,
		Entries:      entries,
		Declarations: cfg.Declaration,
		Sourcemap:    cfg.Sourcemap,
		EmitCJS:      true,
		Target:       cfg.Target,
	}

	bar := utils.NewProgressBar(bundleOpts.Steps()+1, utils.DescBundling, b.progressOut)
	bundleOpts.Progress = func(step string) {
		bar.Describe(utils.DescBundling + " " + step)
		_ = bar.Add(1)
	}

	var report *packager.Report
	hook := func(ctx context.Context, r *domain.BundleResult) error {
		bar.Describe(utils.DescPackaging)
		rep, err := b.packager.Process(ctx, packager.Input{
			ProjectDir: projectDir,
			OutDir:     r.OutDir,
			Manifest:   m,
			Config:     cfg,
			Entries:    r.Entries,
		})
		if err != nil {
			return err
		}
		report = rep
		_ = bar.Add(1)
		return nil
	}

	if err := b.bundler.Bundle(ctx, bundleOpts, hook); err != nil {
		_ = bar.Exit()
		if ctx.Err() != nil {
			logger.Warn().Msg("Build cancelled")
		}
		return nil, err
	}
	_ = bar.Finish()

	if report == nil {
		return nil, fmt.Errorf("%w: bundler returned without running the completion hook", domain.ErrBundleFailed)
	}

	count, size, err := w.Stats()
	if err != nil {
		return nil, fmt.Errorf("build dir stats: %w", err)
	}

	version, _ := m.String("version")
	result := &Result{
		Name:     m.Name,
		Version:  version,
		BuildDir: outDir,
		Entries:  entries,
		Files:    count,
		Size:     size,
		Report:   report,
	}

	if opts.Pack {
		result.Tarball = filepath.Join(projectDir, output.TarballName(m.Name, version))
		result.TarballSize, err = w.Pack(result.Tarball)
		if err != nil {
			return nil, fmt.Errorf("pack: %w", err)
		}
		logger.Info().
			Str("tarball", result.Tarball).
			Int64("size", result.TarballSize).
			Msg("Packed build dir")
	}

	result.Duration = time.Since(startTime)
	logger.Info().
		Int("files", count).
		Int64("size", size).
		Dur("duration", result.Duration).
		Msg("Build completed")

	fmt.Fprintf(b.stdout, "✔ Done: %d files, %s\n", count, humanize.Bytes(uint64(size)))
	if result.Tarball != "" {
		fmt.Fprintf(b.stdout, "  %s (%s)\n", filepath.Base(result.Tarball), humanize.Bytes(uint64(result.TarballSize)))
	}

	return result, nil
}

func resolveProjectDir(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(utils.ExpandPath(dir))
	if err != nil {
		return "", fmt.Errorf("resolve project dir: %w", err)
	}
	return abs, nil
}
