// Package bundler compiles library entry points with esbuild and emits type
// declarations with tsc.
package bundler

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/spf13/afero"

	"github.com/quantmind-br/tslib-build/internal/domain"
	"github.com/quantmind-br/tslib-build/internal/utils"
)

// Ensure EsbuildBundler implements domain.Bundler
var _ domain.Bundler = (*EsbuildBundler)(nil)

// Progress step names
const (
	StepESM          = "esm"
	StepCJS          = "cjs"
	StepDeclarations = "dts"
)

type outputFormat struct {
	name   string
	format api.Format
	ext    string
}

var (
	formatESM = outputFormat{name: StepESM, format: api.FormatESModule, ext: domain.ESMExt}
	formatCJS = outputFormat{name: StepCJS, format: api.FormatCommonJS, ext: domain.CJSExt}
)

var targets = map[string]api.Target{
	"esnext": api.ESNext,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"es2023": api.ES2023,
	"es2024": api.ES2024,
}

// EsbuildBundler compiles entries in-process with esbuild
type EsbuildBundler struct {
	fs           afero.Fs
	logger       *utils.Logger
	declarations DeclarationEmitter
}

// Options contains options for the esbuild bundler
type Options struct {
	// Fs receives the compiled outputs. Defaults to the OS filesystem.
	Fs     afero.Fs
	Logger *utils.Logger
	// Declarations emits .d.ts files. Defaults to a TSCEmitter.
	Declarations DeclarationEmitter
}

// New creates a new esbuild bundler
func New(opts Options) *EsbuildBundler {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewNopLogger()
	}
	if opts.Declarations == nil {
		opts.Declarations = NewTSCEmitter(TSCOptions{Fs: opts.Fs, Logger: opts.Logger})
	}
	return &EsbuildBundler{
		fs:           opts.Fs,
		logger:       opts.Logger.WithComponent("bundler"),
		declarations: opts.Declarations,
	}
}

// Bundle compiles every entry to ES module (and CommonJS when requested)
// outputs, emits declarations, then calls onDone once.
func (b *EsbuildBundler) Bundle(ctx context.Context, opts domain.BundleOptions, onDone domain.Hook) error {
	if len(opts.Entries) == 0 {
		return fmt.Errorf("%w: no entries to bundle", domain.ErrBundleFailed)
	}

	target, ok := targets[opts.Target]
	if !ok {
		return domain.NewValidationError("target", fmt.Sprintf("unsupported target %q", opts.Target))
	}

	projectDir, err := filepath.Abs(opts.ProjectDir)
	if err != nil {
		return fmt.Errorf("resolve project dir: %w", err)
	}
	outDir := utils.ResolvePath(projectDir, opts.OutDir)

	formats := []outputFormat{formatESM}
	if opts.EmitCJS {
		formats = append(formats, formatCJS)
	}

	var files []string
	for _, f := range formats {
		if err := ctx.Err(); err != nil {
			return err
		}
		notify(opts.Progress, f.name)

		written, err := b.build(projectDir, outDir, opts, f, target)
		if err != nil {
			return err
		}
		files = append(files, written...)
	}

	if opts.Declarations {
		if err := ctx.Err(); err != nil {
			return err
		}
		notify(opts.Progress, StepDeclarations)

		written, err := b.declarations.Emit(ctx, DeclarationRequest{
			ProjectDir: projectDir,
			OutDir:     outDir,
			Entries:    opts.Entries,
		})
		if err != nil {
			return err
		}
		files = append(files, written...)
	}

	sort.Strings(files)
	b.logger.Debug().
		Int("files", len(files)).
		Str("out_dir", outDir).
		Msg("Bundling finished")

	return onDone(ctx, &domain.BundleResult{
		OutDir:  outDir,
		Entries: opts.Entries,
		Files:   files,
	})
}

func (b *EsbuildBundler) build(projectDir, outDir string, opts domain.BundleOptions, f outputFormat, target api.Target) ([]string, error) {
	entryPoints := make([]api.EntryPoint, len(opts.Entries))
	for i, e := range opts.Entries {
		entryPoints[i] = api.EntryPoint{InputPath: e.Locator, OutputPath: e.Stem}
	}

	sourcemap := api.SourceMapNone
	if opts.Sourcemap {
		sourcemap = api.SourceMapLinked
	}

	result := api.Build(api.BuildOptions{
		AbsWorkingDir:       projectDir,
		EntryPointsAdvanced: entryPoints,
		Outdir:              outDir,
		OutExtension:        map[string]string{".js": f.ext},
		Bundle:              true,
		Packages:            api.PackagesExternal,
		Platform:            api.PlatformNeutral,
		Format:              f.format,
		Target:              target,
		Sourcemap:           sourcemap,
		LogLevel:            api.LogLevelSilent,
		Write:               false,
	})

	if len(result.Errors) > 0 {
		messages := api.FormatMessages(result.Errors, api.FormatMessagesOptions{
			Kind: api.ErrorMessage,
		})
		for i, m := range messages {
			messages[i] = strings.TrimRight(m, "\n")
		}
		return nil, domain.NewBundleError(f.name, messages, nil)
	}

	for _, w := range api.FormatMessages(result.Warnings, api.FormatMessagesOptions{Kind: api.WarningMessage}) {
		b.logger.Warn().Str("format", f.name).Msg(strings.TrimSpace(w))
	}

	written := make([]string, 0, len(result.OutputFiles))
	for _, out := range result.OutputFiles {
		rel, err := filepath.Rel(outDir, out.Path)
		if err != nil {
			return nil, fmt.Errorf("output %s outside %s: %w", out.Path, outDir, err)
		}
		if err := b.fs.MkdirAll(filepath.Dir(out.Path), 0755); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
		}
		if err := afero.WriteFile(b.fs, out.Path, out.Contents, 0644); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
		}
		written = append(written, filepath.ToSlash(rel))
		b.logger.Debug().Str("file", filepath.ToSlash(rel)).Int("bytes", len(out.Contents)).Msg("Wrote output")
	}

	return written, nil
}

func notify(fn domain.ProgressFunc, step string) {
	if fn != nil {
		fn(step)
	}
}
