// Package builder is the programmatic entry point for building a library
// package, for use from Go build scripts and tests.
//
//	if err := builder.Build(ctx, ""); err != nil {
//	    log.Fatal(err)
//	}
package builder

import (
	"context"
	"io"

	"github.com/spf13/afero"

	"github.com/quantmind-br/tslib-build/internal/app"
	"github.com/quantmind-br/tslib-build/internal/utils"
)

// Options configures BuildProject
type Options struct {
	// ProjectDir holds package.json. Defaults to the working directory.
	ProjectDir string
	// BuildDir overrides the configured build directory when non-empty
	BuildDir string
	// ConfigFile overrides the ts-lib-build.config.json location
	ConfigFile string
	// Pack also writes <name>-<version>.tgz into ProjectDir
	Pack bool
	// Stdout receives the progress and completion lines. Nil discards them.
	Stdout io.Writer
	// Verbose enables debug logging to stderr
	Verbose bool
	// Fs defaults to the OS filesystem
	Fs afero.Fs
}

// Result summarizes a finished build
type Result = app.Result

// Build builds the package in the working directory. A non-empty buildDir
// overrides the configured build directory.
func Build(ctx context.Context, buildDir string) error {
	_, err := BuildProject(ctx, Options{BuildDir: buildDir})
	return err
}

// BuildProject runs the whole pipeline and returns once the build directory
// is complete, or with the first fatal error
func BuildProject(ctx context.Context, opts Options) (*Result, error) {
	logger := utils.NewNopLogger()
	if opts.Verbose {
		logger = utils.NewLogger(utils.LoggerOptions{Format: "pretty", Verbose: true})
	}

	b := app.NewBuilder(app.BuilderOptions{
		Fs:     opts.Fs,
		Logger: logger,
		Stdout: opts.Stdout,
	})

	return b.Build(ctx, app.BuildOptions{
		ProjectDir: opts.ProjectDir,
		BuildDir:   opts.BuildDir,
		ConfigFile: opts.ConfigFile,
		Pack:       opts.Pack,
	})
}
