package bundler

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"

	"github.com/quantmind-br/tslib-build/internal/domain"
	"github.com/quantmind-br/tslib-build/internal/utils"
)

// typeScriptExts are tried in order when locating an entry's source file
var typeScriptExts = []string{".ts", ".tsx", ".mts", ".cts"}

// DeclarationRequest describes one declaration emit
type DeclarationRequest struct {
	ProjectDir string
	OutDir     string
	Entries    []domain.Entry
}

// DeclarationEmitter writes .d.ts files for the entries into the out dir
type DeclarationEmitter interface {
	// Emit returns the written files relative to the out dir
	Emit(ctx context.Context, req DeclarationRequest) ([]string, error)
}

// TSCEmitter emits declarations by running the TypeScript compiler
type TSCEmitter struct {
	fs       afero.Fs
	logger   *utils.Logger
	lookPath func(string) (string, error)
}

// TSCOptions contains options for the tsc emitter
type TSCOptions struct {
	Fs       afero.Fs
	Logger   *utils.Logger
	LookPath func(string) (string, error)
}

// NewTSCEmitter creates a new tsc-backed declaration emitter
func NewTSCEmitter(opts TSCOptions) *TSCEmitter {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewNopLogger()
	}
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}
	return &TSCEmitter{
		fs:       opts.Fs,
		logger:   opts.Logger.WithComponent("tsc"),
		lookPath: opts.LookPath,
	}
}

// Emit runs tsc with --emitDeclarationOnly. Projects whose entries are all
// JavaScript are skipped.
func (e *TSCEmitter) Emit(ctx context.Context, req DeclarationRequest) ([]string, error) {
	var sources []string
	for _, entry := range req.Entries {
		if src := ResolveTypeScriptEntry(req.ProjectDir, entry.Locator); src != "" {
			sources = append(sources, src)
		}
	}
	if len(sources) == 0 {
		e.logger.Debug().Msg("No TypeScript entries, skipping declarations")
		return nil, nil
	}

	tsc, err := FindTSC(req.ProjectDir, e.lookPath)
	if err != nil {
		return nil, err
	}

	args := []string{
		"--declaration",
		"--emitDeclarationOnly",
		"--noEmit", "false",
		"--outDir", req.OutDir,
		"--rootDir", filepath.Join(req.ProjectDir, domain.SourceDir),
	}
	tsconfig := filepath.Join(req.ProjectDir, "tsconfig.json")
	if _, err := os.Stat(tsconfig); err == nil {
		args = append(args, "--project", tsconfig)
	} else {
		args = append(args, "--skipLibCheck")
		args = append(args, sources...)
	}

	e.logger.Debug().Str("tsc", tsc).Strs("args", args).Msg("Running tsc")

	cmd := exec.CommandContext(ctx, tsc, args...)
	cmd.Dir = req.ProjectDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.NewBundleError(StepDeclarations, outputLines(output),
			fmt.Errorf("%w: tsc: %v", domain.ErrBundleFailed, err))
	}

	return e.collect(req.OutDir)
}

// collect lists the declaration files under outDir
func (e *TSCEmitter) collect(outDir string) ([]string, error) {
	var files []string
	err := afero.Walk(e.fs, outDir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".d.ts") {
			rel, err := filepath.Rel(outDir, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil && !utils.IsNotExist(err) {
		return nil, err
	}
	return files, nil
}

// ResolveTypeScriptEntry returns the TypeScript source behind an entry
// locator, or "" when the entry is not TypeScript
func ResolveTypeScriptEntry(projectDir, locator string) string {
	base := filepath.Join(projectDir, filepath.FromSlash(locator))
	for _, ext := range typeScriptExts {
		if info, err := os.Stat(base + ext); err == nil && !info.IsDir() {
			return base + ext
		}
	}
	return ""
}

// FindTSC locates the TypeScript compiler, preferring the project's own copy
func FindTSC(projectDir string, lookPath func(string) (string, error)) (string, error) {
	name := "tsc"
	if runtime.GOOS == "windows" {
		name = "tsc.cmd"
	}
	local := filepath.Join(projectDir, "node_modules", ".bin", name)
	if info, err := os.Stat(local); err == nil && !info.IsDir() {
		return local, nil
	}
	if lookPath != nil {
		if path, err := lookPath("tsc"); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: install typescript or set \"declaration\": false", domain.ErrCompilerNotFound)
}

func outputLines(output []byte) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
