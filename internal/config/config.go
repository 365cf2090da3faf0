package config

import (
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/quantmind-br/tslib-build/internal/domain"
)

// Config is the resolved build configuration
type Config struct {
	BuildDir     string   `mapstructure:"buildDir" yaml:"buildDir"`
	DirsToExport []string `mapstructure:"dirsToExport" yaml:"dirsToExport"`
	TrimReadme   bool     `mapstructure:"trimReadme" yaml:"trimReadme"`
	FieldsToCopy []string `mapstructure:"fieldsToCopy" yaml:"fieldsToCopy"`
	Declaration  bool     `mapstructure:"declaration" yaml:"declaration"`
	Sourcemap    bool     `mapstructure:"sourcemap" yaml:"sourcemap"`
	Target       string   `mapstructure:"target" yaml:"target"`
}

// fileConfig is the shape of the override file. exports is the older name of
// dirsToExport.
type fileConfig struct {
	Config  `mapstructure:",squash"`
	Exports []string `mapstructure:"exports"`
}

// Entries derives the export entries for the configured directories
func (c *Config) Entries() []domain.Entry {
	return domain.BuildEntries(c.DirsToExport)
}

// Validate checks the merged configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BuildDir) == "" {
		return domain.NewValidationError("buildDir", "must not be empty")
	}
	switch path.Clean(strings.ReplaceAll(c.BuildDir, "\\", "/")) {
	case ".", "src":
		return domain.NewValidationError("buildDir", fmt.Sprintf("%q would overwrite project sources", c.BuildDir))
	}

	if len(c.DirsToExport) == 0 {
		return domain.NewValidationError("dirsToExport", "must list at least one directory")
	}
	seen := make(map[string]bool, len(c.DirsToExport))
	for _, dir := range c.DirsToExport {
		if err := validateExportDir(dir); err != nil {
			return err
		}
		if seen[dir] {
			return domain.NewValidationError("dirsToExport", fmt.Sprintf("duplicate entry %q", dir))
		}
		seen[dir] = true
	}

	for _, f := range c.FieldsToCopy {
		if f == "" {
			return domain.NewValidationError("fieldsToCopy", "field names must not be empty")
		}
	}

	if !slices.Contains(SupportedTargets, c.Target) {
		return domain.NewValidationError("target",
			fmt.Sprintf("unsupported target %q (use one of %s)", c.Target, strings.Join(SupportedTargets, ", ")))
	}

	return nil
}

// CheckBuildDir rejects a resolved build dir that cleaning would destroy the
// project with: the project root, any of its parents, or the sources dir.
func CheckBuildDir(projectDir, outDir string) error {
	projectDir = filepath.Clean(projectDir)
	outDir = filepath.Clean(outDir)
	if within(outDir, projectDir) {
		return domain.NewValidationError("buildDir",
			fmt.Sprintf("%q contains the project directory %s", outDir, projectDir))
	}
	if within(filepath.Join(projectDir, domain.SourceDir), outDir) {
		return domain.NewValidationError("buildDir",
			fmt.Sprintf("%q would overwrite project sources", outDir))
	}
	return nil
}

// within reports whether target equals dir or sits below it
func within(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func validateExportDir(dir string) error {
	if dir == "" {
		return nil
	}
	if strings.Contains(dir, "\\") {
		return domain.NewValidationError("dirsToExport", fmt.Sprintf("%q must use forward slashes", dir))
	}
	for _, seg := range strings.Split(dir, "/") {
		switch seg {
		case "":
			return domain.NewValidationError("dirsToExport",
				fmt.Sprintf("%q must be relative without leading, trailing or doubled slashes", dir))
		case ".", "..":
			return domain.NewValidationError("dirsToExport", fmt.Sprintf("%q must not contain . or .. segments", dir))
		}
	}
	return nil
}

// unionFields puts the always-copied fields first, then the configured ones,
// dropping duplicates
func unionFields(always, configured []string) []string {
	out := make([]string, 0, len(always)+len(configured))
	for _, f := range append(append([]string(nil), always...), configured...) {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}
