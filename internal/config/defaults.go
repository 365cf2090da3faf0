package config

// Default values
const (
	// ConfigFileName is the override file looked up in the project root
	ConfigFileName = "ts-lib-build.config.json"

	// EnvBuildDir overrides buildDir from the environment
	EnvBuildDir = "TSLIB_BUILD_DIR"

	DefaultBuildDir    = "./build"
	DefaultTrimReadme  = true
	DefaultDeclaration = true
	DefaultSourcemap   = true
	DefaultTarget      = "esnext"
)

// DefaultDirsToExport exports only the package root
var DefaultDirsToExport = []string{""}

// DefaultFieldsToCopy lists the package.json fields copied into the build manifest
var DefaultFieldsToCopy = []string{
	"name",
	"version",
	"description",
	"homepage",
	"author",
	"license",
	"sideEffects",
	"dependencies",
}

// AlwaysCopiedFields are unioned into fieldsToCopy whatever the override says
var AlwaysCopiedFields = []string{"name", "version"}

// SupportedTargets are the language targets accepted for "target"
var SupportedTargets = []string{
	"esnext",
	"es2015", "es2016", "es2017", "es2018", "es2019",
	"es2020", "es2021", "es2022", "es2023", "es2024",
}

// Default returns the default configuration.
// buildDir falls back to publishDir when it is non-empty.
func Default(publishDir string) *Config {
	buildDir := DefaultBuildDir
	if publishDir != "" {
		buildDir = publishDir
	}
	return &Config{
		BuildDir:     buildDir,
		DirsToExport: append([]string(nil), DefaultDirsToExport...),
		TrimReadme:   DefaultTrimReadme,
		FieldsToCopy: append([]string(nil), DefaultFieldsToCopy...),
		Declaration:  DefaultDeclaration,
		Sourcemap:    DefaultSourcemap,
		Target:       DefaultTarget,
	}
}
