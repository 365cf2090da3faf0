package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/quantmind-br/tslib-build/internal/domain"
	"github.com/quantmind-br/tslib-build/internal/utils"
)

// LoadOptions controls where the override file is read from and what wins over it
type LoadOptions struct {
	// ProjectDir is the directory holding package.json
	ProjectDir string
	// ConfigFile overrides the default override file location.
	// Relative paths are resolved against ProjectDir.
	ConfigFile string
	// PublishDir is publishConfig.directory from package.json, used as the default buildDir
	PublishDir string
	// BuildDir, when set, replaces whatever buildDir was resolved
	BuildDir string
}

// Loader resolves the build configuration
type Loader struct {
	fs     afero.Fs
	logger *utils.Logger
}

// NewLoader creates a loader reading from fs. A nil fs reads from the OS
// filesystem and a nil logger discards output.
func NewLoader(fs afero.Fs, logger *utils.Logger) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Loader{fs: fs, logger: logger}
}

// Load resolves the build configuration from the OS filesystem
func Load(opts LoadOptions) (*Config, error) {
	return NewLoader(nil, nil).Load(opts)
}

// Load merges defaults, the override file, the environment and opts.BuildDir,
// in that order. Each top-level key present in the override file replaces the
// default as a whole.
func (l *Loader) Load(opts LoadOptions) (*Config, error) {
	cfg, _, err := l.LoadWithViper(opts)
	return cfg, err
}

// LoadWithViper resolves the configuration and returns the viper instance
// that produced it
func (l *Loader) LoadWithViper(opts LoadOptions) (*Config, *viper.Viper, error) {
	v := viper.New()
	v.SetFs(l.fs)

	setDefaults(v, Default(opts.PublishDir))

	path := ConfigFilePath(opts.ProjectDir, opts.ConfigFile)
	v.SetConfigFile(path)
	v.SetConfigType("json")

	// Only the default override file is optional
	if err := v.ReadInConfig(); err != nil {
		if utils.IsNotExist(err) && opts.ConfigFile != "" {
			return nil, nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, path, err)
		}
		if !utils.IsNotExist(err) {
			var parseErr viper.ConfigParseError
			if errors.As(err, &parseErr) {
				return nil, nil, &domain.ValidationError{
					Field:   filepath.Base(path),
					Message: parseErr.Error(),
					Err:     domain.ErrInvalidConfig,
				}
			}
			return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		l.logger.Debug().Str("path", path).Msg("No override file, using defaults")
	} else {
		l.logger.Debug().Str("path", path).Msg("Loaded override file")
	}

	if err := v.BindEnv("buildDir", EnvBuildDir); err != nil {
		return nil, nil, err
	}

	var raw fileConfig
	if err := v.Unmarshal(&raw, strictDecoding); err != nil {
		return nil, nil, &domain.ValidationError{
			Field:   filepath.Base(path),
			Message: err.Error(),
			Err:     domain.ErrInvalidConfig,
		}
	}

	cfg := raw.Config
	if v.InConfig("exports") {
		if v.InConfig("dirsToExport") {
			return nil, nil, domain.NewValidationError("exports", "cannot be combined with dirsToExport")
		}
		cfg.DirsToExport = raw.Exports
	}
	cfg.FieldsToCopy = unionFields(AlwaysCopiedFields, cfg.FieldsToCopy)

	if opts.BuildDir != "" {
		cfg.BuildDir = opts.BuildDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	l.logger.Debug().
		Str("build_dir", cfg.BuildDir).
		Strs("dirs", cfg.DirsToExport).
		Bool("trim_readme", cfg.TrimReadme).
		Strs("fields", cfg.FieldsToCopy).
		Msg("Resolved build configuration")

	return &cfg, v, nil
}

// ConfigFilePath returns the override file location for a project
func ConfigFilePath(projectDir, configFile string) string {
	if configFile == "" {
		configFile = ConfigFileName
	}
	return utils.ResolvePath(projectDir, configFile)
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("buildDir", d.BuildDir)
	v.SetDefault("dirsToExport", d.DirsToExport)
	v.SetDefault("trimReadme", d.TrimReadme)
	v.SetDefault("fieldsToCopy", d.FieldsToCopy)
	v.SetDefault("declaration", d.Declaration)
	v.SetDefault("sourcemap", d.Sourcemap)
	v.SetDefault("target", d.Target)
}

// strictDecoding turns off viper's weak typing and string splitting so a
// wrongly typed override value is reported instead of coerced
func strictDecoding(dc *mapstructure.DecoderConfig) {
	dc.WeaklyTypedInput = false
	dc.DecodeHook = nil
}
