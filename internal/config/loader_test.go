package config

import (
	"errors"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/tslib-build/internal/domain"
)

const projectDir = "/project"

func writeOverride(t *testing.T, fs afero.Fs, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, projectDir+"/"+ConfigFileName, []byte(content), 0644))
}

// TestLoad_MissingConfig tests that a missing override file means defaults
func TestLoad_MissingConfig(t *testing.T) {
	fs := afero.NewMemMapFs()

	cfg, err := NewLoader(fs, nil).Load(LoadOptions{ProjectDir: projectDir})

	require.NoError(t, err)
	assert.Equal(t, DefaultBuildDir, cfg.BuildDir)
	assert.Equal(t, []string{""}, cfg.DirsToExport)
	assert.True(t, cfg.TrimReadme)
	assert.Equal(t, DefaultFieldsToCopy, cfg.FieldsToCopy)
}

// TestLoad_ShallowMerge tests that each present key replaces the default whole
func TestLoad_ShallowMerge(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeOverride(t, fs, `{
  "dirsToExport": ["", "sub"],
  "fieldsToCopy": ["license"],
  "trimReadme": false
}`)

	cfg, err := NewLoader(fs, nil).Load(LoadOptions{ProjectDir: projectDir})

	require.NoError(t, err)
	assert.Equal(t, DefaultBuildDir, cfg.BuildDir)
	assert.Equal(t, []string{"", "sub"}, cfg.DirsToExport)
	assert.False(t, cfg.TrimReadme)
	assert.Equal(t, []string{"name", "version", "license"}, cfg.FieldsToCopy)
	assert.True(t, cfg.Declaration)
}

func TestLoad_AllKeys(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeOverride(t, fs, `{
  "buildDir": "./out",
  "dirsToExport": ["a"],
  "trimReadme": true,
  "fieldsToCopy": ["name"],
  "declaration": false,
  "sourcemap": false,
  "target": "es2020",
  "$schema": "ignored"
}`)

	cfg, err := NewLoader(fs, nil).Load(LoadOptions{ProjectDir: projectDir})

	require.NoError(t, err)
	assert.Equal(t, &Config{
		BuildDir:     "./out",
		DirsToExport: []string{"a"},
		TrimReadme:   true,
		FieldsToCopy: []string{"name", "version"},
		Declaration:  false,
		Sourcemap:    false,
		Target:       "es2020",
	}, cfg)
}

// TestLoad_InvalidTypes tests that wrongly typed values fail validation
func TestLoad_InvalidTypes(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"buildDir number", `{"buildDir": 42}`},
		{"dirsToExport string", `{"dirsToExport": "sub"}`},
		{"dirsToExport numbers", `{"dirsToExport": ["", 1]}`},
		{"trimReadme string", `{"trimReadme": "yes"}`},
		{"trimReadme string true", `{"trimReadme": "true"}`},
		{"fieldsToCopy object", `{"fieldsToCopy": {"name": true}}`},
		{"exports bool", `{"exports": true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeOverride(t, fs, tt.content)

			cfg, err := NewLoader(fs, nil).Load(LoadOptions{ProjectDir: projectDir})

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)

			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, ConfigFileName, ve.Field)
		})
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeOverride(t, fs, `{"dirsToExport": [`)

	cfg, err := NewLoader(fs, nil).Load(LoadOptions{ProjectDir: projectDir})

	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestLoad_LegacyExportsKey(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeOverride(t, fs, `{"exports": ["", "sub"]}`)

	cfg, err := NewLoader(fs, nil).Load(LoadOptions{ProjectDir: projectDir})

	require.NoError(t, err)
	assert.Equal(t, []string{"", "sub"}, cfg.DirsToExport)
}

func TestLoad_LegacyAndCurrentKeyConflict(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeOverride(t, fs, `{"exports": [""], "dirsToExport": ["sub"]}`)

	_, err := NewLoader(fs, nil).Load(LoadOptions{ProjectDir: projectDir})

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "exports")
}

func TestLoad_SemanticValidation(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeOverride(t, fs, `{"dirsToExport": ["sub", "sub"]}`)

	_, err := NewLoader(fs, nil).Load(LoadOptions{ProjectDir: projectDir})

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "duplicate")
}

// TestLoad_BuildDirPrecedence tests publishConfig < file < env < argument
func TestLoad_BuildDirPrecedence(t *testing.T) {
	t.Run("publishConfig directory", func(t *testing.T) {
		cfg, err := NewLoader(afero.NewMemMapFs(), nil).Load(LoadOptions{
			ProjectDir: projectDir,
			PublishDir: "dist",
		})
		require.NoError(t, err)
		assert.Equal(t, "dist", cfg.BuildDir)
	})

	t.Run("file beats publishConfig", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeOverride(t, fs, `{"buildDir": "./from-file"}`)

		cfg, err := NewLoader(fs, nil).Load(LoadOptions{ProjectDir: projectDir, PublishDir: "dist"})
		require.NoError(t, err)
		assert.Equal(t, "./from-file", cfg.BuildDir)
	})

	t.Run("env beats file", func(t *testing.T) {
		t.Setenv(EnvBuildDir, "./from-env")
		fs := afero.NewMemMapFs()
		writeOverride(t, fs, `{"buildDir": "./from-file"}`)

		cfg, err := NewLoader(fs, nil).Load(LoadOptions{ProjectDir: projectDir})
		require.NoError(t, err)
		assert.Equal(t, "./from-env", cfg.BuildDir)
	})

	t.Run("argument beats everything", func(t *testing.T) {
		t.Setenv(EnvBuildDir, "./from-env")
		fs := afero.NewMemMapFs()
		writeOverride(t, fs, `{"buildDir": "./from-file"}`)

		cfg, err := NewLoader(fs, nil).Load(LoadOptions{ProjectDir: projectDir, BuildDir: "./__build"})
		require.NoError(t, err)
		assert.Equal(t, "./__build", cfg.BuildDir)
	})
}

func TestLoad_CustomConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, projectDir+"/configs/build.json", []byte(`{"trimReadme": false}`), 0644))

	cfg, err := NewLoader(fs, nil).Load(LoadOptions{
		ProjectDir: projectDir,
		ConfigFile: "configs/build.json",
	})

	require.NoError(t, err)
	assert.False(t, cfg.TrimReadme)
}

func TestLoad_MissingCustomConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	cfg, err := NewLoader(fs, nil).Load(LoadOptions{
		ProjectDir: projectDir,
		ConfigFile: "configs/missing.json",
	})

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "missing.json")
}

func TestLoadWithViper(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeOverride(t, fs, `{"dirsToExport": ["", "sub"]}`)

	cfg, v, err := NewLoader(fs, nil).LoadWithViper(LoadOptions{ProjectDir: projectDir})

	require.NoError(t, err)
	assert.NotNil(t, cfg)
	require.NotNil(t, v)
	assert.True(t, v.InConfig("dirsToExport"))
	assert.False(t, v.InConfig("buildDir"))
}

func TestConfigFilePath(t *testing.T) {
	assert.Equal(t, "/project/"+ConfigFileName, ConfigFilePath("/project", ""))
	assert.Equal(t, "/project/other.json", ConfigFilePath("/project", "other.json"))
	assert.Equal(t, "/etc/build.json", ConfigFilePath("/project", "/etc/build.json"))
}
