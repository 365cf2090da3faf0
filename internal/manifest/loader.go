package manifest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/quantmind-br/tslib-build/internal/utils"
)

// Loader loads and validates package manifests
type Loader struct {
	fs afero.Fs
}

// NewLoader creates a new manifest loader reading from fs.
// A nil fs reads from the OS filesystem.
func NewLoader(fs afero.Fs) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Loader{fs: fs}
}

// Load reads and parses the manifest at path
func (l *Loader) Load(path string) (*Manifest, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if utils.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	return l.LoadFromBytes(data)
}

// LoadFromBytes parses a manifest from raw bytes
func (l *Loader) LoadFromBytes(data []byte) (*Manifest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if fields == nil {
		return nil, ErrInvalidFormat
	}

	for k, v := range fields {
		norm, err := Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", ErrInvalidFormat, k, err)
		}
		fields[k] = norm
	}

	m := &Manifest{fields: fields}
	name, ok := m.String("name")
	if !ok || strings.TrimSpace(name) == "" {
		return nil, ErrMissingName
	}
	m.Name = name

	return m, nil
}
