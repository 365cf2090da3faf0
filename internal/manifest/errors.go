package manifest

import (
	"fmt"

	"github.com/quantmind-br/tslib-build/internal/domain"
)

// Sentinel errors for the manifest package
var (
	// ErrFileNotFound indicates the manifest file does not exist
	ErrFileNotFound = fmt.Errorf("%w", domain.ErrManifestNotFound)

	// ErrInvalidFormat indicates the manifest is not a JSON object
	ErrInvalidFormat = fmt.Errorf("%w: must be a JSON object", domain.ErrInvalidManifest)

	// ErrMissingName indicates the manifest has no usable name
	ErrMissingName = fmt.Errorf("%w: name must be a non-empty string", domain.ErrInvalidManifest)
)
