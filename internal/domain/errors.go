package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors
var (
	// ErrManifestNotFound indicates the project has no package.json
	ErrManifestNotFound = errors.New("package manifest not found")

	// ErrInvalidManifest indicates package.json could not be parsed or lacks required fields
	ErrInvalidManifest = errors.New("invalid package manifest")

	// ErrInvalidConfig indicates the build override file has the wrong structure
	ErrInvalidConfig = errors.New("invalid build configuration")

	// ErrBundleFailed indicates the bundler reported errors
	ErrBundleFailed = errors.New("bundle failed")

	// ErrCompilerNotFound indicates tsc is required but could not be located
	ErrCompilerNotFound = errors.New("typescript compiler not found")

	// ErrWriteFailed indicates writing to the build directory failed
	ErrWriteFailed = errors.New("write failed")
)

// ValidationError represents a validation error for a single field
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError wrapping ErrInvalidConfig
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     ErrInvalidConfig,
	}
}

// BundleError represents a failed bundler run for one output format
type BundleError struct {
	Format   string
	Messages []string
	Err      error
}

func (e *BundleError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("%s bundle failed: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("%s bundle failed with %d error(s):\n%s",
		e.Format, len(e.Messages), strings.Join(e.Messages, "\n"))
}

func (e *BundleError) Unwrap() error {
	return e.Err
}

// NewBundleError creates a new BundleError wrapping ErrBundleFailed when err is nil
func NewBundleError(format string, messages []string, err error) *BundleError {
	if err == nil {
		err = ErrBundleFailed
	}
	return &BundleError{
		Format:   format,
		Messages: messages,
		Err:      err,
	}
}

// IsConfigError reports whether err was caused by a bad build configuration
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
