package domain

//go:generate mockgen -destination=../mocks/mock_bundler.go -package=mocks github.com/quantmind-br/tslib-build/internal/domain Bundler

import "context"

// Bundler compiles the configured entries into the build directory
type Bundler interface {
	// Bundle compiles every entry and then calls onDone exactly once.
	// onDone is not called when compilation fails.
	Bundle(ctx context.Context, opts BundleOptions, onDone Hook) error
}

// Hook runs after the bundler has written all outputs
type Hook func(ctx context.Context, result *BundleResult) error

// ProgressFunc is notified as each bundler step starts
type ProgressFunc func(step string)
