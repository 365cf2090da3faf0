package utils

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Standard progress bar descriptions
const (
	DescBundling  = "Bundling"
	DescPackaging = "Packaging"
)

// NewProgressBar creates a consistently styled progress bar.
//
// Parameters:
//   - total: Total number of steps. Use -1 for unknown totals (spinner mode).
//   - description: Text shown before the bar (e.g., DescBundling).
//   - w: Destination. A nil writer discards all rendering.
//
// Example:
//
//	bar := utils.NewProgressBar(opts.Steps(), utils.DescBundling, os.Stderr)
//	defer bar.Finish()
//
//	opts.Progress = func(step string) {
//	    bar.Describe(utils.DescBundling + " " + step)
//	    _ = bar.Add(1)
//	}
func NewProgressBar(total int, description string, w io.Writer) *progressbar.ProgressBar {
	if w == nil {
		w = io.Discard
	}

	opts := []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	}

	if total < 0 {
		opts = append(opts,
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	return progressbar.NewOptions(total, opts...)
}
