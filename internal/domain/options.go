package domain

// BundleOptions contains everything the bundler needs for one run.
type BundleOptions struct {
	// ProjectDir is the directory entry locators are resolved against
	ProjectDir string
	// OutDir receives compiled outputs
	OutDir       string
	Entries      []Entry
	Declarations bool
	Sourcemap    bool
	// EmitCJS adds the legacy CommonJS build next to the ES module build
	EmitCJS bool
	Target  string
	// Progress is optional
	Progress ProgressFunc
}

// Steps returns the number of progress steps a run with these options reports.
func (o BundleOptions) Steps() int {
	steps := 1
	if o.EmitCJS {
		steps++
	}
	if o.Declarations {
		steps++
	}
	return steps
}

// BundleResult is passed to the completion hook.
type BundleResult struct {
	OutDir  string
	Entries []Entry
	// Files lists written outputs relative to OutDir
	Files []string
}
