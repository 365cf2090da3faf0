package packager

import (
	"github.com/quantmind-br/tslib-build/internal/domain"
	"github.com/quantmind-br/tslib-build/internal/manifest"
)

// Compiled root entry targets
const (
	MainTarget   = "./" + domain.EntryName + domain.CJSExt
	ModuleTarget = "./" + domain.EntryName + domain.ESMExt
)

// ExportTargets is one exports map entry
type ExportTargets struct {
	Require string `json:"require"`
	Import  string `json:"import"`
}

// BuildManifest assembles the output manifest: the copied fields in fields
// order, then main, module and exports. Fields missing from src are omitted.
func BuildManifest(src *manifest.Manifest, fields []string, entries []domain.Entry) (*manifest.Object, error) {
	out := manifest.NewObject()
	for _, f := range fields {
		if raw, ok := src.Raw(f); ok {
			out.SetRaw(f, raw)
		}
	}

	// main and module always point at the root entry
	if err := out.Set("main", MainTarget); err != nil {
		return nil, err
	}
	if err := out.Set("module", ModuleTarget); err != nil {
		return nil, err
	}

	exports := manifest.NewObject()
	for _, e := range entries {
		if err := exports.Set(e.Key, ExportTargets{
			Require: e.RequireTarget(),
			Import:  e.ImportTarget(),
		}); err != nil {
			return nil, err
		}
	}
	if err := out.Set("exports", exports); err != nil {
		return nil, err
	}

	return out, nil
}

// SubpathManifest returns the reduced manifest for a non-root entry
func SubpathManifest(name string, e domain.Entry) manifest.Subpath {
	return manifest.Subpath{
		Name:        name + e.Path,
		Main:        MainTarget,
		Module:      ModuleTarget,
		SideEffects: false,
	}
}
