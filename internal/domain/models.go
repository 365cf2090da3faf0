package domain

import "strings"

// Source and output layout shared by the bundler and the manifest writer.
const (
	SourceDir    = "./src"
	EntryName    = "index"
	CJSExt       = ".cjs"
	ESMExt       = ".mjs"
	ManifestFile = "package.json"
)

// Entry is one export path together with everything derived from it.
type Entry struct {
	// Path is "" for the root export, "/<name>" otherwise
	Path string
	// Locator is the bundler input, e.g. ./src/sub/index
	Locator string
	// Stem is the output location relative to the build dir, e.g. sub/index
	Stem string
	// Key is the export map key, e.g. ./sub
	Key string
}

// IsRoot reports whether the entry is the package root.
func (e Entry) IsRoot() bool {
	return e.Path == ""
}

// RequireTarget returns the CommonJS target used in the exports map.
func (e Entry) RequireTarget() string {
	return "." + e.Path + "/" + EntryName + CJSExt
}

// ImportTarget returns the ES module target used in the exports map.
func (e Entry) ImportTarget() string {
	return "." + e.Path + "/" + EntryName + ESMExt
}

// ExportPath maps a configured directory name to its export path segment.
func ExportPath(dir string) string {
	if dir == "" {
		return ""
	}
	return "/" + dir
}

// ExportPaths maps every configured directory, keeping order.
func ExportPaths(dirs []string) []string {
	paths := make([]string, len(dirs))
	for i, d := range dirs {
		paths[i] = ExportPath(d)
	}
	return paths
}

// EntryLocator returns the bundler entry point for an export path.
func EntryLocator(path string) string {
	return SourceDir + path + "/" + EntryName
}

// ExportKey returns the exports map key for an export path.
func ExportKey(path string) string {
	return "." + path
}

// OutputStem returns the compiled entry location (no extension) relative to the build dir.
func OutputStem(path string) string {
	return strings.TrimPrefix(path+"/"+EntryName, "/")
}

// BuildEntries derives the entries for the configured directories.
func BuildEntries(dirs []string) []Entry {
	entries := make([]Entry, 0, len(dirs))
	for _, p := range ExportPaths(dirs) {
		entries = append(entries, Entry{
			Path:    p,
			Locator: EntryLocator(p),
			Stem:    OutputStem(p),
			Key:     ExportKey(p),
		})
	}
	return entries
}

// ExportKeys returns the export map keys of the entries, in order.
func ExportKeys(entries []Entry) []string {
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}
