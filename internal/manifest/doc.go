// Package manifest reads a project's package.json and builds the trimmed
// manifests written into the build directory.
//
// # Reading
//
// The source manifest is kept as compacted raw JSON values so copied fields
// keep their original structure and key order:
//
//	loader := manifest.NewLoader(afero.NewOsFs())
//	pkg, err := loader.Load("package.json")
//	if err != nil {
//	    return err
//	}
//	deps, ok := pkg.Raw("dependencies")
//
// # Writing
//
// Object is a JSON object that remembers insertion order. Marshal renders any
// value with two-space indentation, no HTML escaping and no trailing newline,
// the same bytes JSON.stringify(value, null, 2) produces for package.json
// content:
//
//	out := manifest.NewObject()
//	out.SetRaw("name", deps)
//	_ = out.Set("main", "./index.cjs")
//	data, err := manifest.Marshal(out)
//
// # Error Handling
//
// The package defines sentinel errors for common failure cases:
//   - ErrFileNotFound: package.json does not exist
//   - ErrInvalidFormat: file is not a JSON object
//   - ErrMissingName: the name field is absent or not a string
package manifest
