package tmplopts

// Loader is the pluggable resolver of logical names to bytes, parsed
// templates, or library bundles.
type Loader interface {
	// LoadLibrary resolves a library name to its tag/filter bundle. ok is
	// false when the loader has no such library (not an error).
	LoadLibrary(name string) (lib *Library, ok bool, err error)

	// LoadTemplate searches dirs in order and parses the first match for
	// name, dispatching to the dialect registered for that template
	// (dialects register themselves with Dialect() below).
	LoadTemplate(name string, dirs []string) (Template, error)

	// LoadBytes reads a named resource verbatim, for {% include %}/
	// dialect S's <!--#include -->, which splice raw bytes without
	// parsing. dirs confines the search the same way LoadTemplate's does.
	LoadBytes(name string, dirs []string) ([]byte, error)
}

// ParseFunc parses raw template source into a Template; fsloader.New
// takes one of these per dialect so it never needs to import a dialect
// package directly.
type ParseFunc func(source []byte, name string) (Template, error)
