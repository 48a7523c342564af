package dialectd

import (
	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
)

// ParseString compiles dialect D template source under name, using
// Django's default {{ }}/{% %}/{# #} markers.
func ParseString(source, name string) (*Template, error) {
	return ParseStringWithMarkers(source, name, DefaultMarkers())
}

// ParseStringWithMarkers is ParseString with caller-supplied delimiters.
func ParseStringWithMarkers(source, name string, markers Markers) (*Template, error) {
	nodes, err := ParseTemplateSource(source, name, markers)
	if err != nil {
		return nil, err
	}
	return &Template{nodes: nodes, name: name, markers: markers}, nil
}

// ParseBytes adapts ParseString to tmplopts.ParseFunc's signature, so an
// fsloader.New(dialectd.ParseBytes) wires this dialect into the generic
// filesystem loader without it importing dialectd directly.
func ParseBytes(source []byte, name string) (tmplopts.Template, error) {
	return ParseString(string(source), name)
}

// Name reports the logical name the template was parsed under.
func (t *Template) Name() string { return t.name }
