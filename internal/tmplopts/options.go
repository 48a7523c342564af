package tmplopts

import (
	"io"

	"github.com/leapstack-labs/gotmpl/pkg/value"
)

// Template is satisfied by each dialect's compiled template type, so the
// Loader's load_template capability can hand back a ready-to-render
// template without tmplopts importing any dialect package.
type Template interface {
	RenderToString(ctx *Context, opts *Options) (string, error)
	RenderToStream(w io.Writer, ctx *Context, opts *Options) error
}

// UrlResolver resolves a named route to a URL string, backing dialect D's
// {% url %} tag.
type UrlResolver interface {
	Resolve(name string, args []string) (string, error)
}

// Library is a bundle of tags and filters contributed by {% load %}. The
// handler values are dialect-specific function types (dialectd.TagFunc /
// dialectd.FilterFunc); Options stores them as `any` so this package does
// not need to import the dialect packages, and dialectd type-asserts them
// back out when dispatching.
type Library struct {
	Name    string
	Tags    map[string]any
	Filters map[string]any
}

// Options carries every per-render configuration setting. A single
// struct is shared across all three dialects; each dialect kernel reads
// only the fields relevant to it.
type Options struct {
	// Common.
	Autoescape       bool
	DefaultValue     value.Value
	Formats          map[string]string
	Debug            bool
	Directories      []string
	Libraries        map[string]*Library
	Loaders          []Loader
	Resolvers        []UrlResolver
	LoadedTags       map[string]any
	LoadedFilters    map[string]any
	NonbreakingSpace string

	// Dialect S only.
	TimeFormat       string
	EchoMessage      string
	ErrorMessage     string
	MaxRegexCaptures int
	ThrowOnErrors    bool

	// Dialect T only.
	CaseSensitive   bool
	ShortcutSyntax  bool
	GlobalVars      *Context
	LoopContextVars bool

	// blockStack is the inheritance stack used by dialect D's extends/
	// block/super; PushExtends/PopExtends keep it balanced around a single
	// extends chain so it never leaks state between renders.
	blockStack []*blockFrame
}

type blockFrame struct {
	templateName string
	blocks       map[string]any // dialectd block bodies, typed via `any` to avoid an import cycle
}

// PushExtends records templateName on the inheritance stack, returning an
// error if it is already present (circular extends).
func (o *Options) PushExtends(templateName string) error {
	for _, f := range o.blockStack {
		if f.templateName == templateName {
			return &CircularExtendsError{Name: templateName}
		}
	}
	o.blockStack = append(o.blockStack, &blockFrame{templateName: templateName, blocks: map[string]any{}})
	return nil
}

// PopExtends removes the most recently pushed inheritance frame.
func (o *Options) PopExtends() {
	if len(o.blockStack) > 0 {
		o.blockStack = o.blockStack[:len(o.blockStack)-1]
	}
}

// CurrentBlocks returns the block map for the innermost active extends
// frame, or nil if none is active.
func (o *Options) CurrentBlocks() map[string]any {
	if len(o.blockStack) == 0 {
		return nil
	}
	return o.blockStack[len(o.blockStack)-1].blocks
}

// SetBlock records body (a dialectd *TagNode, typed any to avoid an import
// cycle) under name in the most-recently-pushed extends frame -- the frame
// belonging to the template that is currently being resolved against its
// parent.
func (o *Options) SetBlock(name string, body any) {
	if len(o.blockStack) == 0 {
		return
	}
	o.blockStack[len(o.blockStack)-1].blocks[name] = body
}

// FindBlockChain returns every override of name across the extends stack,
// ordered from least-derived to most-derived (the reverse of blockStack's
// push order, since blockStack itself runs most-derived first). Rendering
// the chain in this order and feeding each level's output forward as the
// next level's block.super is what lets block.super chain correctly
// through 3+ levels of {% extends %} instead of only ever seeing the
// original base template's content.
func (o *Options) FindBlockChain(name string) []any {
	var chain []any
	for i := len(o.blockStack) - 1; i >= 0; i-- {
		if b, ok := o.blockStack[i].blocks[name]; ok {
			chain = append(chain, b)
		}
	}
	return chain
}

// Clone returns a shallow copy of o suitable for handing to one render
// call: the inheritance stack starts empty (each render owns its own),
// everything else is shared by reference since parsed templates and
// registered loaders/filters are read-only once built.
func (o *Options) Clone() *Options {
	clone := *o
	clone.blockStack = nil
	return &clone
}

// CircularExtendsError is raised when a template transitively extends
// itself.
type CircularExtendsError struct{ Name string }

func (e *CircularExtendsError) Error() string {
	return "circular extends: " + e.Name
}

// Default returns an Options with the documented defaults: auto-escape on,
// default_value none, standard Django-style DATE_FORMAT/TIME_FORMAT, SSI's
// echo_message/error_message set to Apache's defaults, dialect T
// case-sensitive with shortcut syntax enabled.
func Default() *Options {
	return &Options{
		Autoescape:       true,
		DefaultValue:     value.None,
		Formats:          map[string]string{"DATE_FORMAT": "N j, Y", "TIME_FORMAT": "P"},
		Directories:      nil,
		Libraries:        map[string]*Library{},
		LoadedTags:       map[string]any{},
		LoadedFilters:    map[string]any{},
		NonbreakingSpace: " ",
		TimeFormat:       "%A, %d-%b-%Y %H:%M:%S %Z",
		EchoMessage:      "(none)",
		ErrorMessage:     "[an error occurred while processing this directive]",
		MaxRegexCaptures: 9,
		CaseSensitive:    true,
		ShortcutSyntax:   true,
		LoopContextVars:  true,
	}
}
