package dialects

import (
	"fmt"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
)

type baseError struct {
	pos sPos
	msg string
}

func (e *baseError) Position() tmplopts.Position { return toOptsPosition(e.pos) }
func (e *baseError) Error() string {
	if e.pos.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.pos.File, e.pos.Line, e.pos.Col, e.msg)
	}
	return fmt.Sprintf("%d:%d: %s", e.pos.Line, e.pos.Col, e.msg)
}

// ParseError represents a directive/expression syntax failure.
type ParseError struct{ baseError }

func newParseErrorAt(p sPos, msg string) *ParseError {
	return &ParseError{baseError{pos: p, msg: msg}}
}

func newParseErrorf(p sPos, format string, args ...any) *ParseError {
	return &ParseError{baseError{pos: p, msg: fmt.Sprintf(format, args...)}}
}

// RenderError represents a render-time failure, surfaced only when
// opts.ThrowOnErrors is set; otherwise render substitutes opts.ErrorMessage
// and continues, matching mod_include's default behavior.
type RenderError struct {
	baseError
	Cause error
}

func wrapRenderError(p sPos, msg string, cause error) *RenderError {
	return &RenderError{baseError: baseError{pos: p, msg: msg}, Cause: cause}
}

func (e *RenderError) Error() string {
	base := e.baseError.Error()
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *RenderError) Unwrap() error { return e.Cause }
