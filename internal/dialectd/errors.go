package dialectd

import (
	"fmt"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
)

type baseError struct {
	pos tmplopts.Position
	msg string
}

func (e *baseError) Position() tmplopts.Position { return e.pos }
func (e *baseError) Error() string {
	if e.pos.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.pos.File, e.pos.Line, e.pos.Column, e.msg)
	}
	return fmt.Sprintf("%d:%d: %s", e.pos.Line, e.pos.Column, e.msg)
}

// LexError represents a lexical-analysis failure.
type LexError struct{ baseError }

func newLexError(pos tmplopts.Position, msg string) *LexError {
	return &LexError{baseError{pos: pos, msg: msg}}
}

// ParseError represents a grammar mismatch while building the match tree.
type ParseError struct{ baseError }

func newParseError(pos tmplopts.Position, msg string) *ParseError {
	return &ParseError{baseError{pos: pos, msg: msg}}
}

func newParseErrorf(pos tmplopts.Position, format string, args ...any) *ParseError {
	return &ParseError{baseError{pos: pos, msg: fmt.Sprintf(format, args...)}}
}

// RenderError represents a render-time failure, optionally wrapping a
// cause (e.g. a loader I/O error).
type RenderError struct {
	baseError
	Cause error
}

func newRenderErrorf(pos tmplopts.Position, format string, args ...any) *RenderError {
	return &RenderError{baseError: baseError{pos: pos, msg: fmt.Sprintf(format, args...)}}
}

func wrapRenderError(pos tmplopts.Position, msg string, cause error) *RenderError {
	return &RenderError{baseError: baseError{pos: pos, msg: msg}, Cause: cause}
}

func (e *RenderError) Error() string {
	base := e.baseError.Error()
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *RenderError) Unwrap() error { return e.Cause }

// UnmatchedBlockError indicates a control-flow tag without its matching
// end tag, or an end/intermediate tag with no opener.
type UnmatchedBlockError struct {
	baseError
	Tag string
}

func newUnmatchedBlockError(pos tmplopts.Position, tag string, msg string) *UnmatchedBlockError {
	return &UnmatchedBlockError{baseError: baseError{pos: pos, msg: msg}, Tag: tag}
}
