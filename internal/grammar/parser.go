package grammar

import "fmt"

// ParseError is returned when a top-level grammar fails to consume the
// entire input.
type ParseError struct {
	Pos     Position
	Snippet string
	Message string
}

func (e *ParseError) Error() string {
	if e.Pos.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s near %q", e.Pos.File, e.Pos.Line, e.Pos.Column, e.Message, e.Snippet)
	}
	return fmt.Sprintf("%d:%d: %s near %q", e.Pos.Line, e.Pos.Column, e.Message, e.Snippet)
}

// Parse runs top against the whole of input, failing with *ParseError
// unless the grammar consumes every byte.
func Parse(top Expr, input, file string) (*Match, error) {
	s := newScanner(input, file)
	m, ok := top.parse(s)
	if !ok || s.pos != len(s.input) {
		pos := s.position()
		end := s.pos + 24
		if end > len(s.input) {
			end = len(s.input)
		}
		return nil, &ParseError{Pos: pos, Snippet: s.input[s.pos:end], Message: "unexpected input"}
	}
	return m, nil
}
