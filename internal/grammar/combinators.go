package grammar

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// scanner walks a source buffer tracking line/column for error reporting.
// Parsing is whole-buffer (templates are parsed whole, never incrementally);
// streams are buffered into a string before parsing begins.
type scanner struct {
	file  string
	input string
	pos   int
	line  int
	col   int
}

func newScanner(input, file string) *scanner {
	return &scanner{input: input, file: file, line: 1, col: 1}
}

func (s *scanner) position() Position {
	return Position{File: s.file, Line: s.line, Column: s.col, Offset: s.pos}
}

func (s *scanner) eof() bool { return s.pos >= len(s.input) }

// advanceTo moves the scanner from its current position up to (but not
// past) newPos, updating line/column bookkeeping.
func (s *scanner) advanceTo(newPos int) {
	for s.pos < newPos {
		if s.input[s.pos] == '\n' {
			s.line++
			s.col = 1
		} else {
			s.col++
		}
		s.pos++
	}
}

// Expr is a parsing expression: given a scanner, it either consumes a
// prefix of the remaining input and returns the Match it produced, or
// fails leaving the scanner untouched.
type Expr interface {
	parse(s *scanner) (*Match, bool)
}

type exprFunc func(s *scanner) (*Match, bool)

func (f exprFunc) parse(s *scanner) (*Match, bool) { return f(s) }

// group wraps a set of children under an untagged (Rule == 0) carrier
// match; callers index Children directly or use Unnest/SelectNested to see
// through it.
func group(pos Position, text string, children ...*Match) *Match {
	return &Match{Pos: pos, Text: text, Children: children}
}

// Lit matches a literal string exactly.
func Lit(lit string) Expr {
	return exprFunc(func(s *scanner) (*Match, bool) {
		if strings.HasPrefix(s.input[s.pos:], lit) {
			pos := s.position()
			s.advanceTo(s.pos + len(lit))
			return group(pos, lit), true
		}
		return nil, false
	})
}

// LitFold matches a literal string case-insensitively.
func LitFold(lit string) Expr {
	return exprFunc(func(s *scanner) (*Match, bool) {
		if len(s.input)-s.pos < len(lit) {
			return nil, false
		}
		if strings.EqualFold(s.input[s.pos:s.pos+len(lit)], lit) {
			pos := s.position()
			matched := s.input[s.pos : s.pos+len(lit)]
			s.advanceTo(s.pos + len(lit))
			return group(pos, matched), true
		}
		return nil, false
	})
}

// Rx matches a compiled regular expression anchored at the current
// position. pattern should not include a leading anchor; Rx adds one.
func Rx(pattern string) Expr {
	re := regexp.MustCompile(`\A(?:` + pattern + `)`)
	return exprFunc(func(s *scanner) (*Match, bool) {
		loc := re.FindStringIndex(s.input[s.pos:])
		if loc == nil || loc[0] != 0 {
			return nil, false
		}
		pos := s.position()
		matched := s.input[s.pos : s.pos+loc[1]]
		s.advanceTo(s.pos + loc[1])
		return group(pos, matched), true
	})
}

// Seq matches each expression in order; fails (restoring position) unless
// all succeed.
func Seq(exprs ...Expr) Expr {
	return exprFunc(func(s *scanner) (*Match, bool) {
		start := s.pos
		startPos := s.position()
		var children []*Match
		for _, e := range exprs {
			m, ok := e.parse(s)
			if !ok {
				s.pos = start
				s.line, s.col = startPos.Line, startPos.Column
				return nil, false
			}
			children = append(children, m)
		}
		return group(startPos, s.input[start:s.pos], children...), true
	})
}

// Alt is ordered choice: the first expression that succeeds wins.
func Alt(exprs ...Expr) Expr {
	return exprFunc(func(s *scanner) (*Match, bool) {
		for _, e := range exprs {
			if m, ok := e.parse(s); ok {
				return m, true
			}
		}
		return nil, false
	})
}

// Star matches e zero or more times, greedily.
func Star(e Expr) Expr {
	return exprFunc(func(s *scanner) (*Match, bool) {
		startPos := s.position()
		start := s.pos
		var children []*Match
		for {
			before := s.pos
			m, ok := e.parse(s)
			if !ok || s.pos == before {
				break
			}
			children = append(children, m)
		}
		return group(startPos, s.input[start:s.pos], children...), true
	})
}

// Plus matches e one or more times.
func Plus(e Expr) Expr {
	return exprFunc(func(s *scanner) (*Match, bool) {
		first, ok := e.parse(s)
		if !ok {
			return nil, false
		}
		rest, _ := Star(e).parse(s)
		children := append([]*Match{first}, rest.Children...)
		return group(first.Pos, first.Text+rest.Text, children...), true
	})
}

// Opt matches e zero or one time; always succeeds.
func Opt(e Expr) Expr {
	return exprFunc(func(s *scanner) (*Match, bool) {
		pos := s.position()
		if m, ok := e.parse(s); ok {
			return m, true
		}
		return group(pos, ""), true
	})
}

// Not is a negative lookahead: succeeds (consuming nothing) iff e fails.
func Not(e Expr) Expr {
	return exprFunc(func(s *scanner) (*Match, bool) {
		start, startLine, startCol := s.pos, s.line, s.col
		_, ok := e.parse(s)
		s.pos, s.line, s.col = start, startLine, startCol
		if ok {
			return nil, false
		}
		return group(s.position(), ""), true
	})
}

// Node wraps e, tagging a successful match with rule so the render loop
// can later dispatch on it by identity.
func Node(rule Rule, e Expr) Expr {
	return exprFunc(func(s *scanner) (*Match, bool) {
		start := s.pos
		startPos := s.position()
		m, ok := e.parse(s)
		if !ok {
			return nil, false
		}
		return &Match{Rule: rule, Pos: startPos, Text: s.input[start:s.pos], Children: m.Children}, true
	})
}

// Ref allows mutually-recursive grammars: declare the Ref up front, parse
// expressions against it, and call Set once every production is defined.
type Ref struct {
	body Expr
}

func (r *Ref) Set(e Expr) { r.body = e }

func (r *Ref) parse(s *scanner) (*Match, bool) {
	if r.body == nil {
		return nil, false
	}
	return r.body.parse(s)
}

// Until consumes input up to (not including) the first occurrence of any
// marker, or to EOF if none occurs. This is the skipper primitive: "outside
// a template construct, skip to the next marker."
func Until(markers ...string) Expr {
	return exprFunc(func(s *scanner) (*Match, bool) {
		pos := s.position()
		start := s.pos
		rest := s.input[s.pos:]
		best := len(rest)
		for _, m := range markers {
			if i := strings.Index(rest, m); i >= 0 && i < best {
				best = i
			}
		}
		if best == 0 {
			return nil, false
		}
		s.advanceTo(start + best)
		return group(pos, s.input[start:s.pos]), true
	})
}

// Any matches a single rune.
func Any() Expr {
	return exprFunc(func(s *scanner) (*Match, bool) {
		if s.eof() {
			return nil, false
		}
		pos := s.position()
		start := s.pos
		_, size := utf8.DecodeRuneInString(s.input[s.pos:])
		s.advanceTo(s.pos + size)
		return group(pos, s.input[start:s.pos]), true
	})
}

// EOF succeeds only at the end of input.
func EOF() Expr {
	return exprFunc(func(s *scanner) (*Match, bool) {
		if s.eof() {
			return group(s.position(), ""), true
		}
		return nil, false
	})
}
