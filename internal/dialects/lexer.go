package dialects

import (
	"strings"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
)

const (
	directiveStart = "<!--#"
	directiveEnd   = "-->"
)

type rawKind int

const (
	rawText rawKind = iota
	rawDirective
	rawEOF
)

type rawToken struct {
	kind rawKind
	text string // text content, or directive inner content (between <!--# and -->)
	pos  sPos
}

type lexer struct {
	input string
	file  string
	pos   int
	line  int
	col   int
}

func newLexer(input, file string) *lexer {
	return &lexer{input: input, file: file, line: 1, col: 1}
}

func (l *lexer) position() sPos { return sPos{File: l.file, Line: l.line, Col: l.col} }

func (l *lexer) eof() bool { return l.pos >= len(l.input) }

func (l *lexer) matches(s string) bool { return strings.HasPrefix(l.input[l.pos:], s) }

func (l *lexer) advance() {
	if l.eof() {
		return
	}
	if l.input[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

func (l *lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

func (l *lexer) next() (rawToken, error) {
	if l.eof() {
		return rawToken{kind: rawEOF, pos: l.position()}, nil
	}
	if l.matches(directiveStart) {
		startPos := l.position()
		l.advanceN(len(directiveStart))
		contentStart := l.pos
		for !l.eof() && !l.matches(directiveEnd) {
			l.advance()
		}
		if l.eof() {
			return rawToken{}, newLexError(startPos, "unclosed SSI directive: missing -->")
		}
		content := l.input[contentStart:l.pos]
		l.advanceN(len(directiveEnd))
		return rawToken{kind: rawDirective, text: content, pos: startPos}, nil
	}
	startPos := l.position()
	start := l.pos
	for !l.eof() && !l.matches(directiveStart) {
		l.advance()
	}
	return rawToken{kind: rawText, text: l.input[start:l.pos], pos: startPos}, nil
}

func newLexError(p sPos, msg string) error {
	return newParseErrorAt(p, msg)
}

func toOptsPosition(p sPos) tmplopts.Position {
	return tmplopts.Position{File: p.File, Line: p.Line, Column: p.Col}
}

// parseDirectiveContent splits a directive's raw inner text ("if expr=\"...\"
// ") into its name and attribute list, honoring double/single/backtick
// quoting so a quoted value may itself contain whitespace.
func parseDirectiveContent(content string) (name string, attrs []Attr) {
	i := 0
	n := len(content)
	skipSpace := func() {
		for i < n && isSpace(content[i]) {
			i++
		}
	}
	skipSpace()
	start := i
	for i < n && !isSpace(content[i]) {
		i++
	}
	name = content[start:i]
	for {
		skipSpace()
		if i >= n {
			break
		}
		keyStart := i
		for i < n && content[i] != '=' && !isSpace(content[i]) {
			i++
		}
		key := content[keyStart:i]
		if key == "" {
			i++
			continue
		}
		skipSpace()
		if i >= n || content[i] != '=' {
			attrs = append(attrs, Attr{Name: key, Value: ""})
			continue
		}
		i++ // consume '='
		skipSpace()
		var val string
		if i < n && (content[i] == '"' || content[i] == '\'' || content[i] == '`') {
			q := content[i]
			i++
			valStart := i
			for i < n && content[i] != q {
				if content[i] == '\\' && i+1 < n {
					i++
				}
				i++
			}
			val = content[valStart:i]
			if i < n {
				i++ // consume closing quote
			}
		} else {
			valStart := i
			for i < n && !isSpace(content[i]) {
				i++
			}
			val = content[valStart:i]
		}
		attrs = append(attrs, Attr{Name: key, Value: val})
	}
	return name, attrs
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }
