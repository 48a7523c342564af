package dialectt

import "strings"

// Attr is one `NAME=value` pair inside a TMPL_ tag. An Attr with an empty
// Name is a bareword token (e.g. the `foo` in `<TMPL_VAR foo>`), taken by
// tagName as the implicit NAME= value when its shortcutSyntax argument is
// true. The parser always passes true, so a bareword is accepted whatever
// Options.ShortcutSyntax is set to.
type Attr struct {
	Name  string
	Value string
}

func attrValue(attrs []Attr, name string) (string, bool) {
	for _, a := range attrs {
		if strings.EqualFold(a.Name, name) {
			return a.Value, true
		}
	}
	return "", false
}

// tagName returns the attribute named "name", or -- when shortcut_syntax is
// enabled and no such attribute exists -- the first bareword attribute.
func tagName(attrs []Attr, shortcutSyntax bool) (string, bool) {
	if v, ok := attrValue(attrs, "name"); ok {
		return v, true
	}
	if shortcutSyntax {
		for _, a := range attrs {
			if a.Name == "" {
				return a.Value, true
			}
		}
	}
	return "", false
}

type tokKind int

const (
	tokText tokKind = iota
	tokOpen
	tokClose
)

type rawToken struct {
	kind  tokKind
	text  string // tokText only
	name  string // upper-cased tag name without TMPL_ prefix or slash, e.g. "VAR"
	attrs []Attr
	pos   tPos
}

type lexer struct {
	src  string
	i    int
	line int
	col  int
	file string
}

func newLexer(src, file string) *lexer {
	return &lexer{src: src, line: 1, col: 1, file: file}
}

func (lx *lexer) position() tPos {
	return tPos{File: lx.file, Line: lx.line, Col: lx.col}
}

func (lx *lexer) advance(n int) {
	for k := 0; k < n && lx.i < len(lx.src); k++ {
		if lx.src[lx.i] == '\n' {
			lx.line++
			lx.col = 1
		} else {
			lx.col++
		}
		lx.i++
	}
}

// tokenize scans the full source into a flat list of text/open/close tokens.
func tokenize(src, file string) ([]rawToken, error) {
	lx := newLexer(src, file)
	var toks []rawToken
	var textStart int
	var textPos tPos
	flushText := func(end int) {
		if end > textStart {
			toks = append(toks, rawToken{kind: tokText, text: lx.src[textStart:end], pos: textPos})
		}
	}
	textPos = lx.position()
	for lx.i < len(lx.src) {
		if lx.src[lx.i] != '<' {
			lx.advance(1)
			continue
		}
		rest := lx.src[lx.i:]
		var interior string
		var delimLen int
		var isComment bool
		switch {
		case strings.HasPrefix(rest, "<!--"):
			end := strings.Index(rest, "-->")
			if end < 0 {
				lx.advance(1)
				continue
			}
			interior = rest[4:end]
			if !looksLikeTmpl(interior) {
				lx.advance(1)
				continue
			}
			delimLen = end + 3
			isComment = true
		case strings.HasPrefix(rest, "<"):
			end := strings.IndexByte(rest, '>')
			if end < 0 {
				lx.advance(1)
				continue
			}
			interior = rest[1:end]
			if !looksLikeTmpl(interior) {
				lx.advance(1)
				continue
			}
			delimLen = end + 1
		}
		if delimLen == 0 {
			lx.advance(1)
			continue
		}
		_ = isComment
		flushText(lx.i)
		pos := lx.position()
		closing := strings.HasPrefix(strings.TrimSpace(interior), "/")
		body := strings.TrimSpace(interior)
		body = strings.TrimPrefix(body, "/")
		name, attrs := parseTagBody(body)
		if closing {
			toks = append(toks, rawToken{kind: tokClose, name: name, pos: pos})
		} else {
			toks = append(toks, rawToken{kind: tokOpen, name: name, attrs: attrs, pos: pos})
		}
		lx.advance(delimLen)
		textStart = lx.i
		textPos = lx.position()
	}
	flushText(len(lx.src))
	return toks, nil
}

// looksLikeTmpl reports whether interior begins (ignoring leading space and
// an optional "/") with the case-insensitive "TMPL_" prefix.
func looksLikeTmpl(interior string) bool {
	s := strings.TrimSpace(interior)
	s = strings.TrimPrefix(s, "/")
	return len(s) >= 5 && strings.EqualFold(s[:5], "TMPL_")
}

// parseTagBody splits a tag interior ("TMPL_VAR NAME=foo DEFAULT=\"?\"") into
// the upper-cased directive name ("VAR") and its attributes.
func parseTagBody(body string) (string, []Attr) {
	i := 0
	for i < len(body) && !isSpace(body[i]) {
		i++
	}
	full := body[:i]
	name := strings.ToUpper(strings.TrimPrefix(strings.ToUpper(full), "TMPL_"))
	rest := body[i:]
	return name, parseAttrs(rest)
}

func parseAttrs(s string) []Attr {
	var attrs []Attr
	i := 0
	n := len(s)
	for i < n {
		for i < n && isSpace(s[i]) {
			i++
		}
		if i >= n {
			break
		}
		start := i
		for i < n && !isSpace(s[i]) && s[i] != '=' {
			i++
		}
		token := s[start:i]
		for i < n && isSpace(s[i]) {
			i++
		}
		if i < n && s[i] == '=' {
			i++
			for i < n && isSpace(s[i]) {
				i++
			}
			var val string
			if i < n && (s[i] == '"' || s[i] == '\'') {
				q := s[i]
				i++
				vs := i
				for i < n && s[i] != q {
					i++
				}
				val = s[vs:i]
				if i < n {
					i++
				}
			} else {
				vs := i
				for i < n && !isSpace(s[i]) {
					i++
				}
				val = s[vs:i]
			}
			attrs = append(attrs, Attr{Name: strings.ToLower(token), Value: val})
		} else if token != "" {
			attrs = append(attrs, Attr{Name: "", Value: token})
		}
	}
	return attrs
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
