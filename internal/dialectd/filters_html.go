package dialectd

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
	"github.com/leapstack-labs/gotmpl/pkg/value"
)

// filterStriptags removes all HTML tags, keeping only text content, using a
// real tokenizer (golang.org/x/net/html) rather than a tag-shaped regex so
// that things like "<not really a tag" degrade the way a browser's own
// tokenizer would instead of leaking partial markup.
func filterStriptags(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	z := html.NewTokenizer(strings.NewReader(str(in)))
	var b strings.Builder
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.Write(z.Text())
		}
	}
	return value.NewString(b.String()), nil
}

// filterRemovetags removes only the named tags (both open and close forms),
// passing through everything else, including unrelated markup and text.
func filterRemovetags(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	names := map[string]bool{}
	for _, n := range strings.Fields(argStr(arg, hasArg, "")) {
		names[strings.ToLower(n)] = true
	}
	z := html.NewTokenizer(strings.NewReader(str(in)))
	var b strings.Builder
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		tok := z.Token()
		if (tt == html.StartTagToken || tt == html.EndTagToken || tt == html.SelfClosingTagToken) && names[strings.ToLower(tok.Data)] {
			continue
		}
		b.WriteString(tok.String())
	}
	return value.NewString(b.String()), nil
}

// htmlVoidElements never need a closing tag on the open-tag stack that
// truncatechars_html/truncatewords_html maintain across truncation.
var htmlVoidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Param: true, atom.Source: true,
	atom.Track: true, atom.Wbr: true,
}

// truncateHTML walks the tokenizer emitting tokens verbatim while counting
// units (runes for truncatechars_html, words for truncatewords_html) via
// count, stopping once budget is exhausted and emitting closing tags for
// anything still open on the stack when truncation lands mid-structure.
func truncateHTML(src string, budget int, count func(text string) int, truncate func(text string, budget int) string, ellipsis string) string {
	z := html.NewTokenizer(strings.NewReader(src))
	var out strings.Builder
	var stack []atom.Atom
	remaining := budget
	truncated := false
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		tok := z.Token()
		switch tt {
		case html.TextToken:
			if remaining <= 0 {
				truncated = true
				continue
			}
			text := tok.Data
			n := count(text)
			if n <= remaining {
				out.WriteString(html.EscapeString(text))
				remaining -= n
				continue
			}
			out.WriteString(truncate(text, remaining))
			remaining = 0
			truncated = true
		case html.StartTagToken:
			if remaining <= 0 {
				truncated = true
				continue
			}
			out.WriteString(tok.String())
			a := tok.DataAtom
			if !htmlVoidElements[a] {
				stack = append(stack, a)
			}
		case html.EndTagToken:
			if remaining <= 0 {
				continue
			}
			out.WriteString(tok.String())
			if len(stack) > 0 && stack[len(stack)-1] == tok.DataAtom {
				stack = stack[:len(stack)-1]
			}
		case html.SelfClosingTagToken:
			if remaining <= 0 {
				truncated = true
				continue
			}
			out.WriteString(tok.String())
		default:
			if remaining > 0 {
				out.WriteString(tok.String())
			}
		}
	}
	if truncated {
		out.WriteString(ellipsis)
	}
	for i := len(stack) - 1; i >= 0; i-- {
		fmt.Fprintf(&out, "</%s>", stack[i].String())
	}
	return out.String()
}

func truncateRuneUnits(text string, budget int) string {
	rs := []rune(text)
	if budget >= len(rs) {
		return html.EscapeString(text)
	}
	return html.EscapeString(string(rs[:budget]))
}

func truncateWordUnits(text string, budget int) string {
	words := strings.Fields(text)
	if budget >= len(words) {
		return html.EscapeString(text)
	}
	return html.EscapeString(strings.Join(words[:budget], " "))
}

func countRunes(s string) int { return len([]rune(s)) }
func countWords(s string) int { return len(strings.Fields(s)) }

func filterTruncatechars(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	limit := int(argNum(arg, hasArg, 1<<31-1))
	rs := []rune(str(in))
	if len(rs) <= limit {
		return value.NewString(string(rs)), nil
	}
	if limit <= 1 {
		return value.NewString("…"), nil
	}
	return value.NewString(string(rs[:limit-1]) + "…"), nil
}

func filterTruncatewords(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	limit := int(argNum(arg, hasArg, 1<<31-1))
	words := strings.Fields(str(in))
	if len(words) <= limit {
		return value.NewString(strings.Join(words, " ")), nil
	}
	return value.NewString(strings.Join(words[:limit], " ") + " …"), nil
}

func filterTruncatecharsHTML(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	limit := int(argNum(arg, hasArg, 1<<31-1))
	return value.NewString(truncateHTML(str(in), limit, countRunes, truncateRuneUnits, "…")).MarkSafe(), nil
}

func filterTruncatewordsHTML(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	limit := int(argNum(arg, hasArg, 1<<31-1))
	return value.NewString(truncateHTML(str(in), limit, countWords, truncateWordUnits, " …")).MarkSafe(), nil
}

// urlRx recognizes bare http(s)/www/email-shaped substrings for urlize; it
// deliberately stays conservative, wrapping URL-like substrings rather
// than attempting full RFC 3986 validation.
var urlRx = regexp.MustCompile(`(?i)(https?://[^\s<>"']+|www\.[^\s<>"']+|[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})`)

// urlizeWith matches URLs against the raw, unescaped input (so the regex's
// exclusion of "<>\"'" actually sees those characters rather than their
// already-escaped entity forms) and escapes only the plain-text segments
// around each match; the matched URL and its (possibly truncated) display
// text are escaped individually when building the anchor.
func urlizeWith(raw string, truncateTo int) string {
	var out strings.Builder
	last := 0
	for _, loc := range urlRx.FindAllStringIndex(raw, -1) {
		out.WriteString(value.EscapeString(raw[last:loc[0]]))
		match := raw[loc[0]:loc[1]]
		display := match
		if truncateTo > 0 && len([]rune(display)) > truncateTo {
			rs := []rune(display)
			display = string(rs[:truncateTo]) + "…"
		}
		display = value.EscapeString(display)
		if strings.Contains(match, "@") && !strings.HasPrefix(match, "http") {
			fmt.Fprintf(&out, `<a href="mailto:%s">%s</a>`, value.EscapeString(match), display)
		} else {
			href := match
			if !strings.HasPrefix(strings.ToLower(href), "http://") && !strings.HasPrefix(strings.ToLower(href), "https://") {
				href = "http://" + href
			}
			fmt.Fprintf(&out, `<a href="%s" rel="nofollow">%s</a>`, value.EscapeString(href), display)
		}
		last = loc[1]
	}
	out.WriteString(value.EscapeString(raw[last:]))
	return out.String()
}

func filterUrlize(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	return value.NewString(urlizeWith(str(in), 0)).MarkSafe(), nil
}

func filterUrlizetrunc(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	limit := int(argNum(arg, hasArg, 25))
	return value.NewString(urlizeWith(str(in), limit)).MarkSafe(), nil
}
