package dialects

import (
	"strings"
	"time"

	strftime "github.com/ncruces/go-strftime"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
)

// lookupVariable resolves name against ctx, falling back to the magic
// DATE_LOCAL/DATE_GMT variables (formatted with the render's time format:
// opts.TimeFormat unless a config timefmt directive changed it) and finally
// opts.EchoMessage when nothing matches. DOCUMENT_NAME, DOCUMENT_URI and
// LAST_MODIFIED are reserved names a caller may seed into the context
// directly; this package does not synthesize them since it has no
// filesystem-path notion of "the current document" (no host-language
// bindings).
func lookupVariable(name string, ctx *tmplopts.Context, opts *tmplopts.Options, rs *renderState) string {
	if v, ok := ctx.Get(name); ok {
		return v.String()
	}
	switch name {
	case "DATE_LOCAL":
		return strftime.Format(rs.timeFmt, time.Now())
	case "DATE_GMT":
		return strftime.Format(rs.timeFmt, time.Now().UTC())
	}
	return opts.EchoMessage
}

// interpolate expands `${name}`/`$name` references in s and unescapes a
// literal `\$`, Apache SSI's attribute-interpolation rule.
func interpolate(s string, ctx *tmplopts.Context, opts *tmplopts.Options, rs *renderState) string {
	var out strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '\\' && i+1 < len(s) && s[i+1] == '$' {
			out.WriteByte('$')
			i += 2
			continue
		}
		if c == '$' && i+1 < len(s) {
			if s[i+1] == '{' {
				end := strings.IndexByte(s[i+2:], '}')
				if end >= 0 {
					name := s[i+2 : i+2+end]
					out.WriteString(lookupVariable(name, ctx, opts, rs))
					i = i + 2 + end + 1
					continue
				}
			}
			if isNameStart(s[i+1]) {
				j := i + 1
				for j < len(s) && isNameChar(s[j]) {
					j++
				}
				out.WriteString(lookupVariable(s[i+1:j], ctx, opts, rs))
				i = j
				continue
			}
		}
		out.WriteByte(c)
		i++
	}
	return out.String()
}

func isNameStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isNameChar(b byte) bool {
	return isNameStart(b) || (b >= '0' && b <= '9')
}
