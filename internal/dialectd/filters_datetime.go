package dialectd

import (
	"fmt"
	"strings"
	"time"

	strftime "github.com/ncruces/go-strftime"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
	"github.com/leapstack-labs/gotmpl/pkg/value"
)

// djangoDateLetters translates the Django date-format mini-language (a
// single letter per field) into a %-directive format consumable by
// ncruces/go-strftime. formatDjangoDate resolves the letters with no
// strftime equivalent (S, P, a) and backslash escapes by hand before the
// strftime pass; everything else not in the table passes through literally.
var djangoDateLetters = map[byte]string{
	'd': "%d", 'j': "%e", 'D': "%a", 'l': "%A", 'N': "%b", 'w': "%w", 'W': "%V",
	'm': "%m", 'n': "%-m", 'M': "%b", 'b': "%b", 'F': "%B",
	'Y': "%Y", 'y': "%y",
	'A': "%p",
	'g': "%-I", 'G': "%-H", 'h': "%I", 'H': "%H",
	'i': "%M", 's': "%S",
	'e': "%Z", 'T': "%Z", 'O': "%z",
}

func ordinalSuffix(day int) string {
	if day%100 >= 11 && day%100 <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// formatDjangoDate builds a single strftime format string in spec order
// (literal runs and %-directives interleaved exactly as they appear in
// spec) and resolves it in one strftime.Format call, so a literal
// separator between two directives (the common case -- "Y-m-d", "N j, Y")
// lands where it's supposed to instead of every directive's output being
// concatenated before every literal's.
func formatDjangoDate(t time.Time, spec string) string {
	var fmtStr strings.Builder
	i := 0
	for i < len(spec) {
		c := spec[i]
		switch c {
		case '\\':
			if i+1 < len(spec) {
				writeLiteralByte(&fmtStr, spec[i+1])
				i += 2
				continue
			}
		case 'S':
			writeLiteralString(&fmtStr, ordinalSuffix(t.Day()))
			i++
			continue
		case 'P':
			writeLiteralString(&fmtStr, formatTimeP(t))
			i++
			continue
		case 'a':
			writeLiteralString(&fmtStr, strings.ToLower(t.Format("PM"))+".m.")
			i++
			continue
		}
		if dir, ok := djangoDateLetters[c]; ok {
			fmtStr.WriteString(dir)
			i++
			continue
		}
		writeLiteralByte(&fmtStr, c)
		i++
	}
	return strftime.Format(fmtStr.String(), t)
}

// writeLiteralByte appends c to b as literal text for a strftime format
// string, doubling a literal "%" so strftime doesn't mistake it for the
// start of a directive.
func writeLiteralByte(b *strings.Builder, c byte) {
	if c == '%' {
		b.WriteString("%%")
		return
	}
	b.WriteByte(c)
}

func writeLiteralString(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		writeLiteralByte(b, s[i])
	}
}

// formatTimeP implements Django's "P": 12-hour time with minutes dropped
// when zero, lowercase a.m./p.m. suffix, "midnight"/"noon" special-cased.
func formatTimeP(t time.Time) string {
	h, m := t.Hour(), t.Minute()
	if h == 0 && m == 0 {
		return "midnight"
	}
	if h == 12 && m == 0 {
		return "noon"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	suffix := "a.m."
	if h >= 12 {
		suffix = "p.m."
	}
	if m == 0 {
		return fmt.Sprintf("%d %s", h12, suffix)
	}
	return fmt.Sprintf("%d:%02d %s", h12, m, suffix)
}

func filterDate(in, arg value.Value, hasArg bool, opts *tmplopts.Options) (value.Value, error) {
	t, err := in.ToDatetime()
	if err != nil {
		return value.NewString(""), nil
	}
	spec := argStr(arg, hasArg, "")
	if spec == "" {
		spec = opts.Formats["DATE_FORMAT"]
	}
	return value.NewString(formatDjangoDate(t, spec)), nil
}

func filterTime(in, arg value.Value, hasArg bool, opts *tmplopts.Options) (value.Value, error) {
	t, err := in.ToDatetime()
	if err != nil {
		return value.NewString(""), nil
	}
	spec := argStr(arg, hasArg, "")
	if spec == "" {
		spec = opts.Formats["TIME_FORMAT"]
	}
	return value.NewString(formatDjangoDate(t, spec)), nil
}

// timeChunks mirrors Django's timesince: the largest unit with a nonzero
// count is reported, plus the next-largest if also nonzero.
var timeChunks = []struct {
	secs int64
	name string
}{
	{31536000, "year"}, {2592000, "month"}, {604800, "week"},
	{86400, "day"}, {3600, "hour"}, {60, "minute"},
}

func humanizeDuration(d time.Duration) string {
	secs := int64(d.Seconds())
	if secs < 60 {
		return "0 minutes"
	}
	var parts []string
	for i, c := range timeChunks {
		if secs >= c.secs {
			n := secs / c.secs
			parts = append(parts, pluralizeUnit(n, c.name))
			if i+1 < len(timeChunks) {
				next := timeChunks[i+1]
				if m := (secs - n*c.secs) / next.secs; m > 0 {
					parts = append(parts, pluralizeUnit(m, next.name))
				}
			}
			break
		}
	}
	if len(parts) == 0 {
		return "0 minutes"
	}
	return strings.Join(parts, ", ")
}

func pluralizeUnit(n int64, name string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", name)
	}
	return fmt.Sprintf("%d %ss", n, name)
}

func filterTimesince(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	t, err := in.ToDatetime()
	if err != nil {
		return value.NewString(""), nil
	}
	ref := time.Now()
	if hasArg {
		if rt, err := arg.ToDatetime(); err == nil {
			ref = rt
		}
	}
	d := ref.Sub(t)
	if d < 0 {
		return value.NewString("0 minutes"), nil
	}
	return value.NewString(humanizeDuration(d)), nil
}

func filterTimeuntil(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	t, err := in.ToDatetime()
	if err != nil {
		return value.NewString(""), nil
	}
	ref := time.Now()
	if hasArg {
		if rt, err := arg.ToDatetime(); err == nil {
			ref = rt
		}
	}
	d := t.Sub(ref)
	if d < 0 {
		return value.NewString("0 minutes"), nil
	}
	return value.NewString(humanizeDuration(d)), nil
}
