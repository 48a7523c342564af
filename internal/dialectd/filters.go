package dialectd

import (
	"fmt"
	"math"
	"math/rand"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
	"github.com/leapstack-labs/gotmpl/pkg/value"
)

// builtinFilters is the ≈55-filter registry. It is built once at package
// init and never mutated afterward; opts.LoadedFilters
// (populated by {% load %}) is consulted first by lookupFilter and may
// shadow any of these by name.
var builtinFilters map[string]FilterFunc

func init() {
	builtinFilters = map[string]FilterFunc{
		"add":                 filterAdd,
		"addslashes":          filterAddslashes,
		"capfirst":            filterCapfirst,
		"center":              filterCenter,
		"cut":                 filterCut,
		"date":                filterDate,
		"default":             filterDefault,
		"default_if_none":     filterDefaultIfNone,
		"dictsort":            filterDictsort,
		"dictsortreversed":    filterDictsortreversed,
		"divisibleby":         filterDivisibleby,
		"escape":              filterEscape,
		"escapejs":            filterEscapejs,
		"filesizeformat":      filterFilesizeformat,
		"first":               filterFirst,
		"fix_ampersands":      filterFixAmpersands,
		"floatformat":         filterFloatformat,
		"force_escape":        filterForceEscape,
		"get_digit":           filterGetDigit,
		"iriencode":           filterIriencode,
		"join":                filterJoin,
		"last":                filterLast,
		"length":              filterLength,
		"length_is":           filterLengthIs,
		"linebreaks":          filterLinebreaks,
		"linebreaksbr":        filterLinebreaksbr,
		"linenumbers":         filterLinenumbers,
		"ljust":               filterLjust,
		"lower":               filterLower,
		"make_list":           filterMakeList,
		"phone2numeric":       filterPhone2numeric,
		"pluralize":           filterPluralize,
		"pprint":              filterPprint,
		"random":              filterRandom,
		"removetags":          filterRemovetags,
		"rjust":               filterRjust,
		"safe":                filterSafe,
		"safeseq":             filterSafeseq,
		"slice":               filterSlice,
		"slugify":             filterSlugify,
		"stringformat":        filterStringformat,
		"striptags":           filterStriptags,
		"time":                filterTime,
		"timesince":           filterTimesince,
		"timeuntil":           filterTimeuntil,
		"title":               filterTitle,
		"truncatechars":       filterTruncatechars,
		"truncatechars_html":  filterTruncatecharsHTML,
		"truncatewords":       filterTruncatewords,
		"truncatewords_html":  filterTruncatewordsHTML,
		"unordered_list":      filterUnorderedList,
		"upper":               filterUpper,
		"urlencode":           filterUrlencode,
		"urlize":              filterUrlize,
		"urlizetrunc":         filterUrlizetrunc,
		"wordcount":           filterWordcount,
		"wordwrap":            filterWordwrap,
		"yesno":               filterYesno,
	}
}

func str(v value.Value) string { s, _ := v.ToString(); return s }

func argStr(arg value.Value, hasArg bool, def string) string {
	if !hasArg {
		return def
	}
	return str(arg)
}

func argNum(arg value.Value, hasArg bool, def float64) float64 {
	if !hasArg {
		return def
	}
	n, err := arg.ToNumber()
	if err != nil {
		return def
	}
	return n
}

func filterAdd(in, arg value.Value, hasArg bool, opts *tmplopts.Options) (value.Value, error) {
	if !hasArg {
		return in, nil
	}
	if n1, err1 := in.ToNumber(); err1 == nil {
		if n2, err2 := arg.ToNumber(); err2 == nil {
			return value.NewNumber(n1 + n2), nil
		}
	}
	return value.NewString(str(in) + str(arg)), nil
}

func filterAddslashes(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	s := str(in)
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return value.NewString(s), nil
}

func filterCapfirst(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	s := str(in)
	if s == "" {
		return value.NewString(s), nil
	}
	r := []rune(s)
	return value.NewString(strings.ToUpper(string(r[0])) + string(r[1:])), nil
}

func filterCenter(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	s := str(in)
	width := int(argNum(arg, hasArg, float64(len([]rune(s)))))
	n := len([]rune(s))
	if width <= n {
		return value.NewString(s), nil
	}
	total := width - n
	left := total / 2
	right := total - left
	return value.NewString(strings.Repeat(" ", left) + s + strings.Repeat(" ", right)), nil
}

func filterCut(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	if !hasArg {
		return in, nil
	}
	return value.NewString(strings.ReplaceAll(str(in), str(arg), "")), nil
}

func filterDefault(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	if in.Test() {
		return in, nil
	}
	if hasArg {
		return arg, nil
	}
	return in, nil
}

func filterDefaultIfNone(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	if in.Kind() == value.KindNone && hasArg {
		return arg, nil
	}
	return in, nil
}

func filterDictsort(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	path := argStr(arg, hasArg, "")
	elems, err := in.SortBy(path, false)
	if err != nil {
		return value.None, err
	}
	return value.NewSequence(elems), nil
}

func filterDictsortreversed(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	path := argStr(arg, hasArg, "")
	elems, err := in.SortBy(path, true)
	if err != nil {
		return value.None, err
	}
	return value.NewSequence(elems), nil
}

func filterDivisibleby(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	n, err := in.ToNumber()
	if err != nil {
		return value.NewBool(false), nil
	}
	d := argNum(arg, hasArg, 1)
	if d == 0 {
		return value.NewBool(false), nil
	}
	return value.NewBool(math.Mod(n, d) == 0), nil
}

func filterEscape(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	return in.Escape(), nil
}

func filterForceEscape(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	return value.NewString(value.EscapeString(str(in))).MarkSafe(), nil
}

// jsEscaper mirrors Django's escapejs filter: every character that could
// end a surrounding <script> tag, break out of a JS/JSON string literal, or
// be read as a line terminator is mapped to its \uXXXX form, plus every
// ASCII control character below 0x20.
var jsEscaper = buildJsEscaper()

func buildJsEscaper() *strings.Replacer {
	fixed := map[rune]rune{
		'\\': 0x005C,
		'\'':  0x0027,
		'"':   0x0022,
		'>':   0x003E,
		'<':   0x003C,
		'&':   0x0026,
		'=':   0x003D,
		'-':   0x002D,
		';':   0x003B,
		0x2028: 0x2028,
		0x2029: 0x2029,
	}
	for c := rune(0); c < 0x20; c++ {
		fixed[c] = c
	}
	pairs := make([]string, 0, len(fixed)*2)
	for c, code := range fixed {
		pairs = append(pairs, string(c), fmt.Sprintf(`\u%04X`, code))
	}
	return strings.NewReplacer(pairs...)
}

func filterEscapejs(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	return value.NewString(jsEscaper.Replace(str(in))).MarkSafe(), nil
}

func filterFilesizeformat(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	n, err := in.ToNumber()
	if err != nil {
		return value.NewString(""), nil
	}
	units := []string{"bytes", "KB", "MB", "GB", "TB", "PB"}
	f := math.Abs(n)
	if f < 1024 {
		return value.NewString(fmt.Sprintf("%d bytes", int64(n))), nil
	}
	i := 0
	for f >= 1024 && i < len(units)-1 {
		f /= 1024
		i++
	}
	return value.NewString(fmt.Sprintf("%.1f %s", f, units[i])), nil
}

func filterFirst(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	v, ok := in.Index(value.NewNumber(0))
	if !ok {
		return value.NewString(""), nil
	}
	return v, nil
}

func filterLast(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	v, ok := in.Index(value.NewNumber(-1))
	if !ok {
		return value.NewString(""), nil
	}
	return v, nil
}

// entityRefRx matches any already-valid HTML entity reference (named, like
// &amp;/&lt;/&quot;, or numeric, like &#39;) -- fix_ampersands leaves these
// alone and only escapes bare "&" elsewhere.
var entityRefRx = regexp.MustCompile(`&(?:\w+|#\d+);`)

func filterFixAmpersands(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	s := str(in)
	var b strings.Builder
	last := 0
	for _, loc := range entityRefRx.FindAllStringIndex(s, -1) {
		b.WriteString(strings.ReplaceAll(s[last:loc[0]], "&", "&amp;"))
		b.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(strings.ReplaceAll(s[last:], "&", "&amp;"))
	return value.NewString(b.String()), nil
}

func filterFloatformat(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	n, err := in.ToNumber()
	if err != nil {
		return value.NewString(""), nil
	}
	prec := argNum(arg, hasArg, -1)
	if !hasArg {
		if n == math.Trunc(n) {
			return value.NewString(strconv.FormatFloat(n, 'f', 0, 64)), nil
		}
		return value.NewString(strconv.FormatFloat(n, 'f', 1, 64)), nil
	}
	if prec < 0 {
		if n == math.Trunc(n) {
			return value.NewString(strconv.FormatFloat(n, 'f', 0, 64)), nil
		}
		s := strconv.FormatFloat(n, 'f', int(-prec), 64)
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
		return value.NewString(s), nil
	}
	return value.NewString(strconv.FormatFloat(n, 'f', int(prec), 64)), nil
}

func filterGetDigit(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	n, err := in.ToNumber()
	if err != nil || !hasArg {
		return in, nil
	}
	digit := int(argNum(arg, hasArg, 0))
	s := strconv.FormatInt(int64(math.Abs(n)), 10)
	if digit <= 0 || digit > len(s) {
		return in, nil
	}
	d := s[len(s)-digit]
	return value.NewNumber(float64(d - '0')), nil
}

func filterIriencode(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	s := str(in)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r < 0x80 && (strings.ContainsRune("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789", r) ||
			strings.ContainsRune("/#%[]=:;$&()+,!?*@'~", r)):
			b.WriteRune(r)
		default:
			for _, bb := range []byte(string(r)) {
				fmt.Fprintf(&b, "%%%02X", bb)
			}
		}
	}
	return value.NewString(b.String()), nil
}

func filterJoin(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	sep := argStr(arg, hasArg, "")
	elems, err := in.Elements()
	if err != nil {
		return value.NewString(str(in)), nil
	}
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = str(e)
	}
	return value.NewString(strings.Join(parts, sep)), nil
}

func filterLength(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	return value.NewNumber(float64(in.Size())), nil
}

func filterLengthIs(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	return value.NewBool(float64(in.Size()) == argNum(arg, hasArg, -1)), nil
}

func filterLinebreaksbr(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	s := str(in)
	if !in.IsSafe() {
		s = value.EscapeString(s)
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", "<br>\n")
	return value.NewString(s).MarkSafe(), nil
}

func filterLinebreaks(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	s := str(in)
	if !in.IsSafe() {
		s = value.EscapeString(s)
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	paras := strings.Split(strings.TrimSpace(s), "\n\n")
	out := make([]string, 0, len(paras))
	for _, p := range paras {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, "<p>"+strings.ReplaceAll(p, "\n", "<br>\n")+"</p>")
	}
	return value.NewString(strings.Join(out, "\n\n")).MarkSafe(), nil
}

func filterLinenumbers(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	lines := strings.Split(str(in), "\n")
	width := len(strconv.Itoa(len(lines)))
	for i, l := range lines {
		lines[i] = fmt.Sprintf("%0*d. %s", width, i+1, l)
	}
	return value.NewString(strings.Join(lines, "\n")), nil
}

func filterLjust(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	s := str(in)
	width := int(argNum(arg, hasArg, float64(len([]rune(s)))))
	n := len([]rune(s))
	if width <= n {
		return value.NewString(s), nil
	}
	return value.NewString(s + strings.Repeat(" ", width-n)), nil
}

func filterRjust(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	s := str(in)
	width := int(argNum(arg, hasArg, float64(len([]rune(s)))))
	n := len([]rune(s))
	if width <= n {
		return value.NewString(s), nil
	}
	return value.NewString(strings.Repeat(" ", width-n) + s), nil
}

func filterLower(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	return value.NewString(strings.ToLower(str(in))), nil
}

func filterUpper(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	return value.NewString(strings.ToUpper(str(in))), nil
}

var titleCaser = cases.Title(language.Und)

func filterTitle(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	return value.NewString(titleCaser.String(strings.ToLower(str(in)))), nil
}

func filterMakeList(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	if in.Kind() == value.KindSequence {
		return in, nil
	}
	rs := []rune(str(in))
	out := make([]value.Value, len(rs))
	for i, r := range rs {
		out[i] = value.NewString(string(r))
	}
	return value.NewSequence(out), nil
}

var phoneDigits = map[rune]byte{
	'a': '2', 'b': '2', 'c': '2',
	'd': '3', 'e': '3', 'f': '3',
	'g': '4', 'h': '4', 'i': '4',
	'j': '5', 'k': '5', 'l': '5',
	'm': '6', 'n': '6', 'o': '6',
	'p': '7', 'q': '7', 'r': '7', 's': '7',
	't': '8', 'u': '8', 'v': '8',
	'w': '9', 'x': '9', 'y': '9', 'z': '9',
}

func filterPhone2numeric(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	s := strings.ToLower(str(in))
	var b strings.Builder
	for _, r := range s {
		if d, ok := phoneDigits[r]; ok {
			b.WriteByte(d)
		} else {
			b.WriteRune(r)
		}
	}
	return value.NewString(b.String()), nil
}

func filterPluralize(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	n, err := in.ToNumber()
	singular, plural := "", "s"
	if hasArg {
		parts := strings.SplitN(str(arg), ",", 2)
		if len(parts) == 1 {
			plural = parts[0]
		} else {
			singular, plural = parts[0], parts[1]
		}
	}
	if err == nil && n == 1 {
		return value.NewString(singular), nil
	}
	return value.NewString(plural), nil
}

func filterPprint(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	return value.NewString(pprintValue(in, 0)), nil
}

func pprintValue(v value.Value, depth int) string {
	indent := strings.Repeat("  ", depth)
	switch v.Kind() {
	case value.KindSequence:
		elems, _ := v.Elements()
		if len(elems) == 0 {
			return "[]"
		}
		var b strings.Builder
		b.WriteString("[\n")
		for _, e := range elems {
			b.WriteString(indent + "  " + pprintValue(e, depth+1) + ",\n")
		}
		b.WriteString(indent + "]")
		return b.String()
	case value.KindMapping:
		pairs, _ := v.Pairs()
		if len(pairs) == 0 {
			return "{}"
		}
		var b strings.Builder
		b.WriteString("{\n")
		for _, p := range pairs {
			fmt.Fprintf(&b, "%s  %q: %s,\n", indent, p.Key, pprintValue(p.Value, depth+1))
		}
		b.WriteString(indent + "}")
		return b.String()
	default:
		return v.String()
	}
}

func filterRandom(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	elems, err := in.Elements()
	if err != nil || len(elems) == 0 {
		return value.NewString(""), nil
	}
	return elems[rand.Intn(len(elems))], nil
}

func filterSafe(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	return in.MarkSafe(), nil
}

func filterSafeseq(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	return in.SafeSeq(), nil
}

func filterSlice(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	if !hasArg {
		return in, nil
	}
	spec := str(arg)
	parts := strings.SplitN(spec, ":", 3)
	var lo, hi, step *int
	parse := func(s string) *int {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil
		}
		return &n
	}
	if len(parts) > 0 {
		lo = parse(parts[0])
	}
	if len(parts) > 1 {
		hi = parse(parts[1])
	}
	if len(parts) > 2 {
		step = parse(parts[2])
	}
	return in.SliceStep(lo, hi, step)
}

var slugInvalidRx = regexp.MustCompile(`[^a-z0-9-]+`)
var slugDashesRx = regexp.MustCompile(`-+`)

func filterSlugify(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	s := strings.ToLower(str(in))
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = slugInvalidRx.ReplaceAllString(s, "")
	s = slugDashesRx.ReplaceAllString(s, "-")
	return value.NewString(strings.Trim(s, "-")), nil
}

func filterStringformat(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	if !hasArg {
		return value.NewString(str(in)), nil
	}
	spec := str(arg)
	if !strings.HasPrefix(spec, "%") {
		spec = "%" + spec
	}
	switch spec[len(spec)-1] {
	case 'd':
		n, _ := in.ToNumber()
		return value.NewString(fmt.Sprintf(spec, int64(n))), nil
	case 'f', 'g', 'e':
		n, _ := in.ToNumber()
		return value.NewString(fmt.Sprintf(spec, n)), nil
	default:
		return value.NewString(fmt.Sprintf(spec, str(in))), nil
	}
}

func filterUrlencode(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	return value.NewString(url.QueryEscape(str(in))), nil
}

func filterWordcount(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	return value.NewNumber(float64(len(strings.Fields(str(in))))), nil
}

func filterWordwrap(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	width := int(argNum(arg, hasArg, 79))
	if width <= 0 {
		return value.NewString(str(in)), nil
	}
	words := strings.Fields(str(in))
	var lines []string
	var cur strings.Builder
	curLen := 0
	for _, w := range words {
		if curLen > 0 && curLen+1+len(w) > width {
			lines = append(lines, cur.String())
			cur.Reset()
			curLen = 0
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(w)
		curLen += len(w)
	}
	if curLen > 0 {
		lines = append(lines, cur.String())
	}
	return value.NewString(strings.Join(lines, "\n")), nil
}

func filterYesno(in, arg value.Value, hasArg bool, _ *tmplopts.Options) (value.Value, error) {
	forms := []string{"yes", "no", "maybe"}
	if hasArg {
		parts := strings.Split(str(arg), ",")
		for i := 0; i < len(parts) && i < 3; i++ {
			forms[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) == 2 {
			// Matches Django: with only yes,no supplied, None reuses the
			// "no" form rather than a hardcoded "maybe".
			forms[2] = forms[1]
		}
	}
	if in.Kind() == value.KindNone {
		return value.NewString(forms[2]), nil
	}
	if in.Test() {
		return value.NewString(forms[0]), nil
	}
	return value.NewString(forms[1]), nil
}

func filterUnorderedList(in, _ value.Value, _ bool, _ *tmplopts.Options) (value.Value, error) {
	elems, err := in.Elements()
	if err != nil {
		return value.NewString(""), nil
	}
	return value.NewString(renderUnorderedList(elems)).MarkSafe(), nil
}

func renderUnorderedList(elems []value.Value) string {
	var b strings.Builder
	b.WriteString("<ul>\n")
	for _, e := range elems {
		if e.Kind() == value.KindSequence {
			sub, _ := e.Elements()
			if len(sub) == 2 && sub[1].Kind() == value.KindSequence {
				subElems, _ := sub[1].Elements()
				fmt.Fprintf(&b, "\t<li>%s\n%s</li>\n", value.EscapeString(str(sub[0])), renderUnorderedList(subElems))
				continue
			}
		}
		fmt.Fprintf(&b, "\t<li>%s</li>\n", value.EscapeString(str(e)))
	}
	b.WriteString("</ul>\n")
	return b.String()
}
