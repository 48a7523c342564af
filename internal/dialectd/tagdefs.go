package dialectd

// blockTagDef describes one block-shaped tag's nesting grammar: its end
// tag and the intermediate keywords the parser must recognize as clause
// separators rather than as nested content. Tags not present here are
// simple (single {% ... %} token, no body) of the ≈40 recognized tags.
type blockTagDef struct {
	endTag        string
	intermediates []string
	raw           bool // body is scanned raw (comment, verbatim): not reparsed
}

var blockTags = map[string]blockTagDef{
	"if":            {endTag: "endif", intermediates: []string{"elif", "else"}},
	"ifequal":       {endTag: "endifequal", intermediates: []string{"else"}},
	"ifnotequal":    {endTag: "endifnotequal", intermediates: []string{"else"}},
	"ifchanged":     {endTag: "endifchanged", intermediates: []string{"else"}},
	"for":           {endTag: "endfor", intermediates: []string{"empty"}},
	"with":          {endTag: "endwith"},
	"block":         {endTag: "endblock"},
	"filter":        {endTag: "endfilter"},
	"spaceless":     {endTag: "endspaceless"},
	"autoescape":    {endTag: "endautoescape"},
	"comment":       {endTag: "endcomment", raw: true},
	"verbatim":      {endTag: "endverbatim", raw: true},
	"blocktrans":    {endTag: "endblocktrans", intermediates: []string{"plural"}},
}
