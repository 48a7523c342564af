package dialectd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
)

func TestLexer_StringLiteralContainingBraceDoesNotDesyncScan(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)

	out := renderD(t, `{{ "{"|default:"unused" }}`, ctx, opts)
	assert.Equal(t, "{", out)
}

func TestLexer_StringLiteralContainingEndMarkerDoesNotEndScanEarly(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)

	out := renderD(t, `{{ "}}"|default:"unused" }}`, ctx, opts)
	assert.Equal(t, "}}", out)
}

func TestLexer_EscapedQuoteInsideStringLiteral(t *testing.T) {
	opts := tmplopts.Default()
	ctx := tmplopts.NewContext(false)

	tmpl, err := ParseString(`{{ "a\"}} b"|default:"unused" }}`, "test.html")
	require.NoError(t, err)
	out, err := tmpl.RenderToString(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, `a"}} b`, out)
}
