package fsloader

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
)

type stubTemplate struct{ source string }

func (s *stubTemplate) RenderToString(*tmplopts.Context, *tmplopts.Options) (string, error) {
	return s.source, nil
}
func (s *stubTemplate) RenderToStream(w io.Writer, _ *tmplopts.Context, _ *tmplopts.Options) error {
	_, err := w.Write([]byte(s.source))
	return err
}

func stubParse(source []byte, _ string) (tmplopts.Template, error) {
	return &stubTemplate{source: string(source)}, nil
}

func TestLoadTemplate_ResolvesAndCaches(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.tmpl"), []byte("hi"), 0o644))

	l := New(stubParse)
	defer l.Close()

	tmpl, err := l.LoadTemplate("hello.tmpl", []string{dir})
	require.NoError(t, err)
	out, err := tmpl.RenderToString(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	// A second load of the same name returns the cached template rather
	// than re-reading the file.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.tmpl"), []byte("changed"), 0o644))
	tmpl2, err := l.LoadTemplate("hello.tmpl", []string{dir})
	require.NoError(t, err)
	out2, err := tmpl2.RenderToString(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", out2, "cached entry should not reflect the on-disk change yet")
}

func TestLoadTemplate_NotFound(t *testing.T) {
	l := New(stubParse)
	defer l.Close()

	_, err := l.LoadTemplate("missing.tmpl", []string{t.TempDir()})
	require.Error(t, err)
	var ioErr *tmplopts.IoError
	assert.ErrorAs(t, err, &ioErr)
}

func TestLoadTemplate_RejectsPathEscapingSearchDir(t *testing.T) {
	root := t.TempDir()
	sandbox := filepath.Join(root, "templates")
	outside := filepath.Join(root, "secret.tmpl")
	require.NoError(t, os.Mkdir(sandbox, 0o750))
	require.NoError(t, os.WriteFile(outside, []byte("do not serve me"), 0o644))

	l := New(stubParse)
	defer l.Close()

	_, err := l.LoadTemplate("../secret.tmpl", []string{sandbox})
	require.Error(t, err)
	var ioErr *tmplopts.IoError
	assert.ErrorAs(t, err, &ioErr)
}

func TestLoadBytes_ResolvesWithinSearchDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "snippet.html"), []byte("raw bytes"), 0o644))

	l := New(stubParse)
	defer l.Close()

	b, err := l.LoadBytes("snippet.html", []string{dir})
	require.NoError(t, err)
	assert.Equal(t, "raw bytes", string(b))
}

func TestLoadBytes_RejectsPathEscapingSearchDir(t *testing.T) {
	root := t.TempDir()
	sandbox := filepath.Join(root, "templates")
	outside := filepath.Join(root, "secret.tmpl")
	require.NoError(t, os.Mkdir(sandbox, 0o750))
	require.NoError(t, os.WriteFile(outside, []byte("do not serve me"), 0o644))

	l := New(stubParse)
	defer l.Close()

	_, err := l.LoadBytes("../secret.tmpl", []string{sandbox})
	require.Error(t, err)
	var ioErr *tmplopts.IoError
	assert.ErrorAs(t, err, &ioErr)
}

func TestWatchDir_InvalidatesCacheOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))

	l := New(stubParse)
	defer l.Close()
	require.NoError(t, l.WatchDir(dir))

	_, err := l.LoadTemplate("hello.tmpl", []string{dir})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("changed"), 0o644))

	require.Eventually(t, func() bool {
		l.mu.RLock()
		_, cached := l.cache["hello.tmpl"]
		l.mu.RUnlock()
		return !cached
	}, time.Second, 10*time.Millisecond, "write should invalidate the cache entry")

	tmpl, err := l.LoadTemplate("hello.tmpl", []string{dir})
	require.NoError(t, err)
	out, err := tmpl.RenderToString(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "changed", out)
}

func TestLoadLibraryManifest_IntersectsRegisteredHandlers(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "humanize.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`
name: humanize
tags: []
filters: [naturaltime, intcomma]
`), 0o644))

	l := New(stubParse)
	defer l.Close()
	l.RegisterLibrary(&tmplopts.Library{
		Name: "humanize",
		Tags: map[string]any{},
		Filters: map[string]any{
			"naturaltime": func() {},
			"unrelated":   func() {},
		},
	})

	lib, err := l.LoadLibraryManifest(manifest)
	require.NoError(t, err)
	assert.Equal(t, "humanize", lib.Name)
	assert.Contains(t, lib.Filters, "naturaltime")
	assert.NotContains(t, lib.Filters, "intcomma", "manifest names it but no handler was registered")
	assert.NotContains(t, lib.Filters, "unrelated", "registered but not declared by the manifest")
}
