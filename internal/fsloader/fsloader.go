// Package fsloader implements tmplopts.Loader against the local
// filesystem: named templates are resolved by searching a list of
// directories, parsed once per backing file and cached, and the cache is
// invalidated as soon as fsnotify reports the file changed underneath it.
// Concurrent loads of the same name are coalesced with
// golang.org/x/sync/singleflight so a render storm never re-parses the
// same template N times.
package fsloader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/gotmpl/internal/tmplopts"
)

// FSLoader is a tmplopts.Loader backed by a directory search path.
type FSLoader struct {
	mu        sync.RWMutex
	parse     tmplopts.ParseFunc
	cache     map[string]*cacheEntry
	group     singleflight.Group
	watcher   *fsnotify.Watcher
	libraries map[string]*tmplopts.Library
}

type cacheEntry struct {
	tmpl tmplopts.Template
	path string
}

// New creates a loader that parses templates with parse. The returned
// loader watches no directories until WatchDir is called; construction
// never fails on watcher setup so a loader remains usable even on
// platforms where fsnotify is unavailable.
func New(parse tmplopts.ParseFunc) *FSLoader {
	l := &FSLoader{
		parse:     parse,
		cache:     make(map[string]*cacheEntry),
		libraries: make(map[string]*tmplopts.Library),
	}
	if w, err := fsnotify.NewWatcher(); err == nil {
		l.watcher = w
		go l.watchLoop()
	}
	return l
}

// Close releases the underlying filesystem watcher, if any.
func (l *FSLoader) Close() error {
	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}

// WatchDir adds dir to the set of watched directories so cached templates
// backed by files under it are invalidated on change.
func (l *FSLoader) WatchDir(dir string) error {
	if l.watcher == nil {
		return nil
	}
	return l.watcher.Add(dir)
}

func (l *FSLoader) watchLoop() {
	for {
		select {
		case ev, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				l.invalidatePath(ev.Name)
			}
		case _, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (l *FSLoader) invalidatePath(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for name, entry := range l.cache {
		if entry.path == path {
			delete(l.cache, name)
		}
	}
}

// RegisterLibrary makes lib available to LoadLibrary under lib.Name. Used
// to wire built-in dialect libraries (e.g. a "humanize" filter pack) that
// don't live as files on disk.
func (l *FSLoader) RegisterLibrary(lib *tmplopts.Library) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.libraries[lib.Name] = lib
}

// LoadLibraryManifest parses a YAML manifest declaring a library's name and
// the names of the tags/filters it contributes (the handlers themselves
// must already be registered via RegisterLibrary or supplied by the
// caller; the manifest only declares membership, mirroring how a Django
// app declares a templatetags module without embedding the Python code in
// the manifest).
func (l *FSLoader) LoadLibraryManifest(path string) (*tmplopts.Library, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // G304: caller-controlled library search path
	if err != nil {
		return nil, &tmplopts.IoError{Cause: err}
	}
	var doc struct {
		Name    string   `yaml:"name"`
		Tags    []string `yaml:"tags"`
		Filters []string `yaml:"filters"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing library manifest %s: %w", path, err)
	}
	lib := &tmplopts.Library{Name: doc.Name, Tags: map[string]any{}, Filters: map[string]any{}}
	l.mu.RLock()
	existing, ok := l.libraries[doc.Name]
	l.mu.RUnlock()
	if ok {
		for _, name := range doc.Tags {
			if h, ok := existing.Tags[name]; ok {
				lib.Tags[name] = h
			}
		}
		for _, name := range doc.Filters {
			if h, ok := existing.Filters[name]; ok {
				lib.Filters[name] = h
			}
		}
	}
	return lib, nil
}

// LoadLibrary implements tmplopts.Loader.
func (l *FSLoader) LoadLibrary(name string) (*tmplopts.Library, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	lib, ok := l.libraries[name]
	return lib, ok, nil
}

// LoadTemplate implements tmplopts.Loader: dirs is searched in order for
// the first file matching name.
func (l *FSLoader) LoadTemplate(name string, dirs []string) (tmplopts.Template, error) {
	path, err := resolvePath(name, dirs)
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	if entry, ok := l.cache[name]; ok && entry.path == path {
		l.mu.RUnlock()
		return entry.tmpl, nil
	}
	l.mu.RUnlock()

	result, err, _ := l.group.Do(name, func() (any, error) {
		source, err := os.ReadFile(path) //nolint:gosec // G304: path comes from a caller-supplied search list
		if err != nil {
			return nil, &tmplopts.IoError{Cause: err}
		}
		tmpl, err := l.parse(source, name)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.cache[name] = &cacheEntry{tmpl: tmpl, path: path}
		l.mu.Unlock()
		return tmpl, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(tmplopts.Template), nil
}

// LoadBytes implements tmplopts.Loader: it is used by includes/SSI, which
// splice raw bytes without parsing, so it deliberately bypasses the
// template cache. name is resolved against dirs the same way LoadTemplate
// resolves it, so an include/SSI directive can't read a file outside its
// configured search path.
func (l *FSLoader) LoadBytes(name string, dirs []string) ([]byte, error) {
	path, err := resolvePath(name, dirs)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path) //nolint:gosec // G304: path resolved via resolvePath's directory confinement
	if err != nil {
		return nil, &tmplopts.IoError{Cause: err}
	}
	return b, nil
}

func resolvePath(name string, dirs []string) (string, error) {
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if !withinDir(dir, candidate) {
			continue
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", &tmplopts.IoError{Cause: fmt.Errorf("template %q not found in %v", name, dirs)}
}

// withinDir reports whether candidate (already filepath.Join'd from dir)
// still resolves inside dir -- a name containing ".." segments would
// otherwise let the search path escape its configured directory.
func withinDir(dir, candidate string) bool {
	rel, err := filepath.Rel(dir, candidate)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
