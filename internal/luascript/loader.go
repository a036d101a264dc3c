package luascript

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dshills/spritestudio/internal/logging"
	"github.com/dshills/spritestudio/internal/scripts"
)

// SkipPrefix marks files the loader ignores, such as shared examples.
const SkipPrefix = "__"

// ErrUnknownFolder is returned for scripts outside the kind folders.
var ErrUnknownFolder = errors.New("luascript: script is not in a kind folder")

// Loader loads every script under a root directory into a registry and
// keeps them reloadable by path.
type Loader struct {
	root     string
	registry *scripts.Registry
	logger   *logging.Logger
	opts     []Option
	examples bool

	mu     sync.Mutex
	loaded map[string]*Script
}

// NewLoader creates a loader for the kind folders under root.
func NewLoader(root string, r *scripts.Registry, logger *logging.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Loader{
		root:     root,
		registry: r,
		logger:   logger.WithComponent("luascript"),
		opts:     opts,
		loaded:   make(map[string]*Script),
	}
}

// Root returns the scripts directory.
func (l *Loader) Root() string { return l.root }

// Dirs returns the kind folders under the root.
func (l *Loader) Dirs() []string {
	dirs := make([]string, 0, len(scripts.Kinds))
	for _, k := range scripts.Kinds {
		dirs = append(dirs, filepath.Join(l.root, k.Folder()))
	}
	return dirs
}

// IncludeExamples makes LoadAll also load files starting with SkipPrefix.
func (l *Loader) IncludeExamples(on bool) { l.examples = on }

// IsScript reports whether path names a file the loader would load.
func IsScript(path string) bool {
	base := filepath.Base(path)
	return filepath.Ext(base) == Ext && !strings.HasPrefix(base, SkipPrefix)
}

func (l *Loader) wants(name string) bool {
	if l.examples {
		return filepath.Ext(name) == Ext
	}
	return IsScript(name)
}

// LoadAll loads every script in every kind folder. Missing folders are
// skipped. A failing script does not stop the others; all failures are
// returned joined.
func (l *Loader) LoadAll() (int, error) {
	var (
		errs   []error
		loaded int
	)
	for _, dir := range l.Dirs() {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !l.wants(e.Name()) {
				continue
			}
			if err := l.Load(filepath.Join(dir, e.Name())); err != nil {
				l.logger.Warn("script %s rejected: %v", e.Name(), err)
				errs = append(errs, err)
				continue
			}
			loaded++
		}
	}
	l.logger.Info("loaded %d scripts, %d failed", loaded, len(errs))
	return loaded, errors.Join(errs...)
}

// Load loads or reloads the script at path. A previously loaded version
// is unregistered and closed first.
func (l *Loader) Load(path string) error {
	kind, ok := scripts.KindForFolder(filepath.Base(filepath.Dir(path)))
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFolder, path)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.removeLocked(path)

	sc, err := Load(path, kind, l.logger, l.opts...)
	if err != nil {
		return err
	}
	if err := sc.Register(l.registry); err != nil {
		sc.Close()
		return err
	}
	l.loaded[path] = sc
	l.logger.Debug("registered %s script %s", kind, sc.Name)
	return nil
}

// Remove unregisters and closes the script loaded from path.
func (l *Loader) Remove(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.removeLocked(path)
}

func (l *Loader) removeLocked(path string) bool {
	sc, ok := l.loaded[path]
	if !ok {
		return false
	}
	sc.Unregister(l.registry)
	sc.Close()
	delete(l.loaded, path)
	return true
}

// Scripts returns the loaded scripts keyed by path.
func (l *Loader) Scripts() map[string]*Script {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]*Script, len(l.loaded))
	for k, v := range l.loaded {
		out[k] = v
	}
	return out
}

// Close closes every loaded script and unregisters it.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for path := range l.loaded {
		l.removeLocked(path)
	}
}
