package prefabs

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/milk9111/walkabout/behavior/script"
)

const watchDebounce = 100 * time.Millisecond

// Change is a debounced edit to a walker spec or behavior script on disk.
type Change struct {
	Path   string
	Script bool
}

// Name returns the prefab-relative name, e.g. "walker.yaml" or
// "scripts/patrol.tengo".
func (c Change) Name() string {
	if c.Script {
		return cleanScriptPath(filepath.Base(c.Path))
	}
	return filepath.Base(c.Path)
}

type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan Change
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewWatcher(dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher: w,
		Events:  make(chan Change, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Events)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			isScript := script.IsScript(event.Name)
			if !isSpecFile(event.Name) && !isScript {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < watchDebounce {
				continue
			}
			last[event.Name] = now
			select {
			case w.Events <- Change{Path: event.Name, Script: isScript}:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

func isSpecFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Affects reports whether the change touches the walker built from prefab
// with spec: its own spec file or the script it runs.
func (c Change) Affects(prefab string, spec *WalkerSpec) bool {
	if c.Script {
		return spec != nil && spec.Behavior.Script != "" && cleanScriptPath(spec.Behavior.Script) == c.Name()
	}
	return filepath.Base(cleanPrefabPath(prefab)) == c.Name()
}
