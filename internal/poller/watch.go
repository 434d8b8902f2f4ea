package poller

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/banshee-data/humidity.report/internal/monitoring"
)

// watcher turns fsnotify events on tracked files into wake-ups for the
// polling loop. Parent directories are watched so that files replaced by
// rename are still seen.
type watcher struct {
	fsw     *fsnotify.Watcher
	tracked map[string]bool
	wake    chan struct{}
	done    chan struct{}
}

func newWatcher(files []string) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &watcher{
		fsw:     fsw,
		tracked: make(map[string]bool, len(files)),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		w.tracked[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	go w.loop()
	return w, nil
}

// Wake delivers at most one pending wake-up; bursts of events coalesce.
func (w *watcher) Wake() <-chan struct{} { return w.wake }

func (w *watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.tracked[filepath.Clean(ev.Name)] {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				select {
				case w.wake <- struct{}{}:
				default:
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			monitoring.Logf("File watch error: %v", err)
		}
	}
}
