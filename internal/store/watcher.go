package store

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kode4food/signoff/pkg/log"
	"github.com/kode4food/signoff/pkg/util"
)

// Watcher reloads definitions as their files change and signals when
// new requests arrive. Changes are debounced so editors and atomic
// renames trigger one reload instead of several
type Watcher struct {
	watcher    *fsnotify.Watcher
	defs       *Definitions
	onRequests func()
	debounce   time.Duration
	done       chan struct{}
	once       sync.Once
	wg         sync.WaitGroup
}

var watchedFiles = util.SetOf(
	FlowFile, RulesFile, LLMFile, RequestsFile,
)

// NewWatcher watches the definition directory. onRequests fires after
// the requests file changes; nil disables that signal
func NewWatcher(
	defs *Definitions, debounce time.Duration, onRequests func(),
) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(defs.dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return &Watcher{
		watcher:    fw,
		defs:       defs,
		onRequests: onRequests,
		debounce:   debounce,
		done:       make(chan struct{}),
	}, nil
}

// Start begins watching in the background
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop ends watching and waits for the loop to exit
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
	})
	w.wg.Wait()
}

func (w *Watcher) run() {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	pending := map[string]bool{}
	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Rename) {
				continue
			}
			name := filepath.Base(ev.Name)
			if !watchedFiles.Contains(name) {
				continue
			}
			pending[name] = true
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := pending
			pending = map[string]bool{}
			w.apply(changed)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", log.Error(err))
		}
	}
}

func (w *Watcher) apply(changed map[string]bool) {
	for name := range changed {
		if name == RequestsFile {
			continue
		}
		if err := w.defs.Reload(name); err != nil {
			slog.Error("Definition reload failed, keeping previous",
				slog.String("file", name),
				log.Error(err))
			continue
		}
		slog.Info("Definition reloaded", slog.String("file", name))
	}
	if changed[RequestsFile] && w.onRequests != nil {
		w.onRequests()
	}
}
