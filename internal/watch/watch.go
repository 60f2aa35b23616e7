// Package watch runs the interpreter against files dropped into a
// directory. Files are handled strictly one at a time, in arrival order; a
// short settle delay lets writers finish before a file is read.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultSettleDelay is how long a file must sit unchanged before it is
// processed.
const DefaultSettleDelay = 500 * time.Millisecond

// Handler processes one data file. Errors are logged and do not stop the
// watcher; a bad file must not take down the drop directory.
type Handler func(path string) error

// Config holds tunable parameters for a Watcher.
type Config struct {
	SettleDelay time.Duration
}

// Watcher processes data files as they appear in a directory.
type Watcher struct {
	dir         string
	handler     Handler
	logger      *zap.Logger
	settleDelay time.Duration
	fw          *fsnotify.Watcher

	// pending holds files seen but not yet settled, by arrival order.
	pending []pendingFile
	seen    map[string]int // path -> index into pending
}

type pendingFile struct {
	path    string
	lastMod time.Time
}

// New creates a watcher on dir. Existing files are not replayed; the watcher
// only reacts to files created or written after it starts.
func New(dir string, handler Handler, logger *zap.Logger, conf ...Config) (*Watcher, error) {
	settle := DefaultSettleDelay
	if len(conf) > 0 && conf[0].SettleDelay > 0 {
		settle = conf[0].SettleDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		dir:         dir,
		handler:     handler,
		logger:      logger,
		settleDelay: settle,
		fw:          fw,
		seen:        make(map[string]int),
	}, nil
}

// Run blocks until the context is cancelled, processing files sequentially
// as they settle.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()

	tick := w.settleDelay / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !Eligible(event.Name) {
				continue
			}
			w.touch(event.Name)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-ticker.C:
			w.drainSettled()
		}
	}
}

// touch records activity on a file, resetting its settle clock.
func (w *Watcher) touch(path string) {
	now := time.Now()
	if i, ok := w.seen[path]; ok {
		w.pending[i].lastMod = now
		return
	}
	w.seen[path] = len(w.pending)
	w.pending = append(w.pending, pendingFile{path: path, lastMod: now})
}

// drainSettled processes, in arrival order, every pending file that has been
// quiet for the settle delay.
func (w *Watcher) drainSettled() {
	cutoff := time.Now().Add(-w.settleDelay)

	var remaining []pendingFile
	for _, p := range w.pending {
		if p.lastMod.After(cutoff) {
			remaining = append(remaining, p)
			continue
		}
		delete(w.seen, p.path)
		if err := w.handler(p.path); err != nil {
			w.logger.Error("file failed", zap.String("path", p.path), zap.Error(err))
		}
	}
	w.pending = remaining
	for i, p := range w.pending {
		w.seen[p.path] = i
	}
}

// Eligible reports whether a path looks like a processable data file:
// a regular, visible file that is not an in-progress temp write.
func Eligible(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if strings.HasSuffix(base, ".tmp") || strings.HasSuffix(base, ".part") || strings.HasSuffix(base, "~") {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
