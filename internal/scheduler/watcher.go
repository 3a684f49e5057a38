package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/hostsync/internal/logger"
)

// FileWatcher fires trigger when the desired file changes. The parent
// directory is watched so editors that replace the file are seen too.
type FileWatcher struct {
	file     string
	debounce time.Duration
	trigger  chan<- struct{}
	logger   logger.Logger
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewFileWatcher(file string, debounce time.Duration, trigger chan<- struct{}, log logger.Logger) *FileWatcher {
	return &FileWatcher{
		file:     filepath.Clean(file),
		debounce: debounce,
		trigger:  trigger,
		logger:   log,
		stopCh:   make(chan struct{}),
	}
}

// Start begins watching
func (fw *FileWatcher) Start(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	dir := filepath.Dir(fw.file)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	fw.watcher = w

	fw.wg.Add(1)
	go fw.loop(ctx)
	return nil
}

// Stop stops the watcher
func (fw *FileWatcher) Stop() {
	close(fw.stopCh)
	fw.wg.Wait()
	if fw.watcher != nil {
		_ = fw.watcher.Close()
	}
}

func (fw *FileWatcher) loop(ctx context.Context) {
	defer fw.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.relevant(ev) {
				continue
			}
			fw.logger.Debug("desired file changed", logger.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(fw.debounce)
			} else {
				timer.Reset(fw.debounce)
			}
			fire = timer.C
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("file watcher error", logger.Error(err))
		case <-fire:
			fire = nil
			fw.notify()
		case <-fw.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (fw *FileWatcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != fw.file {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// notify never blocks: a pending trigger already covers this change.
func (fw *FileWatcher) notify() {
	select {
	case fw.trigger <- struct{}{}:
		fw.logger.Info("desired file changed, pass triggered", logger.String("file", fw.file))
	default:
		fw.logger.Debug("pass already pending, change coalesced")
	}
}
