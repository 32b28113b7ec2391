package state

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/grovetools/seqrkit/logging"
)

// DefaultDebounce is how long Watch waits for writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// Watch emits the snapshot for label each time its file changes on disk,
// after writes have been quiet for debounce. The channel closes when ctx is done.
func (d *Dir) Watch(ctx context.Context, label string, debounce time.Duration) (<-chan Snapshot, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if err := ensureDir(d.path); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(d.path); err != nil {
		watcher.Close()
		return nil, err
	}

	target := filepath.Clean(d.Path(label))
	logger := logging.NewLogger("state-watcher").WithField("label", label)
	out := make(chan Snapshot, 1)

	go func() {
		defer close(out)
		defer watcher.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)
				if timer == nil {
					timer = time.NewTimer(debounce)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(debounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				select {
				case out <- d.Load(label):
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Errorf("Watcher error: %v", err)
			}
		}
	}()

	return out, nil
}
