package modes

import (
	"context"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the catalog whenever a mode document in the configuration
// directory changes, until ctx is cancelled. It is a no-op when no
// directory is configured. Reload failures keep the previous catalog and
// are retried on the next event.
func (c *Catalog) Watch(ctx context.Context) error {
	if c.dir == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(c.dir); err != nil {
		_ = watcher.Close()
		return err
	}

	go c.processWatchEvents(ctx, watcher)
	return nil
}

func (c *Catalog) processWatchEvents(ctx context.Context, watcher *fsnotify.Watcher) {
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Warn("failed to close config watcher", "error", err)
		}
	}()

	// Editors fire bursts of events per save; coalesce them with a short
	// debounce before reloading.
	const debounce = 200 * time.Millisecond
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(strings.ToLower(event.Name), ".json") {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error", "error", err)

		case <-timerC:
			timer = nil
			timerC = nil
			if err := c.Reload(); err != nil {
				logger.Warn("failed to reload mode configs", "error", err)
				continue
			}
			if c.onChange != nil {
				c.onChange(c.Modes())
			}
		}
	}
}
