package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Editors often write files in multiple steps.
const debounceDelay = 100 * time.Millisecond

// watchFiles calls onChange with the last changed file once writes to any of
// files settle. It blocks until ctx is done. onChange runs on the calling
// goroutine, so runs never overlap.
func watchFiles(ctx context.Context, files []string, log zerolog.Logger, onChange func(string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, file := range files {
		if err := watcher.Add(file); err != nil {
			return fmt.Errorf("failed to watch %s: %w", file, err)
		}
	}

	var (
		debounce *time.Timer
		fire     <-chan time.Time
		changed  string
	)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// Remove/Rename are common in atomic saves
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("file changed")

			changed = event.Name
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(debounceDelay)
			fire = debounce.C

		case <-fire:
			fire = nil

			// Atomic saves replace the file and drop its watch.
			for _, file := range files {
				if err := watcher.Add(file); err != nil {
					log.Warn().Err(err).Str("file", file).Msg("failed to watch file")
				}
			}
			onChange(changed)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("file watcher error")
		}
	}
}
