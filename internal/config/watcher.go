package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch starts watching the provider's backing file (and its containing
// directory, since editors often replace-by-rename rather than write in
// place) and reloads on every debounced change. Watch returns once the
// watcher goroutine has started; call the returned stop function to tear
// it down.
func (p *Provider) Watch(ctx context.Context) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(p.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	wctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		defer w.Close()

		const debounce = 150 * time.Millisecond
		timer := time.NewTimer(debounce)
		if !timer.Stop() {
			<-timer.C
		}

		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(p.path) {
					continue
				}
				timer.Reset(debounce)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				p.log.Error("config watcher error", "error", err)
			case <-timer.C:
				if err := p.reload(); err != nil {
					p.log.Error("config reload failed, keeping last known good snapshot", "error", err)
				}
			case <-wctx.Done():
				return
			}
		}
	}()

	return func() {
		cancel()
		wg.Wait()
	}, nil
}
