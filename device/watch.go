package device

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/go-errors/errors"
)

type seedWatcher struct {
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// watchSeed calls changed whenever file is written or replaced. The directory
// is watched so editors that rename over the file are noticed too.
func watchSeed(file string, log Logger, changed func()) (*seedWatcher, error) {
	absFile, err := filepath.Abs(file)
	if err != nil {
		return nil, errors.Errorf("could not resolve %v: %v", file, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Errorf("could not create file watcher: %v", err)
	}

	if err := watcher.Add(filepath.Dir(absFile)); err != nil {
		_ = watcher.Close()
		return nil, errors.Errorf("could not watch %v: %v", filepath.Dir(absFile), err)
	}

	w := &seedWatcher{
		watcher: watcher,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	go func() {
		defer close(w.doneCh)

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				absEventPath, _ := filepath.Abs(event.Name)
				if absEventPath != absFile {
					continue
				}

				log.Infof("Seed file %v changed", file)
				changed()

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}

				log.Warnf("File watcher error: %v", err)

			case <-w.stopCh:
				return
			}
		}
	}()

	return w, nil
}

func (w *seedWatcher) Close() {
	close(w.stopCh)
	_ = w.watcher.Close()
	<-w.doneCh
}
