// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package schema

import (
	"path/filepath"

	"github.com/bitmark-inc/logger"
	"github.com/fsnotify/fsnotify"
)

// follows one file
//
// the directory is watched, not the file, so editors that replace the
// file by rename are still seen
type watcher struct {
	log      *logger.L
	watcher  *fsnotify.Watcher
	filePath string
	onChange func(string) error
	shutdown chan struct{}
	finished chan struct{}
}

func newWatcher(targetFile string, log *logger.L, onChange func(string) error) (*watcher, error) {
	filePath, err := filepath.Abs(filepath.Clean(targetFile))
	if nil != err {
		log.Errorf("parse file %s error: %s", targetFile, err)
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if nil != err {
		log.Errorf("new watcher with error: %s", err)
		return nil, err
	}

	err = fw.Add(filepath.Dir(filePath))
	if nil != err {
		log.Errorf("watcher add error: %s", err)
		fw.Close()
		return nil, err
	}

	w := &watcher{
		log:      log,
		watcher:  fw,
		filePath: filePath,
		onChange: onChange,
		shutdown: make(chan struct{}),
		finished: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *watcher) run() {
	defer close(w.finished)

	for {
		select {
		case <-w.shutdown:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.filePath {
				continue
			}
			w.log.Debugf("file event: %v", event)

			if event.Op&fsnotify.Remove == fsnotify.Remove {
				w.log.Warnf("file %s removed, keeping current definitions", w.filePath)
				continue
			}
			if isChange(event) {
				_ = w.onChange(w.filePath)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Errorf("watch error: %s", err)
		}
	}
}

func (w *watcher) stop() {
	close(w.shutdown)
	w.watcher.Close()
	<-w.finished
}

func isChange(event fsnotify.Event) bool {
	return event.Op&fsnotify.Write == fsnotify.Write ||
		event.Op&fsnotify.Create == fsnotify.Create ||
		event.Op&fsnotify.Rename == fsnotify.Rename
}
