// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package schema

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/kayyagari/ra/fault"
)

// globals for this module
var globalData struct {
	sync.RWMutex
	log         *logger.L
	fileName    string
	schema      *Schema
	watcher     *watcher
	initialised bool
}

// Initialise - load the definitions and follow changes to the file
//
// an empty file name selects DefaultSource and nothing is watched
func Initialise(fileName string) error {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.ErrAlreadyInitialised
	}

	log := logger.New("schema")

	var s *Schema
	var err error
	if "" == fileName {
		s, err = Parse(DefaultSource)
	} else {
		s, err = Load(fileName)
	}
	if nil != err {
		log.Errorf("load: %q  error: %s", fileName, err)
		return err
	}

	if "" != fileName {
		w, err := newWatcher(fileName, logger.New("watcher"), reload)
		if nil != err {
			return err
		}
		globalData.watcher = w
	}

	globalData.log = log
	globalData.fileName = fileName
	globalData.schema = s
	globalData.initialised = true

	log.Infof("loaded: %q  types: %v", fileName, s.Types())
	return nil
}

// Finalise - stop watching and forget the definitions
func Finalise() error {
	globalData.Lock()
	if !globalData.initialised {
		globalData.Unlock()
		return fault.ErrNotInitialised
	}
	w := globalData.watcher
	log := globalData.log
	globalData.watcher = nil
	globalData.schema = nil
	globalData.initialised = false
	globalData.Unlock()

	// outside the lock as a reload may be in progress
	if nil != w {
		w.stop()
	}

	log.Info("finished")
	log.Flush()
	return nil
}

// Get - the current definitions, nil before Initialise
func Get() *Schema {
	globalData.RLock()
	defer globalData.RUnlock()
	return globalData.schema
}

// Reload - read the file again now
func Reload() error {
	globalData.RLock()
	fileName := globalData.fileName
	initialised := globalData.initialised
	globalData.RUnlock()

	if !initialised {
		return fault.ErrNotInitialised
	}
	if "" == fileName {
		return nil
	}
	return reload(fileName)
}

// a file that no longer parses leaves the previous definitions in place
func reload(fileName string) error {
	s, err := Load(fileName)

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.ErrNotInitialised
	}
	if nil != err {
		globalData.log.Errorf("reload: %q  error: %s  keeping previous definitions", fileName, err)
		return err
	}
	globalData.schema = s
	globalData.log.Infof("reloaded: %q  types: %v", fileName, s.Types())
	return nil
}
