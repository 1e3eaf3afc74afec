// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/kayyagari/ra/bundle"
	"github.com/kayyagari/ra/configuration"
	"github.com/kayyagari/ra/rpc"
	"github.com/kayyagari/ra/storage"
	"github.com/kayyagari/ra/transaction"
	"github.com/kayyagari/ra/util"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultKeyFile         = "rpc.key"
	defaultCertificateFile = "rpc.crt"

	defaultLevelDBDirectory = "data"
	defaultDatabase         = "ra.leveldb"
	defaultCacheExpiry      = "10m"

	defaultWorkers        = 4
	defaultQueueSize      = 64
	defaultLockTimeout    = "5s"
	defaultBundleTimeout  = "30s"
	defaultMaximumEntries = 1000

	defaultLogDirectory = "log"
	defaultLogFile      = "rad.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size
)

// to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}
)

type DatabaseType struct {
	Directory   string `gluamapper:"directory" json:"directory"`
	Name        string `gluamapper:"name" json:"name"`
	Sync        bool   `gluamapper:"sync" json:"sync"`
	CacheExpiry string `gluamapper:"cache_expiry" json:"cache_expiry"`
}

type CoordinatorType struct {
	Workers             int    `gluamapper:"workers" json:"workers"`
	QueueSize           int    `gluamapper:"queue_size" json:"queue_size"`
	ValidationWorkers   int    `gluamapper:"validation_workers" json:"validation_workers"`
	LockTimeout         string `gluamapper:"lock_timeout" json:"lock_timeout"`
	BundleTimeout       string `gluamapper:"bundle_timeout" json:"bundle_timeout"`
	MaximumEntries      int    `gluamapper:"maximum_entries" json:"maximum_entries"`
	RequirePrecondition bool   `gluamapper:"require_precondition" json:"require_precondition"`
}

type Configuration struct {
	DataDirectory string               `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string               `gluamapper:"pidfile" json:"pidfile"`
	SchemaFile    string               `gluamapper:"schema_file" json:"schema_file"`
	Database      DatabaseType         `gluamapper:"database" json:"database"`
	Coordinator   CoordinatorType      `gluamapper:"coordinator" json:"coordinator"`
	RPC           rpc.Configuration    `gluamapper:"rpc" json:"rpc"`
	Logging       logger.Configuration `gluamapper:"logging" json:"logging"`
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default
		SchemaFile:    "", // built in definitions

		Database: DatabaseType{
			Directory:   defaultLevelDBDirectory,
			Name:        defaultDatabase,
			CacheExpiry: defaultCacheExpiry,
		},

		Coordinator: CoordinatorType{
			Workers:             defaultWorkers,
			QueueSize:           defaultQueueSize,
			LockTimeout:         defaultLockTimeout,
			BundleTimeout:       defaultBundleTimeout,
			MaximumEntries:      defaultMaximumEntries,
			RequirePrecondition: true,
		},

		RPC: rpc.Configuration{
			Certificate: defaultCertificateFile,
			PrivateKey:  defaultKeyFile,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := configuration.ParseConfigurationFile(configurationFileName, options); err != nil {
		return nil, err
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("Path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	}
	options.DataDirectory = filepath.Clean(options.DataDirectory)

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("Path: %q is not a directory", options.DataDirectory)
	}

	// durations must parse before anything is started
	if _, err := options.storageOptions(); nil != err {
		return nil, err
	}
	if _, err := options.coordinatorOptions(); nil != err {
		return nil, err
	}

	// force all relevant items to be absolute paths
	// if not, assign them to the data directory
	mustBeAbsolute := []*string{
		&options.Database.Directory,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		*f = util.EnsureAbsolute(options.DataDirectory, *f)
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
		&options.SchemaFile,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	// a listener without a certificate serves plain HTTP
	if "" != options.RPC.Certificate {
		options.RPC.Certificate = util.EnsureAbsolute(options.DataDirectory, options.RPC.Certificate)
		options.RPC.PrivateKey = util.EnsureAbsolute(options.DataDirectory, options.RPC.PrivateKey)
	}

	// fail if any of these are not simple file names i.e. must
	// not contain path seperator, then add the correct directory
	// prefix, file item is first and corresponding directory is
	// second (or nil if no prefix can be added)
	mustNotBePaths := [][2]*string{
		{&options.Database.Name, &options.Database.Directory},
		{&options.Logging.File, nil},
	}
	for _, f := range mustNotBePaths {
		switch filepath.Dir(*f[0]) {
		case "", ".":
			if nil != f[1] {
				*f[0] = util.EnsureAbsolute(*f[1], *f[0])
			}
		default:
			return nil, fmt.Errorf("Files: %q is not plain name", *f[0])
		}
	}

	// make absolute and create directories if they do not already exist
	for _, d := range []*string{
		&options.Database.Directory,
		&options.Logging.Directory,
	} {
		if err := util.EnsureDirectory(*d); nil != err {
			return nil, err
		}
	}

	// done
	return options, nil
}

func (c *Configuration) storageOptions() (storage.Options, error) {
	expiry, err := time.ParseDuration(c.Database.CacheExpiry)
	if nil != err {
		return storage.Options{}, fmt.Errorf("database.cache_expiry: %s", err)
	}
	return storage.Options{
		ReadOnly:    storage.ReadWrite,
		Sync:        c.Database.Sync,
		CacheExpiry: expiry,
	}, nil
}

func (c *Configuration) coordinatorOptions() (transaction.Options, error) {
	lockTimeout, err := time.ParseDuration(c.Coordinator.LockTimeout)
	if nil != err {
		return transaction.Options{}, fmt.Errorf("coordinator.lock_timeout: %s", err)
	}
	bundleTimeout, err := time.ParseDuration(c.Coordinator.BundleTimeout)
	if nil != err {
		return transaction.Options{}, fmt.Errorf("coordinator.bundle_timeout: %s", err)
	}
	if lockTimeout <= 0 {
		return transaction.Options{}, errors.New("coordinator.lock_timeout must be positive")
	}
	if c.Coordinator.MaximumEntries <= 0 {
		return transaction.Options{}, errors.New("coordinator.maximum_entries must be positive")
	}

	return transaction.Options{
		LockTimeout:       lockTimeout,
		BundleTimeout:     bundleTimeout,
		ValidationWorkers: c.Coordinator.ValidationWorkers,
		Limits: bundle.Limits{
			MaximumEntries:      c.Coordinator.MaximumEntries,
			RequirePrecondition: c.Coordinator.RequirePrecondition,
		},
	}, nil
}
