// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kayyagari/ra/index"
	"github.com/kayyagari/ra/metrics"
	"github.com/kayyagari/ra/reference"
	"github.com/kayyagari/ra/rpc"
	"github.com/kayyagari/ra/schema"
	"github.com/kayyagari/ra/storage"
	"github.com/kayyagari/ra/transaction"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// time allowed for requests and commits in progress at shutdown
const shutdownTimeout = 30 * time.Second

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration and
	// process data needed for initial setup
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := getConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// start the data storage
	log.Infof("database: %q", theConfiguration.Database.Name)
	storageOptions, err := theConfiguration.storageOptions()
	if nil != err {
		log.Criticalf("database configuration error: %s", err)
		exitwithstatus.Message("database configuration error: %s", err)
	}
	engine, err := storage.Open(theConfiguration.Database.Name, storageOptions)
	if nil != err {
		log.Criticalf("storage initialise error: %s", err)
		exitwithstatus.Message("storage initialise error: %s", err)
	}
	defer engine.Close()

	// resource definitions, reloaded when the file changes
	log.Infof("schema: %q", theConfiguration.SchemaFile)
	err = schema.Initialise(theConfiguration.SchemaFile)
	if nil != err {
		log.Criticalf("schema initialise error: %s", err)
		exitwithstatus.Message("schema initialise error: %s", err)
	}
	defer schema.Finalise()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	coordinatorOptions, err := theConfiguration.coordinatorOptions()
	if nil != err {
		log.Criticalf("coordinator configuration error: %s", err)
		exitwithstatus.Message("coordinator configuration error: %s", err)
	}
	collaborators := transaction.Collaborators{
		Validator: schema.NewStructuralValidator(nil),
		Resolver:  reference.New(nil),
		Deriver:   index.NewDeriver(nil, nil),
		Metrics:   metrics.New(registry),
	}
	coordinator, err := transaction.New(engine, collaborators, coordinatorOptions)
	if nil != err {
		log.Criticalf("coordinator initialise error: %s", err)
		exitwithstatus.Message("coordinator initialise error: %s", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := coordinator.Shutdown(ctx); nil != err {
			log.Errorf("coordinator shutdown error: %s", err)
		}
	}()

	workers := transaction.NewWorkers(coordinator, theConfiguration.Coordinator.Workers, theConfiguration.Coordinator.QueueSize)
	defer workers.Stop()

	// start up the rpc servers
	err = rpc.Initialise(&theConfiguration.RPC, workers, coordinator, registry, version)
	if nil != err {
		log.Criticalf("rpc initialise error: %s", err)
		exitwithstatus.Message("rpc initialise error: %s", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := rpc.Finalise(ctx); nil != err {
			log.Errorf("rpc finalise error: %s", err)
		}
	}()

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("shutting down…")
}
