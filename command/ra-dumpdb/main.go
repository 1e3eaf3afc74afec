// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bitmark-inc/logger"
	"github.com/urfave/cli"

	"github.com/kayyagari/ra/storage"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// log rotation, the logger refuses fewer than 10 files
const (
	logFile  = "ra-dumpdb.log"
	logSize  = 1048576
	logCount = 10
)

// items stored in the app metadata
const (
	metadataEngine = "engine"
	metadataLog    = "log"
)

var (
	errNoDatabase = errors.New("database directory is required")
	errNoKey      = errors.New("key Type/id is required")
)

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); nil != err {
		fmt.Fprintf(os.Stderr, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func newApp(w io.Writer, ew io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "ra-dumpdb"
	app.Usage = "inspect a document database"
	app.Version = version
	app.HideVersion = true
	app.Writer = w
	app.ErrWriter = ew

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "database, d",
			Value: "",
			Usage: " leveldb directory `DIR`",
		},
		cli.StringFlag{
			Name:  "log-directory, l",
			Value: os.TempDir(),
			Usage: " write the log file in `DIR`",
		},
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:      "current",
			Usage:     "show the current version of a document",
			ArgsUsage: "Type/id",
			Action:    runCurrent,
		},
		{
			Name:      "history",
			Usage:     "list the versions of a document, newest first",
			ArgsUsage: "Type/id",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "count, c",
					Value: 10,
					Usage: " maximum versions `COUNT`, 0 for all",
				},
			},
			Action: runHistory,
		},
		{
			Name:   "verify",
			Usage:  "check the checksum of every stored version",
			Action: runVerify,
		},
		{
			Name:  "version",
			Usage: "display ra-dumpdb version",
			Action: func(c *cli.Context) error {
				fmt.Fprintln(c.App.Writer, c.App.Version)
				return nil
			},
		},
	}

	app.Before = func(c *cli.Context) error {
		// version does not need the database
		if "version" == c.Args().First() {
			return nil
		}

		directory := c.GlobalString("database")
		if "" == directory {
			return errNoDatabase
		}

		err := logger.Initialise(logger.Configuration{
			Directory: c.GlobalString("log-directory"),
			File:      logFile,
			Size:      logSize,
			Count:     logCount,
			Levels: map[string]string{
				logger.DefaultTag: "critical",
			},
		})
		if nil != err {
			return err
		}

		log := logger.New("dumpdb")
		engine, err := storage.Open(directory, storage.Options{ReadOnly: storage.ReadOnly})
		if nil != err {
			logger.Finalise()
			return err
		}
		log.Infof("opened: %q", directory)

		c.App.Metadata = map[string]interface{}{
			metadataEngine: engine,
			metadataLog:    log,
		}
		return nil
	}

	app.After = func(c *cli.Context) error {
		if nil == c.App.Metadata {
			return nil
		}
		engine, ok := c.App.Metadata[metadataEngine].(*storage.Engine)
		if !ok {
			return nil
		}
		err := engine.Close()
		logger.Finalise()
		return err
	}

	return app
}

func getEngine(c *cli.Context) *storage.Engine {
	return c.App.Metadata[metadataEngine].(*storage.Engine)
}

func getLog(c *cli.Context) *logger.L {
	return c.App.Metadata[metadataLog].(*logger.L)
}
