// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"time"

	"github.com/urfave/cli"

	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fault"
)

// one stored version as printed
type versionInfo struct {
	Key       string          `json:"key"`
	VersionId string          `json:"versionId"`
	Created   string          `json:"created"`
	Deleted   bool            `json:"deleted"`
	Content   *document.Value `json:"content,omitempty"`
}

type historyInfo struct {
	Key      string        `json:"key"`
	Total    int           `json:"total"`
	Versions []versionInfo `json:"versions"`
}

func toVersionInfo(d *document.Document, verbose bool) versionInfo {
	v := versionInfo{
		Key:       d.Key.String(),
		VersionId: d.Version.String(),
		Created:   d.Created.UTC().Format(time.RFC3339Nano),
		Deleted:   d.Deleted,
	}
	if verbose && !d.Deleted {
		v.Content = d.Content
	}
	return v
}

func keyArgument(c *cli.Context) (document.LogicalKey, error) {
	s := c.Args().First()
	if "" == s {
		return document.LogicalKey{}, errNoKey
	}
	return document.ParseReference(s)
}

func runCurrent(c *cli.Context) error {
	k, err := keyArgument(c)
	if nil != err {
		return err
	}

	// a tombstone is shown rather than reported as an error
	engine := getEngine(c)
	p, err := engine.GetPointer(k)
	if nil != err {
		return err
	}
	if nil == p {
		return fault.ErrDocumentNotFound
	}
	d, err := engine.GetVersion(k, p.Version)
	if nil != err {
		return err
	}
	getLog(c).Debugf("current: %s  version: %s  deleted: %t", k, d.Version, d.Deleted)

	return printJson(c.App.Writer, toVersionInfo(d, true))
}

func runHistory(c *cli.Context) error {
	k, err := keyArgument(c)
	if nil != err {
		return err
	}
	count := c.Int("count")
	if count < 0 {
		count = 0
	}
	verbose := c.GlobalBool("verbose")

	info := historyInfo{
		Key:      k.String(),
		Versions: []versionInfo{},
	}

	cursor := getEngine(c).History(k)
	if 0 == count {
		err = cursor.Map(func(d *document.Document) error {
			info.Versions = append(info.Versions, toVersionInfo(d, verbose))
			return nil
		})
	} else {
		var docs []*document.Document
		docs, err = cursor.Fetch(count)
		for _, d := range docs {
			info.Versions = append(info.Versions, toVersionInfo(d, verbose))
		}
	}
	if nil != err {
		return err
	}
	info.Total = len(info.Versions)

	return printJson(c.App.Writer, info)
}
