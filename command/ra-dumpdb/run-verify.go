// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/kayyagari/ra/storage"
)

type failureInfo struct {
	Key       string `json:"key"`
	VersionId string `json:"versionId"`
	Error     string `json:"error"`
}

type verifyInfo struct {
	Total    int           `json:"total"`
	Failed   int           `json:"failed"`
	Failures []failureInfo `json:"failures"`
}

func runVerify(c *cli.Context) error {
	verbose := c.GlobalBool("verbose")
	log := getLog(c)

	info := verifyInfo{
		Failures: []failureInfo{},
	}
	total, failed, err := getEngine(c).Verify(func(r storage.VerifyResult) {
		if nil == r.Err {
			if verbose {
				fmt.Fprintf(c.App.ErrWriter, "ok: %s  version: %s\n", r.Key, r.Version)
			}
			return
		}
		log.Errorf("verify: %s  version: %s  error: %s", r.Key, r.Version, r.Err)
		info.Failures = append(info.Failures, failureInfo{
			Key:       r.Key.String(),
			VersionId: r.Version.String(),
			Error:     r.Err.Error(),
		})
	})
	if nil != err {
		return err
	}
	info.Total = total
	info.Failed = failed

	if err := printJson(c.App.Writer, info); nil != err {
		return err
	}
	if 0 != failed {
		return fmt.Errorf("%d of %d records failed verification", failed, total)
	}
	return nil
}
