// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc_test

import (
	"context"
	"crypto/tls"
	"io/ioutil"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/kayyagari/ra/rpc"
	"github.com/kayyagari/ra/rpc/certificate"
)

func contextWithTimeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestInitialiseTLS(t *testing.T) {
	env := setup(t, nil)
	defer env.teardown()

	dir := t.TempDir()
	configuration := &rpc.Configuration{
		Listen:      []string{"127.0.0.1:0"},
		Certificate: filepath.Join(dir, "rpc.crt"),
		PrivateKey:  filepath.Join(dir, "rpc.key"),
	}
	err := certificate.MakeSelfSigned("test", configuration.Certificate, configuration.PrivateKey, []string{"127.0.0.1"})
	assert.Nil(t, err, "certificate")

	err = rpc.Initialise(configuration, env.workers, env.coordinator, nil, "tls-version")
	if !assert.Nil(t, err, "initialise") {
		return
	}
	defer func() {
		assert.Nil(t, rpc.Finalise(contextWithTimeout(t)), "finalise")
	}()

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // self signed
	client := &http.Client{
		Transport: transport,
		Timeout:   5 * time.Second,
	}

	url := "https://" + rpc.Addresses()[0].String() + "/details"
	response, err := client.Get(url)
	if !assert.Nil(t, err, "https get") {
		return
	}
	body, _ := ioutil.ReadAll(response.Body)
	_ = response.Body.Close()
	assert.Equal(t, http.StatusOK, response.StatusCode, "status")
	assert.Equal(t, "tls-version", gjson.GetBytes(body, "version").String(), "version")

	plain := &http.Client{Timeout: 5 * time.Second}
	response, err = plain.Get("http://" + rpc.Addresses()[0].String() + "/details")
	if nil == err {
		_ = response.Body.Close()
		assert.NotEqual(t, http.StatusOK, response.StatusCode, "plain http served by a tls listener")
	}
}
