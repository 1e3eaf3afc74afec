// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"context"
	"crypto/tls"
	"net"
	"sync"

	"github.com/bitmark-inc/logger"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/rpc/certificate"
)

const (
	tlsName = "http_rpc"
)

// globals
type rpcData struct {
	sync.RWMutex // to allow locking

	log *logger.L // logger

	server   *Server
	listener *listener

	// set once during initialise
	initialised bool
}

// global data
var globalData rpcData

// Initialise - start the HTTP servers
func Initialise(configuration *Configuration, processor Processor, reader Reader, gatherer prometheus.Gatherer, version string) error {

	globalData.Lock()
	defer globalData.Unlock()

	// no need to start if already started
	if globalData.initialised {
		return fault.ErrAlreadyInitialised
	}

	log := logger.New("rpc")
	globalData.log = log
	log.Info("starting…")

	if 0 == len(configuration.Listen) {
		log.Infof("disable: %s", tlsName)
		globalData.initialised = true
		return nil
	}

	var tlsConfiguration *tls.Config
	if "" != configuration.Certificate {
		c, fingerprint, err := certificate.Load(log, tlsName, configuration.Certificate, configuration.PrivateKey)
		if nil != err {
			return err
		}
		log.Infof("%s: SHA3-256 fingerprint: %x", tlsName, fingerprint)
		tlsConfiguration = c
	} else {
		log.Warnf("%s: no certificate, serving plain HTTP", tlsName)
	}

	server, err := NewServer(configuration, processor, reader, gatherer, version)
	if nil != err {
		return err
	}

	l, err := listen(log, configuration.Listen, server, tlsConfiguration)
	if nil != err {
		return err
	}

	globalData.server = server
	globalData.listener = l

	// all data initialised
	globalData.initialised = true

	return nil
}

// Addresses - the bound listen addresses
func Addresses() []net.Addr {
	globalData.RLock()
	defer globalData.RUnlock()

	if nil == globalData.listener {
		return nil
	}
	return globalData.listener.addrs
}

// Finalise - stop accepting and wait for requests in progress
func Finalise(ctx context.Context) error {

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.ErrNotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	var err error
	if nil != globalData.listener {
		err = globalData.listener.shutdown(ctx)
	}

	// finally...
	globalData.initialised = false
	globalData.listener = nil
	globalData.server = nil

	globalData.log.Info("finished")
	globalData.log.Flush()

	return err
}
