// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"
)

const (
	readWriteTimeout = 30 * time.Second
	keepAlivePeriod  = 3 * time.Minute
)

// a set of HTTP servers sharing one handler
type listener struct {
	log     *logger.L
	servers []*http.Server
	addrs   []net.Addr
}

type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (net.Conn, error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return nil, err
	}
	_ = tc.SetKeepAlive(true)
	_ = tc.SetKeepAlivePeriod(keepAlivePeriod)
	return tc, nil
}

// bind every address then serve each in the background
//
// a nil tlsConfig serves plain HTTP
func listen(log *logger.L, addresses []string, handler http.Handler, tlsConfig *tls.Config) (*listener, error) {
	l := &listener{
		log: log,
	}

	for _, addr := range addresses {
		if strings.HasPrefix(addr, "*:") {
			// change "*:PORT" to "[::]:PORT"
			// on the assumption that this will listen on tcp4 and tcp6
			addr = "[::]" + addr[1:]
		}

		ln, err := net.Listen("tcp", addr)
		if nil != err {
			log.Errorf("listen on: %q error: %s", addr, err)
			_ = l.shutdown(context.Background())
			return nil, err
		}

		var netListener net.Listener = tcpKeepAliveListener{ln.(*net.TCPListener)}
		if nil != tlsConfig {
			netListener = tls.NewListener(netListener, tlsConfig)
		}

		s := &http.Server{
			Addr:           addr,
			Handler:        handler,
			ReadTimeout:    readWriteTimeout,
			WriteTimeout:   readWriteTimeout,
			MaxHeaderBytes: 1 << 20,
		}
		l.servers = append(l.servers, s)
		l.addrs = append(l.addrs, ln.Addr())

		log.Infof("starting server on: %q  tls: %v", ln.Addr(), nil != tlsConfig)
		go func(s *http.Server, ln net.Listener) {
			err := s.Serve(ln)
			if nil != err && http.ErrServerClosed != err {
				log.Errorf("server on: %q error: %s", s.Addr, err)
			}
		}(s, netListener)
	}

	return l, nil
}

// stop accepting and wait for active requests
func (l *listener) shutdown(ctx context.Context) error {
	var first error
	for _, s := range l.servers {
		if err := s.Shutdown(ctx); nil != err && nil == first {
			first = err
		}
	}
	return first
}
