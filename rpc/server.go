// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/kayyagari/ra/bundle"
	"github.com/kayyagari/ra/counter"
	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/versionid"
)

// defaults
const (
	defaultRateLimit   = 100
	defaultRateBurst   = 200
	defaultMaximumBody = 8 << 20
	defaultCount       = 10
	maximumRateWait    = 2 * time.Second
)

//go:generate mockgen -destination=mocks/rpc.go -package=mocks github.com/kayyagari/ra/rpc Processor,Reader

// Processor - runs one bundle to its outcome
type Processor interface {
	Submit(ctx context.Context, b *bundle.Bundle) (*bundle.Response, error)
}

// Reader - read access to stored documents
type Reader interface {
	Current(k document.LogicalKey) (*document.Document, error)
	Version(k document.LogicalKey, version versionid.ID) (*document.Document, error)
	History(k document.LogicalKey, count int) ([]*document.Document, error)
	Referrers(k document.LogicalKey) ([]document.LogicalKey, error)
	Search(resourceType string, code string, value string) ([]document.LogicalKey, error)
}

// Configuration - configuration file data for the HTTP server
type Configuration struct {
	Listen      []string            `gluamapper:"listen" json:"listen"`
	Certificate string              `gluamapper:"certificate" json:"certificate"`
	PrivateKey  string              `gluamapper:"private_key" json:"private_key"`
	RateLimit   float64             `gluamapper:"rate_limit" json:"rate_limit"`
	RateBurst   int                 `gluamapper:"rate_burst" json:"rate_burst"`
	MaximumBody int64               `gluamapper:"maximum_body" json:"maximum_body"`
	Allow       map[string][]string `gluamapper:"allow" json:"allow"`
}

// Server - the HTTP handler for every route
type Server struct {
	log         *logger.L
	processor   Processor
	reader      Reader
	router      *httprouter.Router
	limiter     *rate.Limiter
	allow       map[string][]*net.IPNet
	maximumBody int64
	version     string
	start       time.Time
	inFlight    counter.Counter
	requests    counter.Counter
}

// NewServer - build the routes over a processor and a reader
//
// gatherer may be nil, which disables /metrics
func NewServer(configuration *Configuration, processor Processor, reader Reader, gatherer prometheus.Gatherer, version string) (*Server, error) {
	s := &Server{
		log:         logger.New("rpc"),
		processor:   processor,
		reader:      reader,
		maximumBody: configuration.MaximumBody,
		version:     version,
		start:       time.Now(),
	}

	limit := configuration.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}
	burst := configuration.RateBurst
	if burst <= 0 {
		burst = defaultRateBurst
	}
	s.limiter = rate.NewLimiter(rate.Limit(limit), burst)

	if s.maximumBody <= 0 {
		s.maximumBody = defaultMaximumBody
	}

	// create access control to match http.Request.RemoteAddr
	s.allow = make(map[string][]*net.IPNet)
	for path, addresses := range configuration.Allow {
		set := make([]*net.IPNet, len(addresses))
		s.allow[path] = set
		for i, ip := range addresses {
			_, cidr, err := net.ParseCIDR(strings.Trim(ip, " "))
			if nil != err {
				s.log.Errorf("allow: %q  address: %q  error: %s", path, ip, err)
				return nil, err
			}
			set[i] = cidr
		}
	}

	router := httprouter.New()
	router.NotFound = http.HandlerFunc(sendNotFound)
	router.MethodNotAllowed = http.HandlerFunc(sendMethodNotAllowed)
	router.PanicHandler = s.panicked

	router.POST("/bundle", s.bundle)
	router.GET("/fhir/:type", s.search)
	router.POST("/fhir/:type", s.create)
	router.GET("/fhir/:type/:id", s.current)
	router.GET("/fhir/:type/:id/_history", s.history)
	router.GET("/fhir/:type/:id/_history/:vid", s.historyVersion)
	router.GET("/fhir/:type/:id/_referrers", s.referrers)
	router.GET("/details", s.details)

	if nil != gatherer {
		metrics := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
		router.GET("/metrics", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
			if !s.allowed("metrics", r) {
				sendForbidden(w)
				return
			}
			metrics.ServeHTTP(w, r)
		})
	}
	s.router = router

	return s, nil
}

// ServeHTTP - dispatch to the routes
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.requests.Increment()
	s.router.ServeHTTP(w, r)
}

func (s *Server) panicked(w http.ResponseWriter, r *http.Request, v interface{}) {
	s.log.Criticalf("%s %s panic: %v", r.Method, r.URL.Path, v)
	sendInternalServerError(w)
}

// paths without an allow list are open to every address
func (s *Server) allowed(path string, r *http.Request) bool {
	set, ok := s.allow[path]
	if !ok {
		return true
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if nil != err {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	if nil != ip {
		for _, cidr := range set {
			if cidr.Contains(ip) {
				return true
			}
		}
	}
	s.log.Warnf("deny access: %q  path: %s", r.RemoteAddr, path)
	return false
}

// status of the process
func (s *Server) details(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !s.allowed("details", r) {
		sendForbidden(w)
		return
	}

	type theReply struct {
		Version  string `json:"version"`
		Uptime   string `json:"uptime"`
		Requests int64  `json:"requests"`
		InFlight int64  `json:"inFlight"`
	}

	sendReply(w, theReply{
		Version:  s.version,
		Uptime:   time.Since(s.start).Round(time.Second).String(),
		Requests: s.requests.Int64(),
		InFlight: s.inFlight.Int64(),
	})
}
