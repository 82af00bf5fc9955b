// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"net"
	"strings"
	"time"
)

// AdRequest is the explicit per-request context threaded through the
// decision cycle. The HTTP layer fills it in; nothing here reads transport
// state.
type AdRequest struct {
	TagID   string
	TagType string // "", "js" or "js2"

	SessionID   string
	PlacementID string
	PublisherID string
	Width       string
	Height      string

	// Params holds all query parameters, for {QS*} macro substitution.
	Params map[string]string

	// ForwardedFor is the raw X-Forwarded-For header, possibly a
	// comma-separated chain. RemoteAddr is the transport source, host:port
	// or bare host.
	ForwardedFor string
	RemoteAddr   string

	UserAgent string
	Timestamp time.Time
}

// ClientIP resolves the request's source address: the first forwarded-for
// entry when a load balancer is in front, else the transport address.
func (r *AdRequest) ClientIP() string {
	if r.ForwardedFor != "" {
		first, _, _ := strings.Cut(r.ForwardedFor, ",")
		return strings.TrimSpace(first)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// validate checks the identity signals every decision depends on. Failing
// requests must not reach the store.
func (r *AdRequest) validate() *Failure {
	if r.UserAgent == "" {
		return badRequest()
	}
	ip := r.ClientIP()
	if ip == "" || net.ParseIP(ip) == nil {
		return badRequest()
	}
	return nil
}
