// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package core implements the real-time ad-decision and attribution-logging
// engine: creative resolution, per-session frequency capping, targeting
// evaluation, passback fallback, and counter recording against the shared
// key-value store.
package core

import (
	"context"
	"errors"
	"time"

	"github.com/adxyz/adserve/pkg/catalog"
	"github.com/adxyz/adserve/pkg/log"
	"github.com/adxyz/adserve/pkg/metric"
	"github.com/adxyz/adserve/pkg/session"
)

// Decision is the render directive for a successfully served request.
type Decision struct {
	TagID    string
	View     View
	Code     string
	Passback bool
}

// Engine orchestrates one request/response cycle. It holds no per-request
// state; every dependency is safe for concurrent use, so requests run one
// goroutine each with no cross-request locks.
type Engine struct {
	catalog *catalog.Store
	tracker *Tracker
	metrics *metric.Metrics
	log     log.Logger
}

// NewEngine wires the decision engine. metrics may be nil.
func NewEngine(cat *catalog.Store, tracker *Tracker, metrics *metric.Metrics, logger log.Logger) *Engine {
	return &Engine{catalog: cat, tracker: tracker, metrics: metrics, log: logger}
}

// Serve walks the decision cycle: validate, resolve tag and placement,
// derive the session hash, track and count, select the creative. A non-nil
// Failure means nothing was written to the store beyond what tracking had
// already committed; validation and tag-lookup failures write nothing.
func (e *Engine) Serve(ctx context.Context, req *AdRequest) (*Decision, *Failure) {
	started := time.Now()
	dec, fail := e.serve(ctx, req)

	status := 200
	passback := false
	if fail != nil {
		status = fail.Status
	} else {
		passback = dec.Passback
	}
	e.metrics.ObserveDecision(status, passback, time.Since(started))

	return dec, fail
}

func (e *Engine) serve(ctx context.Context, req *AdRequest) (*Decision, *Failure) {
	if fail := req.validate(); fail != nil {
		return nil, fail
	}

	if req.TagID == "" {
		return nil, tagMissing()
	}
	tag, err := e.catalog.Tag(ctx, req.TagID)
	if err != nil {
		if errors.Is(err, catalog.ErrTagNotFound) {
			return nil, tagUnresolvable()
		}
		e.log.Error("tag lookup failed", "tag_id", req.TagID, "error", err)
		return nil, tagUnresolvable()
	}

	// An unresolvable placement id is ignored by policy: the tag is still
	// servable, cost accrual and placement counters are simply skipped.
	var placement *catalog.Placement
	if req.PlacementID != "" {
		placement, err = e.catalog.Placement(ctx, req.PlacementID)
		if err != nil {
			if !errors.Is(err, catalog.ErrPlacementNotFound) {
				e.log.Error("placement lookup failed", "placement_id", req.PlacementID, "error", err)
			}
			placement = nil
		}
	}

	placementID := ""
	if placement != nil {
		placementID = placement.ID
	}
	hash := session.Hash(req.Timestamp, tag.ID, placementID, req.SessionID, req.ClientIP(), req.UserAgent)

	out, err := e.tracker.Track(ctx, hash, req, tag, placement)
	if err != nil {
		e.log.Error("tracking failed", "session_hash", hash, "tag_id", tag.ID, "error", err)
		return nil, &Failure{Message: "Internal error", Code: "M000004A", Status: 500}
	}

	code, ok := e.selectCreative(tag, req, out.Passback)
	if !ok {
		return nil, noCreativeMatched()
	}

	return &Decision{
		TagID:    tag.ID,
		View:     viewForTagType(req.TagType),
		Code:     code,
		Passback: out.Passback,
	}, nil
}

// selectCreative picks and renders the creative payload. On passback: no
// passback creative means the request cannot be served; the {show_all}
// sentinel re-renders the tag's own code; anything else is served verbatim
// without query-macro substitution.
func (e *Engine) selectCreative(tag *catalog.Tag, req *AdRequest, passback bool) (string, bool) {
	var code string
	switch {
	case !passback:
		code = substituteQueryMacros(tag.Code, req.Params)
	case tag.PassbackTag == "":
		return "", false
	case tag.PassbackTag == catalog.ShowAllPassback:
		code = substituteQueryMacros(tag.Code, req.Params)
	default:
		code = tag.PassbackTag
	}

	return substitutePublisher(code, req.PublisherID), true
}
