// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/adxyz/adserve/pkg/catalog"
	"github.com/adxyz/adserve/pkg/device"
	"github.com/adxyz/adserve/pkg/fraud"
	"github.com/adxyz/adserve/pkg/geo"
	"github.com/adxyz/adserve/pkg/log"
	"github.com/adxyz/adserve/pkg/store"
)

var perMille = decimal.NewFromInt(1000)

// Outcome is what one tracked request did to the session's attribution
// state. It drives both daily counter recording and creative selection.
type Outcome struct {
	// First reports whether this request created the session log.
	First bool
	// Passback reports the request must be served the fallback creative:
	// targeting missed or the frequency cap is exhausted.
	Passback bool
	Cost     decimal.Decimal
	Revenue  decimal.Decimal
}

// Tracker maintains one attribution record per session hash and enforces
// per-session frequency capping. It resolves device and geolocation
// attributes through the injected collaborators on every countable request.
type Tracker struct {
	kv       store.KV
	devices  *device.Cache
	geo      geo.Locator
	fraud    fraud.Detector
	counters *Aggregator
	log      log.Logger

	// debugStats mirrors a few decision counters into the adstats hash for
	// ad-hoc inspection.
	debugStats bool
}

// NewTracker wires the tracker and its counter aggregator.
func NewTracker(
	kv store.KV,
	devices *device.Cache,
	locator geo.Locator,
	scorer fraud.Detector,
	logger log.Logger,
	debugStats bool,
) *Tracker {
	return &Tracker{
		kv:         kv,
		devices:    devices,
		geo:        locator,
		fraud:      scorer,
		counters:   NewAggregator(kv),
		log:        logger,
		debugStats: debugStats,
	}
}

// Track runs the NEW/EXISTING state machine for the request's session hash
// and feeds the outcome to the counter aggregator.
//
// The existence check and the subsequent write are not atomic: two requests
// racing on a fresh session hash can both take the NEW path and double-count
// one impression. That skews counting accuracy, never request correctness,
// and stays unfixed deliberately — serializing sessions would cost latency
// on every request.
func (t *Tracker) Track(
	ctx context.Context,
	hash string,
	req *AdRequest,
	tag *catalog.Tag,
	placement *catalog.Placement,
) (Outcome, error) {
	logKey := "log:" + hash

	imps, err := t.kv.GetMapField(ctx, logKey, "imps")
	if err != nil {
		return Outcome{}, err
	}

	var out Outcome
	if imps == "" {
		out, err = t.trackNew(ctx, logKey, hash, req, tag, placement)
	} else {
		out, err = t.trackExisting(ctx, logKey, hash, req, tag, placement, parseCount(imps))
	}
	if err != nil {
		return Outcome{}, err
	}

	date := req.Timestamp.UTC().Format("20060102")
	placementID := ""
	if placement != nil {
		placementID = placement.ID
	}
	if err := t.counters.Record(ctx, tag.ID, placementID, date, out, req.Timestamp); err != nil {
		return Outcome{}, err
	}

	return out, nil
}

// trackNew writes the full session log exactly once. After creation the
// record is only ever incremented.
func (t *Tracker) trackNew(
	ctx context.Context,
	logKey, hash string,
	req *AdRequest,
	tag *catalog.Tag,
	placement *catalog.Placement,
) (Outcome, error) {
	out := Outcome{First: true, Cost: decimal.Zero, Revenue: decimal.Zero}

	if err := t.kv.AddToSortedSet(ctx, "sessionhashes", req.Timestamp.Unix(), hash); err != nil {
		return out, err
	}

	attrs, loc, score, err := t.detect(ctx, req)
	if err != nil {
		return out, err
	}

	imps := 1
	if MatchesTargeting(tag, loc.ConnectionType, loc.Country, attrs.OS, attrs.Type) {
		if placement != nil {
			out.Cost = placement.Payout.Div(perMille)
			out.Revenue = tag.Payout.Div(perMille)
		}
	} else {
		out.Passback = true
		imps = 0
	}

	placementID := ""
	if placement != nil {
		placementID = placement.ID
	}

	err = t.kv.SetMap(ctx, logKey, map[string]any{
		"requests":        1,
		"tag_id":          tag.ID,
		"placement_id":    placementID,
		"publisher_id":    req.PublisherID,
		"imp_time":        req.Timestamp.Unix(),
		"ip":              req.ClientIP(),
		"country":         loc.Country,
		"connection_type": loc.ConnectionType,
		"carrier":         loc.Carrier,
		"user_agent":      attrs.UA,
		"os":              attrs.OS,
		"os_version":      attrs.OSVersion,
		"device":          attrs.Type,
		"device_model":    attrs.Model,
		"device_brand":    attrs.Brand,
		"browser":         attrs.Browser,
		"browser_version": attrs.BrowserVersion,
		"fraud_score":     score,
		"imps":            imps,
		"cost":            out.Cost.InexactFloat64(),
		"revenue":         out.Revenue.InexactFloat64(),
	})
	if err != nil {
		return out, err
	}

	t.debug(ctx, "under_cap")
	t.log.Debug("session log created",
		"session_hash", hash, "tag_id", tag.ID, "passback", out.Passback)

	return out, nil
}

// trackExisting always counts the request; impressions, cost, and revenue
// accrue only while the session is under the tag's frequency cap and
// targeting still matches.
func (t *Tracker) trackExisting(
	ctx context.Context,
	logKey, hash string,
	req *AdRequest,
	tag *catalog.Tag,
	placement *catalog.Placement,
	currentImps int,
) (Outcome, error) {
	out := Outcome{Cost: decimal.Zero, Revenue: decimal.Zero}

	if _, err := t.kv.IncrMapField(ctx, logKey, "requests", 1); err != nil {
		return out, err
	}
	t.debug(ctx, "repeated_imps")

	if tag.FrequencyCap > 0 && currentImps >= tag.FrequencyCap {
		out.Passback = true
	} else {
		t.debug(ctx, "under_cap")

		attrs, loc, _, err := t.detect(ctx, req)
		if err != nil {
			return out, err
		}

		if MatchesTargeting(tag, loc.ConnectionType, loc.Country, attrs.OS, attrs.Type) {
			if placement != nil {
				out.Cost = placement.Payout.Div(perMille)
				out.Revenue = tag.Payout.Div(perMille)

				if _, err := t.kv.IncrMapFieldFloat(ctx, logKey, "cost", out.Cost.InexactFloat64()); err != nil {
					return out, err
				}
				if _, err := t.kv.IncrMapFieldFloat(ctx, logKey, "revenue", out.Revenue.InexactFloat64()); err != nil {
					return out, err
				}
			}
			if _, err := t.kv.IncrMapField(ctx, logKey, "imps", 1); err != nil {
				return out, err
			}
		} else {
			out.Passback = true
		}
	}

	if err := t.kv.AddToSortedSet(ctx, "sessionhashes", req.Timestamp.Unix(), hash); err != nil {
		return out, err
	}

	t.log.Debug("session log incremented",
		"session_hash", hash, "tag_id", tag.ID, "passback", out.Passback)

	return out, nil
}

// detect resolves the device fingerprint (cached), geolocation, and fraud
// score for the request. Geolocation failures degrade to an empty location
// rather than failing the request.
func (t *Tracker) detect(ctx context.Context, req *AdRequest) (device.Attributes, geo.Location, float64, error) {
	attrs, err := t.devices.Resolve(ctx, req.UserAgent, req.Timestamp)
	if err != nil {
		return device.Attributes{}, geo.Location{}, 0, err
	}

	ip := req.ClientIP()
	loc, err := t.geo.Locate(ip)
	if err != nil {
		t.log.Warn("geolocation failed", "ip", ip, "error", err)
		loc = geo.Location{}
	}
	t.debug(ctx, "geodetections")

	return attrs, loc, t.fraud.Score(ip, req.UserAgent), nil
}

func (t *Tracker) debug(ctx context.Context, field string) {
	if !t.debugStats {
		return
	}
	if _, err := t.kv.IncrMapField(ctx, "adstats", field, 1); err != nil {
		t.log.Warn("debug counter failed", "field", field, "error", err)
	}
}

func parseCount(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
