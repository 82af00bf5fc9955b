// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"context"
	"time"

	"github.com/adxyz/adserve/pkg/session"
	"github.com/adxyz/adserve/pkg/store"
)

// Aggregator maintains the daily per-tag and per-placement rollups plus the
// auxiliary indices the ETL extraction reads. Buckets only ever grow: every
// request increments requests, and imps/cost/revenue increment by zero on
// passback rather than being skipped, so a bucket exists for every active
// (entity, date).
type Aggregator struct {
	kv store.KV
}

// NewAggregator creates a counter aggregator on the given KV.
func NewAggregator(kv store.KV) *Aggregator {
	return &Aggregator{kv: kv}
}

// Record applies one request outcome to the tag bucket and, when a
// placement is present, the placement bucket, then updates the per-date tag
// index and the active-dates set. date is the request day as YYYYMMDD.
func (a *Aggregator) Record(
	ctx context.Context,
	tagID, placementID, date string,
	out Outcome,
	ts time.Time,
) error {
	imp := int64(1)
	cost := out.Cost.InexactFloat64()
	revenue := out.Revenue.InexactFloat64()
	unique := 1
	if out.Passback {
		imp, cost, revenue, unique = 0, 0, 0, 0
	}

	if placementID != "" {
		if err := a.bucket(ctx, "req:p:"+placementID+":"+date, out.First, imp, cost, revenue, unique); err != nil {
			return err
		}
	}
	if err := a.bucket(ctx, "req:t:"+tagID+":"+date, out.First, imp, cost, revenue, unique); err != nil {
		return err
	}

	if err := a.kv.AddToSortedSet(ctx, "tags:"+date, ts.Unix(), tagID); err != nil {
		return err
	}
	return a.kv.AddToSet(ctx, "dates", ts.UTC().Format(session.DayFormat))
}

// bucket applies one outcome to a single daily counter record. unique_imps
// is create-if-absent: the first request of the first session that day wins
// and later sessions never touch it again.
func (a *Aggregator) bucket(
	ctx context.Context,
	key string,
	first bool,
	imp int64,
	cost, revenue float64,
	unique int,
) error {
	if first {
		if _, err := a.kv.SetMapFieldNX(ctx, key, "unique_imps", unique); err != nil {
			return err
		}
	}
	if _, err := a.kv.IncrMapField(ctx, key, "requests", 1); err != nil {
		return err
	}
	if _, err := a.kv.IncrMapField(ctx, key, "imps", imp); err != nil {
		return err
	}
	if _, err := a.kv.IncrMapFieldFloat(ctx, key, "cost", cost); err != nil {
		return err
	}
	_, err := a.kv.IncrMapFieldFloat(ctx, key, "revenue", revenue)
	return err
}
