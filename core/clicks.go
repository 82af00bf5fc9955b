// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"context"
	"time"

	"github.com/adxyz/adserve/pkg/log"
	"github.com/adxyz/adserve/pkg/metric"
	"github.com/adxyz/adserve/pkg/store"
)

// EventLog records click and conversion events. Both are logic-free:
// increment the event record, stamp first/last seen, append to the
// extraction index.
type EventLog struct {
	kv      store.KV
	metrics *metric.Metrics
	log     log.Logger
}

// NewEventLog creates a click/conversion logger. metrics may be nil.
func NewEventLog(kv store.KV, metrics *metric.Metrics, logger log.Logger) *EventLog {
	return &EventLog{kv: kv, metrics: metrics, log: logger}
}

// LogClick records one click against its click id.
func (l *EventLog) LogClick(ctx context.Context, clickID string, ts time.Time) *Failure {
	if clickID == "" {
		return badRequest()
	}
	if err := l.logEvent(ctx, "click:"+clickID, "clicks", clickID, ts); err != nil {
		l.log.Error("click log failed", "click_id", clickID, "error", err)
		return &Failure{Message: "Internal error", Code: "M000004A", Status: 500}
	}
	l.metrics.ClickLogged()
	return nil
}

// LogConversion records one conversion against the click id that led to it.
func (l *EventLog) LogConversion(ctx context.Context, clickID string, ts time.Time) *Failure {
	if clickID == "" {
		return badRequest()
	}
	if err := l.logEvent(ctx, "conv:"+clickID, "convs", clickID, ts); err != nil {
		l.log.Error("conversion log failed", "click_id", clickID, "error", err)
		return &Failure{Message: "Internal error", Code: "M000004A", Status: 500}
	}
	l.metrics.ConversionLogged()
	return nil
}

func (l *EventLog) logEvent(ctx context.Context, key, index, id string, ts time.Time) error {
	if _, err := l.kv.IncrMapField(ctx, key, "count", 1); err != nil {
		return err
	}
	if _, err := l.kv.SetMapFieldNX(ctx, key, "first_time", ts.Unix()); err != nil {
		return err
	}
	if err := l.kv.SetMapField(ctx, key, "last_time", ts.Unix()); err != nil {
		return err
	}
	return l.kv.AddToSortedSet(ctx, index, ts.Unix(), id)
}
