// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package device

import (
	"context"
	"time"

	"github.com/adxyz/adserve/pkg/log"
	"github.com/adxyz/adserve/pkg/metric"
	"github.com/adxyz/adserve/pkg/store"
)

// Cache memoizes detection results keyed by UAHash. A given hash is detected
// at most once; every later request reads the stored record. No eviction
// happens here — retention is a store-level concern.
type Cache struct {
	kv       store.KV
	detector Detector
	metrics  *metric.Metrics
	log      log.Logger
}

// NewCache creates a fingerprint cache. metrics may be nil.
func NewCache(kv store.KV, detector Detector, metrics *metric.Metrics, logger log.Logger) *Cache {
	return &Cache{kv: kv, detector: detector, metrics: metrics, log: logger}
}

// Resolve returns the attributes for userAgent, detecting and persisting
// them on first sight. On a miss the hash is also appended to the `uas`
// index so the extraction job can find new fingerprints.
func (c *Cache) Resolve(ctx context.Context, userAgent string, ts time.Time) (Attributes, error) {
	hash := UAHash(userAgent)

	m, err := c.kv.GetMap(ctx, "ua:"+hash)
	if err != nil {
		return Attributes{}, err
	}
	if len(m) > 0 {
		c.metrics.DeviceLookup(true)
		return attributesFromMap(m), nil
	}

	attrs := c.detector.Detect(userAgent)
	c.metrics.DeviceLookup(false)
	c.log.Debug("device detected", "ua_hash", hash, "os", attrs.OS, "type", attrs.Type)

	if err := c.kv.SetMap(ctx, "ua:"+hash, map[string]any{
		"ua":              attrs.UA,
		"os":              attrs.OS,
		"os_version":      attrs.OSVersion,
		"device":          attrs.Type,
		"device_model":    attrs.Model,
		"device_brand":    attrs.Brand,
		"browser":         attrs.Browser,
		"browser_version": attrs.BrowserVersion,
	}); err != nil {
		return Attributes{}, err
	}
	if err := c.kv.AddToSortedSet(ctx, "uas", ts.Unix(), hash); err != nil {
		return Attributes{}, err
	}

	return attrs, nil
}

func attributesFromMap(m map[string]string) Attributes {
	return Attributes{
		UA:             m["ua"],
		OS:             m["os"],
		OSVersion:      m["os_version"],
		Type:           m["device"],
		Model:          m["device_model"],
		Brand:          m["device_brand"],
		Browser:        m["browser"],
		BrowserVersion: m["browser_version"],
	}
}
