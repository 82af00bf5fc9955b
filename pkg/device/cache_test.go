// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package device

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/adxyz/adserve/pkg/log"
	"github.com/adxyz/adserve/pkg/store"
)

// countingDetector records how many times it runs.
type countingDetector struct {
	calls int
	attrs Attributes
}

func (d *countingDetector) Detect(ua string) Attributes {
	d.calls++
	a := d.attrs
	a.UA = ua
	return a
}

func newTestCache(t *testing.T) (*Cache, *countingDetector, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	det := &countingDetector{attrs: Attributes{
		OS:             "Android",
		OSVersion:      "14",
		Type:           "smartphone",
		Model:          "Pixel 8",
		Brand:          "Pixel",
		Browser:        "Chrome",
		BrowserVersion: "120.0",
	}}

	return NewCache(store.NewRedis(client), det, nil, log.NoLog), det, mr
}

func TestResolveDetectsAtMostOnce(t *testing.T) {
	require := require.New(t)
	cache, det, _ := newTestCache(t)
	ctx := context.Background()
	ts := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	const ua = "Mozilla/5.0 (Linux; Android 14; Pixel 8) Chrome/120.0"

	first, err := cache.Resolve(ctx, ua, ts)
	require.NoError(err)
	require.Equal(1, det.calls)
	require.Equal("smartphone", first.Type)
	require.Equal(ua, first.UA)

	second, err := cache.Resolve(ctx, ua, ts.Add(time.Hour))
	require.NoError(err)
	require.Equal(1, det.calls, "second resolve must come from cache")
	require.Equal(first, second)
}

func TestResolveAppendsFingerprintIndex(t *testing.T) {
	require := require.New(t)
	cache, _, mr := newTestCache(t)
	ctx := context.Background()
	ts := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	const ua = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0) Safari/605.1"
	_, err := cache.Resolve(ctx, ua, ts)
	require.NoError(err)

	hash := UAHash(ua)
	require.True(mr.Exists("ua:" + hash))

	members, err := mr.ZMembers("uas")
	require.NoError(err)
	require.Equal([]string{hash}, members)

	// cache hits do not grow the index
	_, err = cache.Resolve(ctx, ua, ts.Add(time.Minute))
	require.NoError(err)
	members, err = mr.ZMembers("uas")
	require.NoError(err)
	require.Len(members, 1)
}

func TestUADetectorCategories(t *testing.T) {
	require := require.New(t)
	det := UADetector{}

	phone := det.Detect("Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36")
	require.Equal("smartphone", phone.Type)
	require.Equal("Android", phone.OS)

	tablet := det.Detect("Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
	require.Equal("tablet", tablet.Type)

	desktop := det.Detect("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	require.Equal("desktop", desktop.Type)
}
