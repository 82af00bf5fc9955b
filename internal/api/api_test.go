// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/adxyz/adserve/core"
	"github.com/adxyz/adserve/pkg/catalog"
	"github.com/adxyz/adserve/pkg/device"
	"github.com/adxyz/adserve/pkg/fraud"
	"github.com/adxyz/adserve/pkg/geo"
	"github.com/adxyz/adserve/pkg/log"
	"github.com/adxyz/adserve/pkg/metric"
	"github.com/adxyz/adserve/pkg/store"
)

func newTestServer(t *testing.T) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	kv := store.NewRedis(client)
	metrics := metric.New()
	devices := device.NewCache(kv, device.UADetector{}, metrics, log.NoLog)
	tracker := core.NewTracker(kv, devices, geo.Static{}, fraud.Disabled{}, log.NoLog, false)
	engine := core.NewEngine(catalog.NewStore(kv), tracker, metrics, log.NoLog)
	events := core.NewEventLog(kv, metrics, log.NoLog)

	return NewServer(engine, events, metrics, log.NoLog).Routes(), mr
}

func doGet(r *gin.Engine, path, ua, xff string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0.0.0 Safari/537.36"

func TestAdInline(t *testing.T) {
	require := require.New(t)
	r, mr := newTestServer(t)

	mr.HSet("tag:42", "code", `<div data-pub="{pubid}">ad</div>`, "payout", "5.00")

	w := doGet(r, "/ad/42?pubid=pub-1&session_id=s1", browserUA, "203.0.113.10")
	require.Equal(http.StatusOK, w.Code)
	require.Contains(w.Header().Get("Content-Type"), "text/html")
	require.Equal(`<div data-pub="pub-1">ad</div>`, w.Body.String())
	require.NotEmpty(w.Header().Get("X-Request-ID"))
}

func TestAdJSWrapper(t *testing.T) {
	require := require.New(t)
	r, mr := newTestServer(t)

	mr.HSet("tag:42", "code", "<div>it's an ad</div>", "payout", "5.00")

	w := doGet(r, "/ad/js/42?session_id=s1", browserUA, "203.0.113.10")
	require.Equal(http.StatusOK, w.Code)
	require.Contains(w.Header().Get("Content-Type"), "application/javascript")
	require.Equal(`document.write('<div>it\'s an ad<\/div>');`, w.Body.String())
}

func TestAdJS2Wrapper(t *testing.T) {
	require := require.New(t)
	r, mr := newTestServer(t)

	mr.HSet("tag:42", "code", "<div>ad</div>", "payout", "5.00")

	w := doGet(r, "/ad/js2/42?session_id=s1", browserUA, "203.0.113.10")
	require.Equal(http.StatusOK, w.Code)
	require.Contains(w.Body.String(), "innerHTML")
	require.NotContains(w.Body.String(), "document.write")
}

func TestAdMissingUserAgent(t *testing.T) {
	require := require.New(t)
	r, mr := newTestServer(t)

	mr.HSet("tag:42", "code", "<div>ad</div>")

	w := doGet(r, "/ad/42", "", "203.0.113.10")
	require.Equal(http.StatusBadRequest, w.Code)
	require.Contains(w.Body.String(), "M000000A")
}

func TestAdUnknownTag(t *testing.T) {
	require := require.New(t)
	r, _ := newTestServer(t)

	w := doGet(r, "/ad/999", browserUA, "203.0.113.10")
	require.Equal(http.StatusNotFound, w.Code)
	require.Contains(w.Body.String(), "M000002A")
}

func TestClickServesPixel(t *testing.T) {
	require := require.New(t)
	r, mr := newTestServer(t)

	w := doGet(r, "/click/clk-1", browserUA, "")
	require.Equal(http.StatusOK, w.Code)
	require.Equal("image/gif", w.Header().Get("Content-Type"))
	require.Equal("1", mr.HGet("click:clk-1", "count"))
}

func TestConversionLogs(t *testing.T) {
	require := require.New(t)
	r, mr := newTestServer(t)

	w := doGet(r, "/conv/clk-1", browserUA, "")
	require.Equal(http.StatusOK, w.Code)
	require.Equal("1", mr.HGet("conv:clk-1", "count"))
}

func TestHealthAndMetrics(t *testing.T) {
	require := require.New(t)
	r, _ := newTestServer(t)

	w := doGet(r, "/healthz", browserUA, "")
	require.Equal(http.StatusOK, w.Code)

	w = doGet(r, "/metrics", browserUA, "")
	require.Equal(http.StatusOK, w.Code)
	require.Contains(w.Body.String(), "adserve_clicks_logged_total")
}
