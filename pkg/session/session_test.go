// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashDeterministic(t *testing.T) {
	require := require.New(t)
	ts := time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)

	h1 := Hash(ts, "42", "9", "sess-1", "", "")
	h2 := Hash(ts, "42", "9", "sess-1", "", "")
	require.Equal(h1, h2)
	require.Len(h1, 32)

	// same inputs later the same day hash identically
	h3 := Hash(ts.Add(5*time.Hour), "42", "9", "sess-1", "", "")
	require.Equal(h1, h3)
}

func TestHashFallsBackToIPAndUserAgent(t *testing.T) {
	require := require.New(t)
	ts := time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)

	h1 := Hash(ts, "42", "9", "", "203.0.113.10", "Mozilla/5.0")
	h2 := Hash(ts, "42", "9", "", "203.0.113.10", "Mozilla/5.0")
	require.Equal(h1, h2)

	h3 := Hash(ts, "42", "9", "", "203.0.113.11", "Mozilla/5.0")
	require.NotEqual(h1, h3)

	// a supplied session id takes precedence over ip+ua
	h4 := Hash(ts, "42", "9", "sess-1", "203.0.113.10", "Mozilla/5.0")
	h5 := Hash(ts, "42", "9", "sess-1", "203.0.113.99", "curl/8.0")
	require.Equal(h4, h5)
}

func TestHashRollsOverAtUTCDayBoundary(t *testing.T) {
	require := require.New(t)

	before := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)
	after := time.Date(2026, 9, 1, 0, 0, 1, 0, time.UTC)

	require.NotEqual(
		Hash(before, "42", "9", "sess-1", "", ""),
		Hash(after, "42", "9", "sess-1", "", ""),
	)
}

func TestHashUsesUTCNotLocalDay(t *testing.T) {
	require := require.New(t)

	// 2026-08-31 23:30 in UTC-5 is already 2026-09-01 in UTC
	loc := time.FixedZone("UTC-5", -5*3600)
	local := time.Date(2026, 8, 31, 23, 30, 0, 0, loc)
	utc := time.Date(2026, 9, 1, 4, 30, 0, 0, time.UTC)

	require.Equal(
		Hash(utc, "42", "", "sess-1", "", ""),
		Hash(local, "42", "", "sess-1", "", ""),
	)
}

func TestHashSeparatesTagsAndPlacements(t *testing.T) {
	require := require.New(t)
	ts := time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)

	base := Hash(ts, "42", "9", "sess-1", "", "")
	require.NotEqual(base, Hash(ts, "43", "9", "sess-1", "", ""))
	require.NotEqual(base, Hash(ts, "42", "10", "sess-1", "", ""))
	require.NotEqual(base, Hash(ts, "42", "", "sess-1", "", ""))
}
