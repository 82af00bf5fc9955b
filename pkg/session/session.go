// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package session derives the deterministic key that binds a browsing
// session to its capping and attribution state.
package session

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// DayFormat is the calendar-day component of the session key.
const DayFormat = "2006-01-02"

// Hash computes the session key for a request. When the client supplied a
// session id the key is digest(day + tagID + placementID + sessionID);
// otherwise digest(day + tagID + placementID + ip + userAgent). The day is
// the request timestamp truncated to a UTC calendar day, so a session never
// spans a day boundary.
//
// The day is deliberately UTC, not server-local: local time made the key
// depend on which host served the request.
func Hash(ts time.Time, tagID, placementID, sessionID, ip, userAgent string) string {
	day := ts.UTC().Format(DayFormat)

	h := md5.New()
	h.Write([]byte(day))
	h.Write([]byte(tagID))
	h.Write([]byte(placementID))
	if sessionID != "" {
		h.Write([]byte(sessionID))
	} else {
		h.Write([]byte(ip))
		h.Write([]byte(userAgent))
	}

	return hex.EncodeToString(h.Sum(nil))
}
