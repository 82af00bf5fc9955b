// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package device resolves device attributes from user-agent strings and
// memoizes the results in the shared store, since full detection is
// expensive relative to a cache hit.
package device

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/mileusna/useragent"
)

// Attributes is the detection result for one user-agent string.
type Attributes struct {
	UA             string
	OS             string
	OSVersion      string
	Type           string // device category: smartphone, tablet, desktop, ...
	Model          string
	Brand          string
	Browser        string
	BrowserVersion string
}

// Detector is the external detection collaborator. Implementations must be
// safe for concurrent use.
type Detector interface {
	Detect(userAgent string) Attributes
}

// UAHash is the cache key digest for a user-agent string.
func UAHash(userAgent string) string {
	sum := md5.Sum([]byte(userAgent))
	return hex.EncodeToString(sum[:])
}

// UADetector is the production Detector, backed by the mileusna/useragent
// parser.
type UADetector struct{}

func (UADetector) Detect(ua string) Attributes {
	parsed := useragent.Parse(ua)

	typ := "desktop"
	switch {
	case parsed.Bot:
		typ = "bot"
	case parsed.Tablet:
		typ = "tablet"
	case parsed.Mobile:
		typ = "smartphone"
	}

	brand := ""
	if parsed.Device != "" {
		brand = strings.Fields(parsed.Device)[0]
	}

	return Attributes{
		UA:             ua,
		OS:             parsed.OS,
		OSVersion:      parsed.OSVersion,
		Type:           typ,
		Model:          parsed.Device,
		Brand:          brand,
		Browser:        parsed.Name,
		BrowserVersion: parsed.Version,
	}
}
