// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fraud is the fraud-scoring collaborator boundary. The score is
// recorded on the session log as a signal for downstream gating; capping
// itself does not act on it.
package fraud

import "github.com/mileusna/useragent"

// Detector scores a request between 0 (clean) and 1 (certain fraud).
type Detector interface {
	Score(ip, userAgent string) float64
}

// Disabled never flags anything.
type Disabled struct{}

func (Disabled) Score(string, string) float64 { return 0 }

// BotHeuristic flags user agents the parser recognizes as crawlers. A cheap
// stand-in for an external scoring service on the same interface.
type BotHeuristic struct{}

func (BotHeuristic) Score(_ string, ua string) float64 {
	if useragent.Parse(ua).Bot {
		return 1
	}
	return 0
}
