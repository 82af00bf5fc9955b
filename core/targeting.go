// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"strings"

	"github.com/adxyz/adserve/pkg/catalog"
)

// MatchesTargeting evaluates a tag's four targeting rules against the
// observed request attributes. Rules AND together and short-circuit on the
// first miss. A rule passes when the tag field is empty, the "-" wildcard,
// or equals the observed value; comparison is case-insensitive.
//
// The device rule additionally understands two named groups:
// "mobile" covers phablet and smartphone, "mobile+tablet" adds tablet.
func MatchesTargeting(tag *catalog.Tag, connectionType, country, os, device string) bool {
	if !ruleMatches(tag.ConnectionType, connectionType) {
		return false
	}
	if !ruleMatches(tag.Country, country) {
		return false
	}
	if !ruleMatches(tag.OS, os) {
		return false
	}
	return deviceRuleMatches(tag.Device, device)
}

func ruleMatches(rule, observed string) bool {
	if rule == "" || rule == catalog.Wildcard {
		return true
	}
	return strings.EqualFold(rule, observed)
}

func deviceRuleMatches(rule, device string) bool {
	device = strings.ToLower(device)

	switch strings.ToLower(rule) {
	case "mobile+tablet":
		return device == "phablet" || device == "smartphone" || device == "tablet"
	case "mobile":
		return device == "phablet" || device == "smartphone"
	default:
		return ruleMatches(rule, device)
	}
}
