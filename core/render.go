// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"regexp"
	"strings"
)

// View selects how the creative payload is delivered to the page.
type View string

const (
	// ViewInline returns the creative markup as-is (iframe-style body).
	ViewInline View = "inline"
	// ViewJS wraps the creative in a document.write script.
	ViewJS View = "js"
	// ViewJS2 wraps the creative in a DOM-injection script for pages that
	// forbid document.write.
	ViewJS2 View = "js2"
)

func viewForTagType(tagType string) View {
	switch tagType {
	case "js":
		return ViewJS
	case "js2":
		return ViewJS2
	default:
		return ViewInline
	}
}

// qsMacroName matches request parameters eligible for creative macro
// substitution.
var qsMacroName = regexp.MustCompile(`^QS[A-Za-z0-9_]+$`)

// substituteQueryMacros replaces every {QSfoo} placeholder whose parameter
// was supplied on the request. Placeholders with no matching parameter are
// left untouched, not dropped.
func substituteQueryMacros(code string, params map[string]string) string {
	for name, value := range params {
		if qsMacroName.MatchString(name) {
			code = strings.ReplaceAll(code, "{"+name+"}", value)
		}
	}
	return code
}

// substitutePublisher resolves the {pubid} placeholder. It applies to all
// delivered creatives, passback included.
func substitutePublisher(code, publisherID string) string {
	if publisherID == "" {
		return code
	}
	return strings.ReplaceAll(code, "{pubid}", publisherID)
}
