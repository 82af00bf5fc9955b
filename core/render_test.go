// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubstituteQueryMacros(t *testing.T) {
	require := require.New(t)

	code := `<script src="https://ads.example.com/t?sub={QSsub_id}&site={QSsite}&keep={QSabsent}"></script>`
	params := map[string]string{
		"QSsub_id": "abc123",
		"QSsite":   "news",
		"pid":      "9",    // not a macro parameter
		"QS":       "bare", // bare prefix is not a macro name
	}

	got := substituteQueryMacros(code, params)
	require.Contains(got, "sub=abc123")
	require.Contains(got, "site=news")
	require.Contains(got, "keep={QSabsent}", "unresolved placeholders stay untouched")
	require.NotContains(got, "{QSsub_id}")
}

func TestSubstitutePublisher(t *testing.T) {
	require := require.New(t)

	code := `<img src="https://ads.example.com/p?pub={pubid}">`
	require.Contains(substitutePublisher(code, "pub-7"), "pub=pub-7")
	// with no publisher id the placeholder stays, it is not dropped
	require.Contains(substitutePublisher(code, ""), "{pubid}")
}

func TestViewForTagType(t *testing.T) {
	require := require.New(t)

	require.Equal(ViewInline, viewForTagType(""))
	require.Equal(ViewJS, viewForTagType("js"))
	require.Equal(ViewJS2, viewForTagType("js2"))
	require.Equal(ViewInline, viewForTagType("banner"))
}
