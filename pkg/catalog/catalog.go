// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package catalog provides read-only access to Tag and Placement records.
// Records are created and updated by the management system; this side never
// writes them.
package catalog

import (
	"context"
	"errors"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/adxyz/adserve/pkg/store"
)

var (
	ErrTagNotFound       = errors.New("tag not found")
	ErrPlacementNotFound = errors.New("placement not found")
)

// Wildcard is the match-any sentinel on targeting fields. An empty field
// means the same thing.
const Wildcard = "-"

// ShowAllPassback is the passback sentinel meaning "re-render the tag's own
// creative".
const ShowAllPassback = "{show_all}"

// Tag is a creative definition with targeting rules and payout. Payout is
// revenue per thousand impressions.
type Tag struct {
	ID             string
	Code           string
	FrequencyCap   int // 0 = uncapped
	ConnectionType string
	Country        string
	OS             string
	Device         string
	Payout         decimal.Decimal
	PassbackTag    string
}

// Placement is a publisher-side ad slot. Payout is cost per thousand
// impressions.
type Placement struct {
	ID           string
	Payout       decimal.Decimal
	PricingModel string
	FrequencyCap int
}

// Store reads catalog records from the key-value store.
type Store struct {
	kv store.KV
}

// NewStore creates a catalog store on the given KV.
func NewStore(kv store.KV) *Store {
	return &Store{kv: kv}
}

// Tag resolves tag:<id>. Returns ErrTagNotFound for a missing record.
func (s *Store) Tag(ctx context.Context, id string) (*Tag, error) {
	m, err := s.kv.GetMap(ctx, "tag:"+id)
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, ErrTagNotFound
	}

	return &Tag{
		ID:             id,
		Code:           m["code"],
		FrequencyCap:   parseInt(m["frequency_cap"]),
		ConnectionType: m["connection_type"],
		Country:        m["country"],
		OS:             m["os"],
		Device:         m["device"],
		Payout:         parseDecimal(m["payout"]),
		PassbackTag:    m["passback_tag"],
	}, nil
}

// Placement resolves placement:<id>. Returns ErrPlacementNotFound for a
// missing record; callers treat that as "no placement supplied".
func (s *Store) Placement(ctx context.Context, id string) (*Placement, error) {
	m, err := s.kv.GetMap(ctx, "placement:"+id)
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, ErrPlacementNotFound
	}

	return &Placement{
		ID:           id,
		Payout:       parseDecimal(m["payout"]),
		PricingModel: m["pricing_model"],
		FrequencyCap: parseInt(m["frequency_cap"]),
	}, nil
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
