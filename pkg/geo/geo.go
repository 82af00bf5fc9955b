// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package geo is the IP-geolocation collaborator boundary. The decision
// engine consumes only the resolved Location; database internals stay here.
package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Location is the geolocation result for one IP address. Fields the backing
// database cannot resolve are empty, which targeting treats as non-matching
// against a concrete rule.
type Location struct {
	Country        string // ISO 3166-1 alpha-2
	ConnectionType string
	Carrier        string
}

// Locator resolves the source location of a request. Implementations must be
// safe for concurrent use.
type Locator interface {
	Locate(ip string) (Location, error)
}

// Static is a Locator that always returns the same location. Used when no
// geolocation database is configured, and as a test double.
type Static struct {
	Location Location
}

func (s Static) Locate(string) (Location, error) {
	return s.Location, nil
}

// MaxMind is the production Locator on a GeoIP2 country database.
type MaxMind struct {
	reader *geoip2.Reader
}

// OpenMaxMind opens a GeoIP2 database file.
func OpenMaxMind(path string) (*MaxMind, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &MaxMind{reader: reader}, nil
}

func (m *MaxMind) Locate(ip string) (Location, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Location{}, fmt.Errorf("invalid ip %q", ip)
	}

	rec, err := m.reader.Country(parsed)
	if err != nil {
		return Location{}, err
	}

	return Location{Country: rec.Country.IsoCode}, nil
}

// Close releases the database reader.
func (m *MaxMind) Close() error {
	return m.reader.Close()
}
