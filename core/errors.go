// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import "net/http"

// Failure is the structured result for a request the engine cannot serve.
// Failures are returned, never panicked, and carry a machine-readable code
// alongside the HTTP status.
type Failure struct {
	Message string
	Code    string
	Status  int
}

func (f *Failure) Error() string {
	return f.Message + " (" + f.Code + ")"
}

// The warning codes are stable identifiers consumed by monitoring; the
// letter suffix distinguishes the failing step.
func badRequest() *Failure {
	return &Failure{Message: "Bad request", Code: "M000000A", Status: http.StatusBadRequest}
}

func tagMissing() *Failure {
	return &Failure{Message: "Tag not found", Code: "M000001A", Status: http.StatusNotFound}
}

func tagUnresolvable() *Failure {
	return &Failure{Message: "Tag not found", Code: "M000002A", Status: http.StatusNotFound}
}

func noCreativeMatched() *Failure {
	return &Failure{Message: "No creative matched", Code: "M000003A", Status: http.StatusNotFound}
}
