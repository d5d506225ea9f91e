// Package exerciser drives the authenticated browser session through the
// link sweep and the per-resource CRUD sequence, emitting one TestResult per
// attempted operation.
package exerciser

import (
	"time"
)

// Status is the outcome category of one attempted operation.
type Status string

const (
	StatusPass     Status = "PASS"
	StatusFail     Status = "FAIL"
	StatusError    Status = "ERROR"
	StatusExternal Status = "EXTERNAL"
	StatusUnknown  Status = "UNKNOWN"
)

// Result type strings. These are report-stable identifiers consumed by
// downstream tooling; do not rename.
const (
	TypeRouteLink = "route_link_test"
	TypeCreate    = "crud_create"
	TypeRead      = "crud_read"
	TypeUpdate    = "crud_update"
	TypeDelete    = "crud_delete"
	TypeForm      = "form_submission_test"
	TypeOperation = "operation_" // prefix, completed with the op name
)

// TestResult is one output row: what was attempted, against which target,
// and how it went. Created once per attempt and never mutated after.
type TestResult struct {
	Type         string
	SourceURL    string
	TargetURL    string
	Label        string
	Status       Status
	ResponseTime time.Duration
	ErrorMessage string
	Timestamp    time.Time
}

// Phase names the run's current stage for progress consumers.
type Phase string

const (
	PhaseLogin Phase = "login"
	PhaseLinks Phase = "links"
	PhaseCrud  Phase = "crud"
	PhaseDone  Phase = "done"
)

// Counters summarize the run so far.
type Counters struct {
	RoutesTested   int
	FormsSubmitted int
	Passed         int
	Failed         int
	Errored        int
}

func (c *Counters) observe(r TestResult) {
	c.RoutesTested++
	switch r.Status {
	case StatusPass:
		c.Passed++
	case StatusError:
		c.Errored++
	case StatusFail:
		c.Failed++
	}
	if r.Type == TypeCreate || r.Type == TypeUpdate || r.Type == TypeForm {
		c.FormsSubmitted++
	}
}

// ProgressEvent is the message the worker publishes to the hosting UI. The
// consumer subscribes to the channel; it never reaches into worker state.
type ProgressEvent struct {
	Phase    Phase
	Counters Counters
	Latest   *TestResult
}
