package entity

import "time"

// PipelineState is the driver's position within a cycle.
type PipelineState string

const (
	StateIdle        PipelineState = "idle"
	StateFetching    PipelineState = "fetching"
	StateExtracting  PipelineState = "extracting"
	StateFiltering   PipelineState = "filtering"
	StateReconciling PipelineState = "reconciling"
	StateStopped     PipelineState = "stopped"
)

// CycleReport summarises one completed pipeline cycle.
type CycleReport struct {
	CycleID   string        `json:"cycle_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Extracted int           `json:"extracted"`
	Accepted  int           `json:"accepted"`
	Inserted  int           `json:"inserted"`
	Notified  int           `json:"notified"`
	Errors    []string      `json:"errors,omitempty"`
	Cancelled bool          `json:"cancelled,omitempty"`
}

// Degraded reports whether any stage of the cycle logged an error.
func (r CycleReport) Degraded() bool {
	return len(r.Errors) > 0
}
