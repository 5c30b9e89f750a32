package response

import (
	"time"

	"github.com/user/dealwatch/internal/usecase"
)

type HealthResponse struct {
	Status string `json:"status"` // "ok" or "unhealthy"
	Store  string `json:"store"`
}

// CycleResponse is a DTO for the last cycle, mirroring entity.CycleReport.
type CycleResponse struct {
	CycleID    string    `json:"cycle_id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Extracted  int       `json:"extracted"`
	Accepted   int       `json:"accepted"`
	Inserted   int       `json:"inserted"`
	Notified   int       `json:"notified"`
	Errors     []string  `json:"errors,omitempty"`
	Cancelled  bool      `json:"cancelled,omitempty"`
}

type StatusResponse struct {
	State         string         `json:"state"` // "idle", "fetching", ..., "stopped"
	CyclesRun     int            `json:"cycles_run"`
	LastSuccessAt *time.Time     `json:"last_success_at,omitempty"`
	LastCycle     *CycleResponse `json:"last_cycle,omitempty"`
}

// NewStatusResponse converts a status snapshot to its wire form.
func NewStatusResponse(s usecase.StatusSnapshot) StatusResponse {
	resp := StatusResponse{
		State:         string(s.State),
		CyclesRun:     s.CyclesRun,
		LastSuccessAt: s.LastSuccessAt,
	}
	if c := s.LastCycle; c != nil {
		resp.LastCycle = &CycleResponse{
			CycleID:    c.CycleID,
			StartedAt:  c.StartedAt,
			DurationMS: c.Duration.Milliseconds(),
			Extracted:  c.Extracted,
			Accepted:   c.Accepted,
			Inserted:   c.Inserted,
			Notified:   c.Notified,
			Errors:     c.Errors,
			Cancelled:  c.Cancelled,
		}
	}
	return resp
}
