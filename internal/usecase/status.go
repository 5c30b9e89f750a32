package usecase

import (
	"sync"
	"time"

	"github.com/user/dealwatch/internal/entity"
)

// StatusSnapshot is a point-in-time copy of the pipeline status.
type StatusSnapshot struct {
	State         entity.PipelineState `json:"state"`
	CyclesRun     int                  `json:"cycles_run"`
	LastSuccessAt *time.Time           `json:"last_success_at,omitempty"`
	LastCycle     *entity.CycleReport  `json:"last_cycle,omitempty"`
}

// StatusReader exposes the pipeline status to other goroutines.
type StatusReader interface {
	Snapshot() StatusSnapshot
}

// pipelineStatus is written by the pipeline goroutine and read by the ops server.
type pipelineStatus struct {
	mu            sync.RWMutex
	state         entity.PipelineState
	cyclesRun     int
	lastSuccessAt time.Time
	last          *entity.CycleReport
}

func newPipelineStatus() *pipelineStatus {
	return &pipelineStatus{state: entity.StateIdle}
}

func (s *pipelineStatus) set(state entity.PipelineState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *pipelineStatus) finish(r entity.CycleReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cyclesRun++
	s.last = &r
	if !r.Degraded() && !r.Cancelled {
		s.lastSuccessAt = r.StartedAt.Add(r.Duration)
	}
	if s.state != entity.StateStopped {
		s.state = entity.StateIdle
	}
}

func (s *pipelineStatus) Snapshot() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := StatusSnapshot{State: s.state, CyclesRun: s.cyclesRun}
	if !s.lastSuccessAt.IsZero() {
		t := s.lastSuccessAt
		snap.LastSuccessAt = &t
	}
	if s.last != nil {
		r := *s.last
		r.Errors = append([]string(nil), s.last.Errors...)
		snap.LastCycle = &r
	}
	return snap
}
