package service

import (
	"context"
	"time"

	"github.com/adzspec-asad/ai-studio-api/internal/port/messagequeue"
)

// Pinger checks connectivity to the master database. *pgxpool.Pool
// satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService reports process and dependency health.
type HealthService struct {
	db        Pinger
	queue     messagequeue.Queue
	version   string
	startedAt time.Time
}

// NewHealthService creates a health service. queue may be nil when
// messaging is disabled.
func NewHealthService(db Pinger, queue messagequeue.Queue, version string) *HealthService {
	return &HealthService{
		db:        db,
		queue:     queue,
		version:   version,
		startedAt: time.Now(),
	}
}

// Status is the response body for health endpoints.
type Status struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Uptime  string            `json:"uptime"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Liveness reports whether the process is running. It never touches
// dependencies, so a stuck database does not get the process restarted.
func (s *HealthService) Liveness() Status {
	return Status{
		Status:  "ok",
		Version: s.version,
		Uptime:  time.Since(s.startedAt).Round(time.Second).String(),
	}
}

// Readiness reports whether the service can do useful work: the master
// database must answer a ping. The message queue is reported but does
// not fail readiness, tenant routing works without it.
func (s *HealthService) Readiness(ctx context.Context) Status {
	st := s.Liveness()
	st.Checks = map[string]string{"master_db": "ok"}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		st.Status = "degraded"
		st.Checks["master_db"] = err.Error()
	}

	if s.queue != nil {
		st.Checks["nats"] = "ok"
		if !s.queue.IsConnected() {
			st.Checks["nats"] = "disconnected"
		}
	}
	return st
}
