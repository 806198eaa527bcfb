package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/guildhall/internal/gateway"
)

const (
	ComponentAPI       = "api"
	ComponentSnapshots = "snapshots"
	ComponentPages     = "pages"
)

// APIHealth reports the upstream API client's view of the API.
type APIHealth interface {
	GetHealth() gateway.HealthStatus
}

// Pinger is a backing store that can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor aggregates health status from the service's dependencies.
type Monitor struct {
	api       APIHealth
	snapshots Pinger
	pages     Pinger
	interval  time.Duration

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport HealthReport
}

// NewMonitor creates a new health monitor. Reports are reused for interval.
func NewMonitor(api APIHealth, snapshots, pages Pinger, interval time.Duration) *Monitor {
	return &Monitor{
		api:       api,
		snapshots: snapshots,
		pages:     pages,
		interval:  interval,
	}
}

// CheckHealth checks every component.
//
// The API alone being unavailable degrades the service: listings fall back
// to snapshots and fixtures, guild pages are served stale. Two or more
// failing components make it critical.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.interval > 0 && time.Since(m.lastCheck) < m.interval && m.lastReport.Components != nil {
		return m.lastReport
	}

	report := HealthReport{
		SystemStatus: StatusHealthy,
		Components:   make(map[string]ComponentHealth, 3),
	}

	api := m.api.GetHealth()
	apiHealth := ComponentHealth{
		Name:      ComponentAPI,
		Status:    StatusHealthy,
		ErrorRate: api.ErrorRate,
		LatencyMS: api.Latency.Milliseconds(),
	}
	if !api.Available {
		apiHealth.Status = StatusDegraded
	}
	report.Components[ComponentAPI] = apiHealth

	report.Components[ComponentSnapshots] = ping(ctx, ComponentSnapshots, m.snapshots)
	report.Components[ComponentPages] = ping(ctx, ComponentPages, m.pages)

	failing := 0
	for _, c := range report.Components {
		if c.Status != StatusHealthy {
			failing++
		}
		report.SystemStatus = worst(report.SystemStatus, c.Status)
	}
	if failing >= 2 {
		report.SystemStatus = StatusCritical
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}

func ping(ctx context.Context, name string, p Pinger) ComponentHealth {
	h := ComponentHealth{Name: name, Status: StatusHealthy}
	if p == nil {
		return h
	}

	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		h.Status = StatusDegraded
		h.Error = err.Error()
	}
	h.LatencyMS = time.Since(start).Milliseconds()
	return h
}
