package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/NicolasHaas/linechat/pkg/protocol"
)

// Metrics tracks server runtime statistics.
// All counters use atomic operations for lock-free concurrent access.
type Metrics struct {
	startTime time.Time

	// Connection counters
	TotalConnections  atomic.Int64 // lifetime TCP connections accepted
	ActiveConnections atomic.Int64 // current open connections
	TotalDisconnects  atomic.Int64 // connections ended for any reason
	Overflows         atomic.Int64 // connections dropped for an oversized message
	IOErrors          atomic.Int64 // connections dropped for a transport error

	// Request counters
	Requests         atomic.Int64 // framed requests handled
	SuccessfulLogins atomic.Int64 // 110
	FailedLogins     atomic.Int64 // 211, 212, 213
	PostsAccepted    atomic.Int64 // 120
	Logouts          atomic.Int64 // 130
	NotLoggedIn      atomic.Int64 // 221
	InvalidRequests  atomic.Int64 // 300
}

// NewMetrics creates a new Metrics instance with the start time set to now.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// ObserveResponse counts one handled request by its response code.
func (m *Metrics) ObserveResponse(resp protocol.Response) {
	m.Requests.Add(1)
	switch resp.Code {
	case protocol.CodeLoginOK:
		m.SuccessfulLogins.Add(1)
	case protocol.CodeAccountLocked, protocol.CodeAccountNotFound, protocol.CodeAlreadyLoggedIn:
		m.FailedLogins.Add(1)
	case protocol.CodePostOK:
		m.PostsAccepted.Add(1)
	case protocol.CodeLogoutOK:
		m.Logouts.Add(1)
	case protocol.CodeNotLoggedIn:
		m.NotLoggedIn.Add(1)
	case protocol.CodeInvalidRequest:
		m.InvalidRequests.Add(1)
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptime_seconds"`

	ActiveConnections int64 `json:"active_connections"`
	TotalConnections  int64 `json:"total_connections"`
	TotalDisconnects  int64 `json:"total_disconnects"`
	Overflows         int64 `json:"overflows"`
	IOErrors          int64 `json:"io_errors"`

	Requests         int64 `json:"requests"`
	SuccessfulLogins int64 `json:"successful_logins"`
	FailedLogins     int64 `json:"failed_logins"`
	PostsAccepted    int64 `json:"posts_accepted"`
	Logouts          int64 `json:"logouts"`
	NotLoggedIn      int64 `json:"not_logged_in"`
	InvalidRequests  int64 `json:"invalid_requests"`
}

// Snapshot returns a read-consistent snapshot of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	uptime := time.Since(m.startTime)
	return MetricsSnapshot{
		Uptime:            uptime.Truncate(time.Second).String(),
		UptimeSeconds:     int64(uptime.Seconds()),
		ActiveConnections: m.ActiveConnections.Load(),
		TotalConnections:  m.TotalConnections.Load(),
		TotalDisconnects:  m.TotalDisconnects.Load(),
		Overflows:         m.Overflows.Load(),
		IOErrors:          m.IOErrors.Load(),
		Requests:          m.Requests.Load(),
		SuccessfulLogins:  m.SuccessfulLogins.Load(),
		FailedLogins:      m.FailedLogins.Load(),
		PostsAccepted:     m.PostsAccepted.Load(),
		Logouts:           m.Logouts.Load(),
		NotLoggedIn:       m.NotLoggedIn.Load(),
		InvalidRequests:   m.InvalidRequests.Load(),
	}
}

// JSON returns the metrics snapshot as a JSON string.
func (m *Metrics) JSON() string {
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// LogSummary writes a metrics summary to the logger.
func (m *Metrics) LogSummary() {
	s := m.Snapshot()
	slog.Info("metrics",
		"uptime", s.Uptime,
		"connections", s.ActiveConnections,
		"total_connections", s.TotalConnections,
		"requests", s.Requests,
		"logins", s.SuccessfulLogins,
		"posts", s.PostsAccepted,
		"invalid", s.InvalidRequests,
	)
}

// RunPeriodicLog logs a summary every interval until ctx is cancelled.
// A non-positive interval returns immediately.
func (m *Metrics) RunPeriodicLog(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.LogSummary()
		}
	}
}
