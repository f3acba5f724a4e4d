package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// MetricsHandler serves /metrics in Prometheus text exposition format,
// /healthz, and /connections as a JSON list of live connections.
func (s *Server) MetricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/connections", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.conns.All())
	})
	return mux
}

// serveMetricsHTTP runs the metrics endpoint until ctx is cancelled.
func (s *Server) serveMetricsHTTP(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.MetricsAddr)
	if err != nil {
		return fmt.Errorf("server: listen metrics: %w", err)
	}

	srv := &http.Server{
		Handler:           s.MetricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	slog.Info("metrics HTTP listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: metrics http: %w", err)
	}
	return nil
}

// handleMetrics writes all metrics in Prometheus text exposition format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	m := s.metrics
	uptime := time.Since(m.startTime).Seconds()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	// Write errors to http.ResponseWriter are non-actionable; suppress errcheck.
	write := func(name, help, mtype string, value int64) {
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		_, _ = fmt.Fprintf(w, "%s %d\n", name, value)
	}
	writeFloat := func(name, help, mtype string, value float64) {
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		_, _ = fmt.Fprintf(w, "%s %f\n", name, value)
	}

	writeFloat("linechat_uptime_seconds", "Server uptime in seconds.", "gauge", uptime)

	write("linechat_connections_active", "Current open connections.", "gauge",
		m.ActiveConnections.Load())
	write("linechat_connections_total", "Lifetime TCP connections accepted.", "counter",
		m.TotalConnections.Load())
	write("linechat_disconnects_total", "Connections ended for any reason.", "counter",
		m.TotalDisconnects.Load())
	write("linechat_overflows_total", "Connections dropped for an oversized message.", "counter",
		m.Overflows.Load())
	write("linechat_io_errors_total", "Connections dropped for a transport error.", "counter",
		m.IOErrors.Load())

	write("linechat_requests_total", "Framed requests handled.", "counter",
		m.Requests.Load())
	write("linechat_logins_total", "Successful logins.", "counter",
		m.SuccessfulLogins.Load())
	write("linechat_login_failures_total", "Rejected logins (locked, unknown or already logged in).", "counter",
		m.FailedLogins.Load())
	write("linechat_posts_total", "Accepted posts.", "counter",
		m.PostsAccepted.Load())
	write("linechat_logouts_total", "Successful logouts.", "counter",
		m.Logouts.Load())
	write("linechat_not_logged_in_total", "POST or BYE rejected without a login.", "counter",
		m.NotLoggedIn.Load())
	write("linechat_invalid_requests_total", "Requests that matched no command.", "counter",
		m.InvalidRequests.Load())
}
