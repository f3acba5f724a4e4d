package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
)

// accountWatcher is implemented by stores that can follow their backing file.
type accountWatcher interface {
	Watch(ctx context.Context) error
}

// Run binds the listener and serves until ctx is cancelled or a component
// fails. The metrics endpoint, periodic metrics log and account watcher run
// alongside the accept loop when configured.
func (s *Server) Run(ctx context.Context) error {
	if s.accounts == nil {
		return fmt.Errorf("server: missing accounts dependency")
	}
	ln, err := s.Listen()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Serve(ctx, ln)
	})
	if s.cfg.MetricsAddr != "" {
		g.Go(func() error {
			return s.serveMetricsHTTP(ctx)
		})
	}
	g.Go(func() error {
		s.metrics.RunPeriodicLog(ctx, s.cfg.MetricsLogInterval)
		return nil
	})
	if s.cfg.WatchAccounts {
		w, ok := s.accounts.(accountWatcher)
		if !ok {
			slog.Warn("account store cannot be watched, ignoring watch_accounts")
		} else {
			g.Go(func() error {
				return w.Watch(ctx)
			})
		}
	}

	slog.Info("linechat server running",
		"addr", ln.Addr().String(),
		"metrics", s.cfg.MetricsAddr,
		"max_conns", s.cfg.MaxConns,
	)
	err = g.Wait()
	slog.Info("server stopped")
	return err
}

// Serve accepts connections on ln until ctx is cancelled or ln is closed,
// then closes every live connection and waits for their goroutines.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.accounts == nil {
		return fmt.Errorf("server: missing accounts dependency")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	// Transient accept failures (e.g. EMFILE) back off instead of spinning.
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = 5 * time.Millisecond
	retry.MaxInterval = time.Second
	retry.MaxElapsedTime = 0

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			wait := retry.NextBackOff()
			slog.Error("accept error", "err", err, "retry_in", wait)
			select {
			case <-ctx.Done():
			case <-time.After(wait):
			}
			continue
		}
		retry.Reset()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}

	cancel()
	s.conns.CloseAll()
	s.wg.Wait()
	return nil
}
