package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/google/uuid"

	"github.com/NicolasHaas/linechat/pkg/logging"
	"github.com/NicolasHaas/linechat/pkg/protocol"
)

// handleConn runs one connection: banner, then one response per framed
// request until the peer goes away or sends an oversized message.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	id := uuid.NewString()
	remote := conn.RemoteAddr().String()
	log := slog.With(logging.KeyConn, id, logging.KeyRemote, remote)

	s.conns.Add(id, conn)
	defer s.conns.Remove(id)
	// Shutdown may have swept the registry before Add.
	if ctx.Err() != nil {
		return
	}

	s.metrics.TotalConnections.Add(1)
	s.metrics.ActiveConnections.Add(1)
	defer func() {
		s.metrics.ActiveConnections.Add(-1)
		s.metrics.TotalDisconnects.Add(1)
	}()
	log.Debug("client connected")

	if err := protocol.WriteResponse(conn, protocol.RespConnected); err != nil {
		s.endConn(ctx, log, err)
		return
	}

	sess := NewSession(s.accounts)
	framer := protocol.NewFramer(conn)
	for {
		msg, err := framer.ReadMessage()
		if err != nil {
			s.endConn(ctx, log, err)
			return
		}

		req := string(msg)
		resp := sess.Handle(req)
		s.metrics.ObserveResponse(resp)

		switch resp.Code {
		case protocol.CodeLoginOK:
			log.Info("user logged in", logging.KeyUser, sess.Username())
		case protocol.CodeLogoutOK:
			log.Info("user logged out")
		default:
			log.Debug("request handled", "request", req, "code", resp.Code, logging.KeyUser, sess.Username())
		}

		if err := s.transcript.Record(remote, req, resp.String()); err != nil {
			log.Error("transcript write failed", logging.KeyErr, err)
		}
		if err := protocol.WriteResponse(conn, resp); err != nil {
			s.endConn(ctx, log, err)
			return
		}
	}
}

// endConn logs why a connection ended and counts abnormal endings.
func (s *Server) endConn(ctx context.Context, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, protocol.ErrClosed):
		log.Info("client disconnected")
	case errors.Is(err, protocol.ErrOverflow):
		s.metrics.Overflows.Add(1)
		log.Warn("message exceeds buffer, dropping connection", "limit", protocol.MaxMessageSize)
	case ctx.Err() != nil:
		log.Debug("connection closed by shutdown")
	case isClosedErr(err):
		log.Debug("connection closed")
	default:
		s.metrics.IOErrors.Add(1)
		log.Error("connection error", logging.KeyErr, err)
	}
}

func isClosedErr(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}
