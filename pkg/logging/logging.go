// Package logging sets up log/slog for the linechat server and client.
//
// Operational events (connections, logins, store reloads, metrics summaries)
// go through slog with the shared attribute keys below. The per-exchange
// request log kept for auditing is separate: see Transcript.
//
//	if err := logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
//		return err
//	}
//	slog.Info("user logged in", logging.KeyConn, id, logging.KeyUser, name)
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Attribute keys shared by server and client log lines.
const (
	KeyConn   = "conn"   // per-connection id
	KeyRemote = "remote" // peer address
	KeyUser   = "user"   // logged-in username
	KeyErr    = "err"
)

// Handler formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options selects verbosity, handler format and destination.
// Zero values mean info level, text format, stdout.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// ParseLevel maps a level name to slog.Level, falling back to info.
func ParseLevel(level string) slog.Level {
	switch normalize(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger without installing it. Debug level adds source
// positions, which helps when tracing a single connection's framing.
func New(opts Options) (*slog.Logger, error) {
	if err := Validate(opts.Level); err != nil {
		return nil, err
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	level := ParseLevel(opts.Level)
	ho := &slog.HandlerOptions{Level: level, AddSource: level == slog.LevelDebug}

	switch normalize(opts.Format) {
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(out, ho)), nil
	case FormatText, "":
		return slog.New(slog.NewTextHandler(out, ho)), nil
	default:
		return nil, fmt.Errorf("logging: unknown format %q (valid: %s, %s)", opts.Format, FormatText, FormatJSON)
	}
}

// Setup installs the logger from opts as slog's default. Both binaries call
// it once, right after flag parsing.
func Setup(opts Options) error {
	logger, err := New(opts)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

// LevelNames lists the accepted level names for flag help text.
func LevelNames() string {
	return "debug, info, warn, error"
}

// Validate rejects level names ParseLevel would silently map to info.
func Validate(level string) error {
	switch normalize(level) {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("logging: unknown level %q (valid: %s)", level, LevelNames())
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
