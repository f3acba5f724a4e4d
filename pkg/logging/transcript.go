package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// TimestampLayout is the transcript timestamp format (dd/mm/yyyy hh:mm:ss).
const TimestampLayout = "02/01/2006 15:04:05"

// Transcript appends one line per request/response exchange:
//
//	[dd/mm/yyyy hh:mm:ss]$client_addr$request$response
//
// It is safe for concurrent use by many connection goroutines.
type Transcript struct {
	mu  sync.Mutex
	w   io.Writer
	c   io.Closer
	now func() time.Time
}

// OpenTranscript opens (or creates) path in append mode.
func OpenTranscript(path string) (*Transcript, error) {
	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600) //nolint:gosec // path from server config
	if err != nil {
		return nil, fmt.Errorf("logging: open transcript: %w", err)
	}
	return &Transcript{w: fh, c: fh, now: time.Now}, nil
}

// NewTranscript writes transcript lines to w using clock now (time.Now if nil).
func NewTranscript(w io.Writer, now func() time.Time) *Transcript {
	if now == nil {
		now = time.Now
	}
	return &Transcript{w: w, now: now}
}

// Record writes one exchange. CR and LF inside fields are escaped so that
// every exchange stays on one line. A nil Transcript discards the record.
func (t *Transcript) Record(clientAddr, request, response string) error {
	if t == nil {
		return nil
	}
	line := fmt.Sprintf("[%s]$%s$%s$%s\n",
		t.now().Format(TimestampLayout), clientAddr, escapeLine(request), escapeLine(response))

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := io.WriteString(t.w, line); err != nil {
		return fmt.Errorf("logging: write transcript: %w", err)
	}
	return nil
}

// Close closes the underlying file, if any.
func (t *Transcript) Close() error {
	if t == nil || t.c == nil {
		return nil
	}
	return t.c.Close()
}

var lineEscaper = strings.NewReplacer("\r", `\r`, "\n", `\n`)

func escapeLine(s string) string {
	return lineEscaper.Replace(s)
}
