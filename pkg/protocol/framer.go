package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

var delim = []byte(Delimiter)

// Framer splits a byte stream into CRLF-terminated messages.
//
// A Framer belongs to exactly one connection. Bytes read past a delimiter are
// kept as carry-over and served by the next ReadMessage call, so the stream can
// be consumed one message at a time regardless of how the peer's writes were
// fragmented. A Framer is not safe for concurrent use.
type Framer struct {
	r       io.Reader
	max     int
	buf     []byte // carry-over, never contains a complete message on return
	pending error  // read error that arrived together with data
	err     error  // sticky terminal error
}

// NewFramer returns a Framer reading from r with the default MaxMessageSize.
func NewFramer(r io.Reader) *Framer {
	return NewFramerSize(r, MaxMessageSize)
}

// NewFramerSize returns a Framer with a custom buffer bound. The bound counts
// the delimiter, so the longest accepted message body is size-2 bytes.
func NewFramerSize(r io.Reader, size int) *Framer {
	if size < len(delim)+1 {
		size = len(delim) + 1
	}
	return &Framer{r: r, max: size}
}

// Buffered returns the number of carry-over bytes waiting for the next call.
func (f *Framer) Buffered() int {
	return len(f.buf)
}

// ReadMessage returns the next message without its delimiter.
//
// It returns ErrClosed when the peer closes the stream, ErrOverflow when
// MaxMessageSize bytes arrive without a delimiter, and a wrapped error for any
// other read failure. All three discard buffered data and are sticky: every
// later call returns the same error.
func (f *Framer) ReadMessage() ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.buf == nil {
		f.buf = make([]byte, 0, f.max)
	}

	start := 0
	for {
		if i := bytes.Index(f.buf[start:], delim); i >= 0 {
			return f.take(start + i), nil
		}
		// A delimiter may straddle the previous read boundary.
		if len(f.buf) > 0 {
			start = len(f.buf) - 1
		}

		if len(f.buf) >= f.max {
			return nil, f.fail(ErrOverflow)
		}

		if err := f.fill(); err != nil {
			return nil, f.fail(err)
		}
	}
}

// take splits the buffer at a delimiter found at offset i.
func (f *Framer) take(i int) []byte {
	msg := make([]byte, i)
	copy(msg, f.buf[:i])
	n := copy(f.buf, f.buf[i+len(delim):])
	f.buf = f.buf[:n]
	return msg
}

// fill performs one read into the free part of the buffer.
func (f *Framer) fill() error {
	if f.pending != nil {
		err := f.pending
		f.pending = nil
		return classifyReadErr(err)
	}

	free := f.buf[len(f.buf):f.max]
	n, err := f.r.Read(free)
	f.buf = f.buf[:len(f.buf)+n]
	if n > 0 {
		// Data first; the error surfaces on the next fill.
		f.pending = err
		return nil
	}
	if err != nil {
		return classifyReadErr(err)
	}
	return nil
}

func (f *Framer) fail(err error) error {
	f.buf = f.buf[:0]
	f.pending = nil
	f.err = err
	return err
}

func classifyReadErr(err error) error {
	if errors.Is(err, io.EOF) {
		return ErrClosed
	}
	return fmt.Errorf("protocol: read: %w", err)
}
