package protocol

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
)

// chunkReader hands out one predefined chunk per Read call, then io.EOF.
type chunkReader struct {
	chunks [][]byte
	reads  int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	r.reads++
	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func chunks(parts ...string) *chunkReader {
	r := &chunkReader{}
	for _, p := range parts {
		r.chunks = append(r.chunks, []byte(p))
	}
	return r
}

func readAll(t *testing.T, f *Framer) ([]string, error) {
	t.Helper()
	var got []string
	for {
		msg, err := f.ReadMessage()
		if err != nil {
			return got, err
		}
		got = append(got, string(msg))
	}
}

func TestFramerChunkBoundaryIndependence(t *testing.T) {
	stream := "USER alice\r\nPOST hello world\r\n\r\nBYE\r\nPOST a\rb\r\n"
	want := []string{"USER alice", "POST hello world", "", "BYE", "POST a\rb"}

	for size := 1; size <= len(stream); size++ {
		var parts []string
		for i := 0; i < len(stream); i += size {
			end := i + size
			if end > len(stream) {
				end = len(stream)
			}
			parts = append(parts, stream[i:end])
		}

		got, err := readAll(t, NewFramer(chunks(parts...)))
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("chunk size %d: expected ErrClosed, got %v", size, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("chunk size %d: messages mismatch (-want +got):\n%s", size, diff)
		}
	}
}

func TestFramerOneByteReader(t *testing.T) {
	r := iotest.OneByteReader(strings.NewReader("USER bob\r\nBYE\r\n"))
	got, err := readAll(t, NewFramer(r))
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if diff := cmp.Diff([]string{"USER bob", "BYE"}, got); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestFramerCarryOver(t *testing.T) {
	r := chunks("USER alice\r\nPOST hi\r\nBY", "E\r\n")
	f := NewFramer(r)

	msg, err := f.ReadMessage()
	if err != nil || string(msg) != "USER alice" {
		t.Fatalf("first message: got %q, %v", msg, err)
	}
	if r.reads != 1 {
		t.Fatalf("expected 1 read, got %d", r.reads)
	}

	// The second message is already buffered: no read may happen.
	msg, err = f.ReadMessage()
	if err != nil || string(msg) != "POST hi" {
		t.Fatalf("second message: got %q, %v", msg, err)
	}
	if r.reads != 1 {
		t.Fatalf("second message must come from carry-over, reads=%d", r.reads)
	}
	if f.Buffered() != 2 {
		t.Fatalf("expected 2 carry-over bytes, got %d", f.Buffered())
	}

	msg, err = f.ReadMessage()
	if err != nil || string(msg) != "BYE" {
		t.Fatalf("third message: got %q, %v", msg, err)
	}
	if r.reads != 2 {
		t.Fatalf("expected 2 reads, got %d", r.reads)
	}
	if f.Buffered() != 0 {
		t.Fatalf("expected empty carry-over, got %d", f.Buffered())
	}
}

func TestFramerSplitDelimiter(t *testing.T) {
	got, err := readAll(t, NewFramer(chunks("BYE\r", "\nUSER x\r", "\n")))
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if diff := cmp.Diff([]string{"BYE", "USER x"}, got); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestFramerOverflow(t *testing.T) {
	const size = 16
	r := bytes.NewReader(bytes.Repeat([]byte("a"), size*4))
	f := NewFramerSize(r, size)

	msg, err := f.ReadMessage()
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got msg=%q err=%v", msg, err)
	}
	if msg != nil {
		t.Fatalf("overflow must not yield a message, got %q", msg)
	}
	if f.Buffered() != 0 {
		t.Fatalf("overflow must discard buffered data, got %d bytes", f.Buffered())
	}

	// Sticky: the framer stays unusable.
	if _, err := f.ReadMessage(); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected sticky ErrOverflow, got %v", err)
	}
}

func TestFramerOverflowDefaultBound(t *testing.T) {
	body := strings.Repeat("x", MaxMessageSize)
	f := NewFramer(strings.NewReader(body + Delimiter))
	if _, err := f.ReadMessage(); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestFramerLargestMessageFits(t *testing.T) {
	body := strings.Repeat("x", MaxMessageSize-len(Delimiter))
	f := NewFramer(iotest.HalfReader(strings.NewReader(body + Delimiter)))
	msg, err := f.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: unexpected error: %v", err)
	}
	if len(msg) != len(body) {
		t.Fatalf("expected %d bytes, got %d", len(body), len(msg))
	}
}

func TestFramerClosedDiscardsPartial(t *testing.T) {
	f := NewFramer(chunks("USER alice\r\nPOST unterminated"))
	if msg, err := f.ReadMessage(); err != nil || string(msg) != "USER alice" {
		t.Fatalf("first message: got %q, %v", msg, err)
	}
	if _, err := f.ReadMessage(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if f.Buffered() != 0 {
		t.Fatalf("close must discard carry-over, got %d bytes", f.Buffered())
	}
}

func TestFramerDataWithEOF(t *testing.T) {
	r := iotest.DataErrReader(strings.NewReader("BYE\r\n"))
	got, err := readAll(t, NewFramer(r))
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if diff := cmp.Diff([]string{"BYE"}, got); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestFramerIOError(t *testing.T) {
	boom := errors.New("boom")
	f := NewFramer(iotest.ErrReader(boom))
	_, err := f.ReadMessage()
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if errors.Is(err, ErrClosed) || errors.Is(err, ErrOverflow) {
		t.Fatalf("I/O error must not look like close or overflow: %v", err)
	}
}

func TestFramersAreIndependent(t *testing.T) {
	a := NewFramer(chunks("USER a\r\nPOST from-a\r\n"))
	b := NewFramer(chunks("USER b\r\n"))

	if msg, _ := a.ReadMessage(); string(msg) != "USER a" {
		t.Fatalf("a: got %q", msg)
	}
	if msg, _ := b.ReadMessage(); string(msg) != "USER b" {
		t.Fatalf("b: got %q", msg)
	}
	if _, err := b.ReadMessage(); !errors.Is(err, ErrClosed) {
		t.Fatalf("b: expected ErrClosed, got %v", err)
	}
	if msg, _ := a.ReadMessage(); string(msg) != "POST from-a" {
		t.Fatalf("a: carry-over leaked, got %q", msg)
	}
}
