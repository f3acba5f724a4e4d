package protocol

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

// trickleWriter accepts at most limit bytes per Write call.
type trickleWriter struct {
	bytes.Buffer
	limit int
	calls int
}

func (w *trickleWriter) Write(p []byte) (int, error) {
	w.calls++
	if len(p) > w.limit {
		p = p[:w.limit]
	}
	return w.Buffer.Write(p)
}

type failWriter struct {
	after int
	err   error
}

func (w *failWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, w.err
	}
	n := len(p)
	if n > w.after {
		n = w.after
	}
	w.after -= n
	return n, nil
}

type stuckWriter struct{}

func (stuckWriter) Write(_ []byte) (int, error) { return 0, nil }

func TestSendAllRetriesShortWrites(t *testing.T) {
	w := &trickleWriter{limit: 3}
	payload := []byte("130-Logged out successfully!\r\n")

	n, err := SendAll(w, payload)
	if err != nil {
		t.Fatalf("SendAll: unexpected error: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("SendAll: sent %d, want %d", n, len(payload))
	}
	if !bytes.Equal(w.Bytes(), payload) {
		t.Fatalf("SendAll: wrote %q, want %q", w.Bytes(), payload)
	}
	if w.calls < len(payload)/3 {
		t.Fatalf("SendAll: expected repeated writes, got %d calls", w.calls)
	}
}

func TestSendAllFailure(t *testing.T) {
	boom := errors.New("broken pipe")
	n, err := SendAll(&failWriter{after: 4, err: boom}, []byte("0123456789"))
	if !errors.Is(err, boom) {
		t.Fatalf("SendAll: expected wrapped error, got %v", err)
	}
	if n != 4 {
		t.Fatalf("SendAll: reported %d bytes, want 4", n)
	}
}

func TestSendAllZeroProgress(t *testing.T) {
	if _, err := SendAll(stuckWriter{}, []byte("x")); !errors.Is(err, io.ErrShortWrite) {
		t.Fatalf("SendAll: expected io.ErrShortWrite, got %v", err)
	}
}

func TestRecvExact(t *testing.T) {
	r := iotest.OneByteReader(strings.NewReader("abcdefgh"))
	got, err := RecvExact(r, 5)
	if err != nil {
		t.Fatalf("RecvExact: unexpected error: %v", err)
	}
	if string(got) != "abcde" {
		t.Fatalf("RecvExact: got %q", got)
	}
}

func TestRecvExactDataWithEOF(t *testing.T) {
	r := iotest.DataErrReader(strings.NewReader("abc"))
	got, err := RecvExact(r, 3)
	if err != nil {
		t.Fatalf("RecvExact: unexpected error: %v", err)
	}
	if string(got) != "abc" {
		t.Fatalf("RecvExact: got %q", got)
	}
}

func TestRecvExactClosedEarly(t *testing.T) {
	got, err := RecvExact(strings.NewReader("abc"), 10)
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("RecvExact: expected ErrClosed, got %v", err)
	}
	if got != nil {
		t.Fatalf("RecvExact: partial data must be discarded, got %q", got)
	}
}

func TestRecvExactIOError(t *testing.T) {
	boom := errors.New("reset")
	_, err := RecvExact(iotest.ErrReader(boom), 1)
	if !errors.Is(err, boom) || errors.Is(err, ErrClosed) {
		t.Fatalf("RecvExact: expected wrapped reset, got %v", err)
	}
}

func TestRecvExactNegativeLength(t *testing.T) {
	got, err := RecvExact(strings.NewReader("abc"), -1)
	if err == nil || errors.Is(err, ErrClosed) {
		t.Fatalf("RecvExact: expected length error, got %v", err)
	}
	if got != nil {
		t.Fatalf("RecvExact: got %q", got)
	}
}
