package protocol

import (
	"errors"
	"fmt"
	"io"
)

// SendAll writes every byte of b to w, retrying short writes. It returns
// len(b) on success and never reports success for a partial write.
func SendAll(w io.Writer, b []byte) (int, error) {
	total := 0
	for total < len(b) {
		n, err := w.Write(b[total:])
		total += n
		if err != nil {
			return total, fmt.Errorf("protocol: write: %w", err)
		}
		if n == 0 {
			return total, fmt.Errorf("protocol: write: %w", io.ErrShortWrite)
		}
	}
	return total, nil
}

// RecvExact reads exactly n bytes from r, retrying partial reads. If the peer
// closes before n bytes arrive, the partial data is dropped and ErrClosed is
// returned.
func RecvExact(r io.Reader, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("protocol: recv exact: negative length %d", n)
	}
	buf := make([]byte, n)
	got := 0
	for got < n {
		m, err := r.Read(buf[got:])
		got += m
		if got == n {
			break
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrClosed
			}
			return nil, fmt.Errorf("protocol: read: %w", err)
		}
	}
	return buf, nil
}

// WriteResponse sends one encoded response line.
func WriteResponse(w io.Writer, resp Response) error {
	_, err := SendAll(w, resp.Encode())
	return err
}

// WriteRequest sends one encoded request line.
func WriteRequest(w io.Writer, cmd, arg string) error {
	_, err := SendAll(w, EncodeRequest(cmd, arg))
	return err
}
