// Package client implements the linechat client side of the line protocol.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/NicolasHaas/linechat/pkg/model"
	"github.com/NicolasHaas/linechat/pkg/protocol"
)

// ErrUnexpectedBanner is returned when the server greets with anything other
// than a 100 response.
var ErrUnexpectedBanner = errors.New("client: unexpected banner")

// ErrInvalidArgument is returned for a command or argument that would not
// travel as a single request line.
var ErrInvalidArgument = errors.New("client: invalid argument")

// Options controls how Dial connects.
type Options struct {
	DialTimeout    time.Duration // per attempt
	MaxRetries     uint64        // attempts after the first failure
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultOptions returns dial options suited to an interactive client.
func DefaultOptions() Options {
	return Options{
		DialTimeout:    5 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
	}
}

// Client is a connection to a linechat server. Requests are serialized:
// each call sends one request and waits for its single response.
type Client struct {
	conn   net.Conn
	framer *protocol.Framer
	banner protocol.Response

	mu sync.Mutex
}

// Dial connects to addr, retrying failed attempts with exponential backoff,
// and reads the server banner.
func Dial(ctx context.Context, addr string, opts Options) (*Client, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = opts.InitialBackoff
	exp.MaxInterval = opts.MaxBackoff
	exp.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(exp, opts.MaxRetries), ctx)

	dialer := &net.Dialer{Timeout: opts.DialTimeout}
	var conn net.Conn
	err := backoff.RetryNotify(func() error {
		c, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}, b, func(err error, wait time.Duration) {
		slog.Debug("dial failed, retrying", "addr", addr, "err", err, "retry_in", wait)
	})
	if err != nil {
		return nil, fmt.Errorf("client: connect %s: %w", addr, err)
	}

	c, err := NewClient(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

// NewClient wraps an established connection and reads the banner.
func NewClient(conn net.Conn) (*Client, error) {
	c := &Client{conn: conn, framer: protocol.NewFramer(conn)}
	resp, err := c.readResponse()
	if err != nil {
		return nil, fmt.Errorf("client: read banner: %w", err)
	}
	if resp.Code != protocol.CodeConnected {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedBanner, resp)
	}
	c.banner = resp
	return c, nil
}

// Banner returns the greeting the server sent on connect.
func (c *Client) Banner() protocol.Response {
	return c.banner
}

// Login sends USER.
func (c *Client) Login(username string) (protocol.Response, error) {
	if err := model.ValidateUsername(username); err != nil {
		return protocol.Response{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return c.Do(protocol.CmdUser, username)
}

// Post sends POST.
func (c *Client) Post(text string) (protocol.Response, error) {
	return c.Do(protocol.CmdPost, text)
}

// Logout sends BYE.
func (c *Client) Logout() (protocol.Response, error) {
	return c.Do(protocol.CmdBye, "")
}

// Do sends one request and returns the server's response. Rejections such as
// 221 are returned as responses, not errors; only transport and framing
// failures produce an error.
func (c *Client) Do(cmd, arg string) (protocol.Response, error) {
	if cmd == "" || strings.ContainsAny(cmd, "\r\n") || strings.ContainsAny(arg, "\r\n") {
		return protocol.Response{}, fmt.Errorf("%w: %q %q", ErrInvalidArgument, cmd, arg)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := protocol.WriteRequest(c.conn, cmd, arg); err != nil {
		return protocol.Response{}, fmt.Errorf("client: send %s: %w", cmd, err)
	}
	resp, err := c.readResponse()
	if err != nil {
		return protocol.Response{}, fmt.Errorf("client: %s response: %w", cmd, err)
	}
	return resp, nil
}

func (c *Client) readResponse() (protocol.Response, error) {
	line, err := c.framer.ReadMessage()
	if err != nil {
		return protocol.Response{}, err
	}
	return protocol.ParseResponse(string(line))
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
