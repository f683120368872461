package connection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/yndnr/kvmesh-go/internal/resp"
)

// DefaultTimeout bounds dialling and each round trip.
const DefaultTimeout = 5 * time.Second

// ErrServerClosed is returned when the server closes the connection before
// replying.
var ErrServerClosed = errors.New("connection: server closed connection")

// Client sends commands to a kvmesh server.
type Client struct {
	addr    string
	timeout time.Duration

	nc   net.Conn
	conn *resp.Conn
}

// NewClient creates a client for addr. A non-positive timeout selects
// DefaultTimeout.
func NewClient(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{addr: addr, timeout: timeout}
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Connect dials the server. It is a no-op when already connected.
func (c *Client) Connect(ctx context.Context) error {
	if c.nc != nil {
		return nil
	}

	d := net.Dialer{Timeout: c.timeout}
	nc, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", c.addr, err)
	}
	c.nc = nc
	c.conn = resp.NewConn(nc)
	return nil
}

// Do sends one command and waits for its reply. An error reply from the
// server is returned as a resp.ErrorString frame, not as an error.
func (c *Client) Do(ctx context.Context, args ...string) (resp.Frame, error) {
	if len(args) == 0 {
		return nil, errors.New("connection: empty command")
	}
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.nc.SetDeadline(deadline); err != nil {
		return nil, err
	}

	raw := make([][]byte, len(args))
	for i, a := range args {
		raw[i] = []byte(a)
	}

	if err := c.conn.WriteCommand(raw...); err != nil {
		c.reset()
		return nil, fmt.Errorf("send: %w", err)
	}

	f, err := c.conn.ReadFrame()
	if err != nil {
		c.reset()
		if errors.Is(err, io.EOF) || errors.Is(err, resp.ErrConnReset) {
			return nil, ErrServerClosed
		}
		return nil, fmt.Errorf("receive: %w", err)
	}
	return f, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.nc == nil {
		return nil
	}
	err := c.nc.Close()
	c.nc, c.conn = nil, nil
	return err
}

// reset drops a connection left in an unknown state so the next Do redials.
func (c *Client) reset() {
	_ = c.Close()
}
