package resp

import (
	"errors"
	"fmt"
	"io"
)

const (
	// DefaultBufferSize is the initial receive buffer capacity.
	DefaultBufferSize = 4096

	// DefaultReadSize is the free tail space guaranteed before each read.
	DefaultReadSize = 512

	// maxScratchRetain caps the encode buffer kept between writes.
	maxScratchRetain = 64 * 1024

	// maxEmptyReads mirrors bufio: give up on readers that never make progress.
	maxEmptyReads = 100
)

// Conn reads frames from and writes frames to a byte stream.
//
// A Conn is not safe for concurrent use: at most one goroutine may read and
// one goroutine may write at a time.
type Conn struct {
	rd io.Reader
	wr io.Writer

	buf      []byte
	scratch  []byte
	readSize int
}

// ConnOption configures a Conn.
type ConnOption func(*Conn)

// WithBufferSize sets the initial receive buffer capacity.
func WithBufferSize(n int) ConnOption {
	return func(c *Conn) {
		if n > 0 {
			c.buf = make([]byte, 0, n)
		}
	}
}

// WithReadSize sets the minimum free space offered to each Read call.
func WithReadSize(n int) ConnOption {
	return func(c *Conn) {
		if n > 0 {
			c.readSize = n
		}
	}
}

// NewConn wraps rw. The caller keeps ownership of rw and closes it.
func NewConn(rw io.ReadWriter, opts ...ConnOption) *Conn {
	c := &Conn{
		rd:  rw,
		wr:  rw,
		buf:      make([]byte, 0, DefaultBufferSize),
		readSize: DefaultReadSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReadFrame returns the next frame from the stream.
//
// It returns io.EOF when the peer closed the stream between frames,
// ErrConnReset when it closed mid-frame, an error matching ErrProtocol for
// malformed input, and any other read error wrapped. None of these are
// retried; the connection should be dropped.
func (c *Conn) ReadFrame() (Frame, error) {
	for {
		f, err := c.parseFrame()
		if err != nil {
			return nil, err
		}
		if f != nil {
			return f, nil
		}
		if err := c.fill(); err != nil {
			return nil, err
		}
	}
}

// parseFrame returns (nil, nil) when the buffer does not hold a full frame yet.
func (c *Conn) parseFrame() (Frame, error) {
	cur := Cursor{buf: c.buf}
	if err := Check(&cur); err != nil {
		if errors.Is(err, ErrIncomplete) {
			return nil, nil
		}
		return nil, err
	}

	n := cur.Position()
	cur.Reset()
	f, err := Parse(&cur)
	if err != nil {
		return nil, err
	}

	c.buf = c.buf[:copy(c.buf, c.buf[n:])]
	return f, nil
}

// fill performs a single read, appending to the receive buffer.
func (c *Conn) fill() error {
	if cap(c.buf)-len(c.buf) < c.readSize {
		grown := make([]byte, len(c.buf), 2*cap(c.buf)+c.readSize)
		copy(grown, c.buf)
		c.buf = grown
	}

	for i := 0; i < maxEmptyReads; i++ {
		n, err := c.rd.Read(c.buf[len(c.buf):cap(c.buf)])
		c.buf = c.buf[:len(c.buf)+n]
		if n > 0 {
			return nil
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			if len(c.buf) == 0 {
				return io.EOF
			}
			return ErrConnReset
		}
		return fmt.Errorf("resp: read: %w", err)
	}
	return io.ErrNoProgress
}

// WriteFrame encodes f and writes it in a single Write call.
// Arrays are rejected with ErrArrayEncode before anything is written.
func (c *Conn) WriteFrame(f Frame) error {
	b, err := Append(c.scratch[:0], f)
	if err != nil {
		return err
	}
	return c.write(b)
}

// WriteCommand writes a request made of bulk string arguments.
func (c *Conn) WriteCommand(args ...[]byte) error {
	return c.write(AppendCommand(c.scratch[:0], args...))
}

func (c *Conn) write(b []byte) error {
	if cap(b) <= maxScratchRetain {
		c.scratch = b
	} else {
		c.scratch = nil
	}
	if _, err := c.wr.Write(b); err != nil {
		return fmt.Errorf("resp: write: %w", err)
	}
	return nil
}

// Buffered returns the number of received bytes not yet consumed as frames.
func (c *Conn) Buffered() int {
	return len(c.buf)
}
