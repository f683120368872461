package resp

import (
	"bytes"
	"strconv"
)

var crlf = []byte("\r\n")

// Cursor is a read position over a byte slice. The zero value is unusable;
// create one with NewCursor.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Position returns the number of bytes consumed so far.
func (c *Cursor) Position() int { return c.pos }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// Reset rewinds the cursor to the start of its buffer.
func (c *Cursor) Reset() { c.pos = 0 }

func (c *Cursor) readByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, ErrIncomplete
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// line returns the bytes up to the next CRLF and moves past the CRLF.
// The returned slice aliases the underlying buffer.
func (c *Cursor) line() ([]byte, error) {
	rest := c.buf[c.pos:]
	idx := bytes.Index(rest, crlf)
	if idx < 0 {
		if len(rest) > MaxLineLen {
			return nil, limitErr(c.pos, "line exceeds %d bytes", MaxLineLen)
		}
		return nil, ErrIncomplete
	}
	if idx > MaxLineLen {
		return nil, limitErr(c.pos, "line exceeds %d bytes", MaxLineLen)
	}
	line := rest[:idx]
	c.pos += idx + len(crlf)
	return line, nil
}

// decimal reads a line holding an unsigned base-10 integer.
func (c *Cursor) decimal() (uint64, error) {
	start := c.pos
	line, err := c.line()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(string(line), 10, 64)
	if err != nil {
		return 0, protocolErr(start, "invalid decimal %q", line)
	}
	return n, nil
}

func (c *Cursor) skip(n int) error {
	if c.Remaining() < n {
		return ErrIncomplete
	}
	c.pos += n
	return nil
}
