package resp

import (
	"bytes"
	"unicode/utf8"
)

// Protocol limits. Frames crossing them are rejected as protocol errors
// that also match ErrLimitExceeded.
const (
	// MaxLineLen bounds simple strings, errors and length headers.
	MaxLineLen = 64 * 1024

	// MaxBulkLen bounds a single bulk string payload (512MB, as Redis does).
	MaxBulkLen = 512 * 1024 * 1024

	// MaxArrayLen bounds the declared element count of one array.
	MaxArrayLen = 1 << 20

	// MaxDepth bounds array nesting.
	MaxDepth = 32
)

// minFrameLen is the size of the shortest possible frame ("+\r\n").
const minFrameLen = 3

var nullLength = []byte("-1")

// Check verifies that a complete, well-formed frame starts at the cursor and
// advances the cursor past it. It returns ErrIncomplete when more bytes are
// needed and a *ProtocolError when the bytes can never form a frame.
// On error the cursor position is unspecified.
func Check(c *Cursor) error {
	_, err := scan(c, 0, false)
	return err
}

// Parse decodes the frame starting at the cursor. It consumes exactly the
// bytes Check consumes for the same input. Payloads are copied, so the
// frame stays valid after the underlying buffer is reused.
func Parse(c *Cursor) (Frame, error) {
	return scan(c, 0, true)
}

// scan is shared by Check and Parse so both passes consume identically.
// When build is false no frame is constructed.
func scan(c *Cursor, depth int, build bool) (Frame, error) {
	start := c.pos
	sigil, err := c.readByte()
	if err != nil {
		return nil, err
	}

	switch sigil {
	case '+', '-':
		line, err := c.line()
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(line) {
			return nil, protocolErr(start, "invalid UTF-8 in %s string", kindForSigil(sigil))
		}
		if !build {
			return nil, nil
		}
		if sigil == '+' {
			return SimpleString(line), nil
		}
		return ErrorString(line), nil

	case ':':
		n, err := c.decimal()
		if err != nil {
			return nil, err
		}
		if !build {
			return nil, nil
		}
		return Integer(n), nil

	case '$':
		return scanBulk(c, build)

	case '*':
		return scanArray(c, start, depth, build)

	default:
		return nil, protocolErr(start, "unrecognized frame type %q", sigil)
	}
}

func scanBulk(c *Cursor, build bool) (Frame, error) {
	lenStart := c.pos
	header, err := c.line()
	if err != nil {
		return nil, err
	}
	if bytes.Equal(header, nullLength) {
		if !build {
			return nil, nil
		}
		return Null{}, nil
	}

	c.pos = lenStart
	n, err := c.decimal()
	if err != nil {
		return nil, err
	}
	if n > MaxBulkLen {
		return nil, limitErr(lenStart, "bulk length %d exceeds limit %d", n, MaxBulkLen)
	}

	size := int(n)
	dataStart := c.pos
	if c.Remaining() < size+len(crlf) {
		return nil, ErrIncomplete
	}
	if !bytes.Equal(c.buf[dataStart+size:dataStart+size+len(crlf)], crlf) {
		return nil, protocolErr(dataStart, "bulk length %d does not match payload terminator", size)
	}
	if err := c.skip(size + len(crlf)); err != nil {
		return nil, err
	}
	if !build {
		return nil, nil
	}

	data := make([]byte, size)
	copy(data, c.buf[dataStart:dataStart+size])
	return BulkString(data), nil
}

func scanArray(c *Cursor, start, depth int, build bool) (Frame, error) {
	if depth >= MaxDepth {
		return nil, limitErr(start, "array nesting exceeds %d", MaxDepth)
	}

	countStart := c.pos
	n, err := c.decimal()
	if err != nil {
		return nil, err
	}
	if n > MaxArrayLen {
		return nil, limitErr(countStart, "array length %d exceeds limit %d", n, MaxArrayLen)
	}

	count := int(n)
	var out Array
	if build {
		// Every element needs at least minFrameLen bytes; don't trust count alone.
		out = make(Array, 0, min(count, c.Remaining()/minFrameLen))
	}
	for i := 0; i < count; i++ {
		f, err := scan(c, depth+1, build)
		if err != nil {
			return nil, err
		}
		if build {
			out = append(out, f)
		}
	}
	if !build {
		return nil, nil
	}
	return out, nil
}

func kindForSigil(b byte) Kind {
	switch b {
	case '+':
		return KindSimple
	case '-':
		return KindError
	case ':':
		return KindInteger
	case '$':
		return KindBulk
	case '*':
		return KindArray
	}
	return 0
}
