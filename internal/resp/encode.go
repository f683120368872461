package resp

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

var nullBulk = []byte("$-1\r\n")

// Append appends the wire encoding of f to dst.
//
// Only scalar frames are encodable; an Array yields ErrArrayEncode and dst
// is returned unchanged. Callers writing replies must never produce arrays.
func Append(dst []byte, f Frame) ([]byte, error) {
	switch v := f.(type) {
	case SimpleString:
		return appendLine(dst, '+', string(v))
	case ErrorString:
		return appendLine(dst, '-', string(v))
	case Integer:
		dst = append(dst, ':')
		dst = strconv.AppendUint(dst, uint64(v), 10)
		return append(dst, crlf...), nil
	case BulkString:
		return appendBulk(dst, v), nil
	case Null:
		return append(dst, nullBulk...), nil
	case Array:
		return dst, ErrArrayEncode
	case nil:
		return dst, fmt.Errorf("resp: cannot encode nil frame")
	default:
		return dst, fmt.Errorf("resp: cannot encode frame of type %T", f)
	}
}

// Encode returns the wire encoding of f.
func Encode(f Frame) ([]byte, error) {
	return Append(nil, f)
}

// AppendCommand appends a request, an array of bulk strings, to dst.
// This is the only way arrays reach the wire, and only clients send them.
func AppendCommand(dst []byte, args ...[]byte) []byte {
	dst = append(dst, '*')
	dst = strconv.AppendInt(dst, int64(len(args)), 10)
	dst = append(dst, crlf...)
	for _, a := range args {
		dst = appendBulk(dst, a)
	}
	return dst
}

func appendLine(dst []byte, sigil byte, s string) ([]byte, error) {
	if strings.ContainsAny(s, "\r\n") || !utf8.ValidString(s) {
		return dst, ErrInvalidLine
	}
	dst = append(dst, sigil)
	dst = append(dst, s...)
	return append(dst, crlf...), nil
}

func appendBulk(dst []byte, b []byte) []byte {
	dst = append(dst, '$')
	dst = strconv.AppendInt(dst, int64(len(b)), 10)
	dst = append(dst, crlf...)
	dst = append(dst, b...)
	return append(dst, crlf...)
}
