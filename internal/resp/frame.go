package resp

import (
	"strconv"
	"strings"
)

// Kind identifies a frame variant.
type Kind uint8

const (
	KindSimple Kind = iota + 1
	KindError
	KindInteger
	KindBulk
	KindNull
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindError:
		return "error"
	case KindInteger:
		return "integer"
	case KindBulk:
		return "bulk"
	case KindNull:
		return "null"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Frame is one complete protocol message. The concrete types are
// SimpleString, ErrorString, Integer, BulkString, Null and Array.
type Frame interface {
	Kind() Kind
	String() string
}

// SimpleString is a '+' frame.
type SimpleString string

// ErrorString is a '-' frame.
type ErrorString string

// Integer is a ':' frame. Only non-negative values are representable.
type Integer uint64

// BulkString is a '$' frame carrying binary-safe bytes.
type BulkString []byte

// Null is the null bulk string "$-1\r\n".
type Null struct{}

// Array is a '*' frame. Elements may themselves be arrays.
type Array []Frame

func (SimpleString) Kind() Kind { return KindSimple }
func (ErrorString) Kind() Kind  { return KindError }
func (Integer) Kind() Kind      { return KindInteger }
func (BulkString) Kind() Kind   { return KindBulk }
func (Null) Kind() Kind         { return KindNull }
func (Array) Kind() Kind        { return KindArray }

// String renders frames the way redis-cli prints replies.
func (s SimpleString) String() string { return string(s) }
func (e ErrorString) String() string  { return "(error) " + string(e) }
func (i Integer) String() string      { return "(integer) " + strconv.FormatUint(uint64(i), 10) }
func (b BulkString) String() string   { return strconv.Quote(string(b)) }
func (Null) String() string           { return "(nil)" }

func (a Array) String() string {
	if len(a) == 0 {
		return "(empty array)"
	}
	var sb strings.Builder
	for i, f := range a {
		if i > 0 {
			sb.WriteByte('\n')
		}
		prefix := strconv.Itoa(i+1) + ") "
		sb.WriteString(prefix)
		sb.WriteString(strings.ReplaceAll(f.String(), "\n", "\n"+strings.Repeat(" ", len(prefix))))
	}
	return sb.String()
}
