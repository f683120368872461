package output

import (
	"fmt"
	"io"

	"github.com/yndnr/kvmesh-go/internal/resp"
)

// Format represents the output format.
type Format string

const (
	FormatRaw  Format = "raw"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formatter writes a reply frame to w.
type Formatter interface {
	Format(w io.Writer, f resp.Frame) error
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) (Formatter, error) {
	switch format {
	case FormatRaw, "":
		return RawFormatter{}, nil
	case FormatJSON:
		return JSONFormatter{}, nil
	case FormatYAML:
		return YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want raw, json or yaml)", format)
	}
}

// RawFormatter prints replies the way redis-cli does.
type RawFormatter struct{}

// Format implements Formatter.
func (RawFormatter) Format(w io.Writer, f resp.Frame) error {
	_, err := fmt.Fprintln(w, f.String())
	return err
}

// Value maps a frame onto plain Go values for structured encoders.
// Error replies become a map with a single "error" key so they stay
// distinguishable from simple strings.
func Value(f resp.Frame) any {
	switch v := f.(type) {
	case resp.SimpleString:
		return string(v)
	case resp.ErrorString:
		return map[string]string{"error": string(v)}
	case resp.Integer:
		return uint64(v)
	case resp.BulkString:
		return string(v)
	case resp.Null:
		return nil
	case resp.Array:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = Value(e)
		}
		return out
	default:
		return nil
	}
}
