package output

import (
	"encoding/json"
	"io"

	"github.com/yndnr/kvmesh-go/internal/resp"
)

// JSONFormatter formats replies as JSON.
type JSONFormatter struct{}

// Format formats the reply as indented JSON.
func (JSONFormatter) Format(w io.Writer, f resp.Frame) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(Value(f))
}
