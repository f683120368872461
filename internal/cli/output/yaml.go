package output

import (
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/yndnr/kvmesh-go/internal/resp"
)

// YAMLFormatter formats replies as YAML.
type YAMLFormatter struct{}

// Format formats the reply as a YAML document.
func (YAMLFormatter) Format(w io.Writer, f resp.Frame) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Value(f)); err != nil {
		return err
	}
	return enc.Close()
}
