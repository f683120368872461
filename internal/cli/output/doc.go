// Package output renders server replies for kvmesh-cli.
//
// Three formats are supported:
//
//   - raw: redis-cli style text, the default
//   - json: one JSON document per reply
//   - yaml: one YAML document per reply
//
// JSON and YAML share the value mapping implemented by Value.
package output
