// Package memory provides the in-memory key-value store for kvmesh.
//
// The store is a fixed set of independently locked partitions built on
// pkg/cmap. A key lives in exactly one partition for the lifetime of the
// store; operations on keys in different partitions never contend.
//
// Values are copied on the way in and on the way out, so callers can
// neither observe nor mutate bytes held by the store after a call returns.
package memory
