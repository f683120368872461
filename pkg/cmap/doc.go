// Package cmap provides a concurrent map partitioned into a fixed number of shards.
//
// Every key belongs to exactly one shard, chosen by murmur3(key) mod N, and
// N never changes after construction. Each shard owns a sync.RWMutex that is
// the only serialization point for its keys; no operation holds more than
// one shard lock at a time.
//
// Usage:
//
//	m := cmap.New[[]byte](16)
//	m.Set("key", value)
//	val, ok := m.Get("key")
//
// Thread Safety:
//
// All operations are thread-safe. Read operations (Get, View) use RLock,
// Set uses Lock. Callbacks passed to View and Range
// run with a shard lock held and must not call back into the map.
package cmap
