package memory

import (
	"github.com/yndnr/kvmesh-go/pkg/cmap"
)

// Store is the sharded key-value store shared by all connections.
type Store struct {
	data *cmap.Map[[]byte]
}

// New creates a store with shardCount partitions.
// A non-positive shardCount selects cmap.DefaultShardCount.
func New(shardCount int) *Store {
	return &Store{
		data: cmap.New[[]byte](shardCount),
	}
}

// Insert stores value under key. An existing value is replaced.
func (s *Store) Insert(key string, value []byte) {
	stored := make([]byte, len(value))
	copy(stored, value)
	s.data.Set(key, stored)
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(key string) ([]byte, bool) {
	var out []byte
	ok := s.data.View(key, func(v []byte) {
		out = make([]byte, len(v))
		copy(out, v)
	})
	return out, ok
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	return s.data.Count()
}

// ShardCount returns the fixed number of partitions.
func (s *Store) ShardCount() int {
	return s.data.ShardCount()
}

// Stats contains storage statistics.
type Stats struct {
	Keys   int
	Bytes  int
	Shards []cmap.ShardStats
}

// Stats walks every partition and reports key and byte totals.
func (s *Store) Stats() Stats {
	st := Stats{Shards: s.data.Stats()}
	s.data.Range(func(_ string, v []byte) bool {
		st.Keys++
		st.Bytes += len(v)
		return true
	})
	return st
}
