package benchmark

import (
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/yndnr/kvmesh-go/internal/storage/memory"
)

// BenchmarkStoreInsert benchmarks inserts into a prefilled store.
func BenchmarkStoreInsert(b *testing.B) {
	runWithCounts(b, "keys", KeyCounts, func(b *testing.B, count int) {
		store := memory.New(16)
		prefillStore(store, count, 64)
		value := make([]byte, 64)

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			store.Insert("bench-"+strconv.Itoa(i), value)
		}

		b.StopTimer()
		reportMemory(b, "mem")
	})
}

// BenchmarkStoreGet benchmarks reads of existing keys.
func BenchmarkStoreGet(b *testing.B) {
	runWithCounts(b, "keys", KeyCounts, func(b *testing.B, count int) {
		store := memory.New(16)
		keys := prefillStore(store, count, 64)

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			if _, ok := store.Get(keys[i%len(keys)]); !ok {
				b.Fatal("Get missed a prefilled key")
			}
		}
	})
}

// BenchmarkStoreParallel benchmarks a 90/10 read/write mix across shard
// counts.
func BenchmarkStoreParallel(b *testing.B) {
	runWithCounts(b, "shards", ShardCounts, func(b *testing.B, shards int) {
		store := memory.New(shards)
		keys := prefillStore(store, 10000, 64)
		value := make([]byte, 64)
		var seq atomic.Uint64

		b.ResetTimer()
		b.ReportAllocs()

		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				n := seq.Add(1)
				key := keys[n%uint64(len(keys))]
				if n%10 == 0 {
					store.Insert(key, value)
				} else {
					store.Get(key)
				}
			}
		})
	})
}
