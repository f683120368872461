package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"runtime"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/kvmesh-go/internal/server/redisserver"
	"github.com/yndnr/kvmesh-go/internal/storage/memory"
)

// KeyCounts defines the store sizes for benchmarking.
var KeyCounts = []int{1000, 10000, 100000}

// ShardCounts defines the partition counts compared under contention.
var ShardCounts = []int{1, 4, 16, 64}

// ValueSizes defines the payload sizes for codec benchmarks.
var ValueSizes = []int{16, 1024, 64 * 1024}

// newKey generates a unique key.
func newKey() string {
	return "key-" + ulid.Make().String()
}

// prefillStore fills store with count keys and returns them.
func prefillStore(store *memory.Store, count int, valueSize int) []string {
	keys := make([]string, count)
	value := make([]byte, valueSize)
	for i := range keys {
		keys[i] = newKey()
		store.Insert(keys[i], value)
	}
	return keys
}

// startServer runs a redis server on a loopback port for the benchmark.
func startServer(b *testing.B, store *memory.Store) string {
	b.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		b.Fatalf("Listen failed: %v", err)
	}

	srv := redisserver.New(nil, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := srv.Serve(context.Background(), ln); err != nil {
		b.Fatalf("Serve failed: %v", err)
	}
	b.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return ln.Addr().String()
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithCounts runs a benchmark function once per count.
func runWithCounts(b *testing.B, name string, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("%s_%d", name, count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
