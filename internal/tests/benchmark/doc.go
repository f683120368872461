// Package benchmark provides performance benchmarks for kvmesh.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Compare shard counts under contention:
//
//	go test -bench=BenchmarkStoreParallel -benchmem -cpu=1,4,8 ./internal/tests/benchmark/...
//
// Compare results:
//
//	benchstat old.txt new.txt
package benchmark
