// Package main provides the entry point for kvmesh-server.
//
// The server keeps an in-memory sharded key-value store and serves it over
// a Redis-compatible TCP protocol (GET and SET). Optionally it also exposes
// Prometheus metrics and a health probe over HTTP.
//
// Usage:
//
//	kvmesh-server [flags]
//	kvmesh-server --config /path/to/config.yaml
//
// Configuration is merged from defaults, the YAML file, KVMESH_*
// environment variables and finally command-line flags. When a config file
// is given, changes to its log level are applied without a restart.
package main
