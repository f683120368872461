// Package main provides the entry point for kvmesh-cli.
//
// kvmesh-cli sends GET, SET or arbitrary commands to a kvmesh server.
// Run without a command it starts an interactive session.
package main
