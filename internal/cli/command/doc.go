// Package command provides CLI command definitions for kvmesh-cli.
//
// It uses urfave/cli/v2 for command parsing:
//
//   - root.go: App, global flags, interactive mode when no command is given
//   - kv.go: get, set and raw
//
// Every command sends exactly one request and prints the reply with the
// formatter selected by --output.
package command
