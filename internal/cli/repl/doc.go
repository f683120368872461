// Package repl provides the interactive mode of kvmesh-cli.
//
// Each input line is split into arguments (double and single quotes group
// words, backslash escapes work inside double quotes) and sent to the server
// as one command. A few words are handled locally: help, history, exit and
// quit.
package repl
