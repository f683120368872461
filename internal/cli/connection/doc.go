// Package connection provides the RESP client used by kvmesh-cli.
//
// A Client owns one TCP connection, dialled lazily on the first command and
// reused for the ones that follow. Each command is a request/response round
// trip bounded by the client timeout.
package connection
