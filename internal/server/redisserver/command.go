package redisserver

import (
	"bytes"
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yndnr/kvmesh-go/internal/resp"
	"github.com/yndnr/kvmesh-go/internal/telemetry/metric"
)

// Store is the key-value backend used by the dispatcher.
type Store interface {
	Get(key string) ([]byte, bool)
	Insert(key string, value []byte)
}

// Replies shared by every connection.
var (
	replyOK        = resp.SimpleString("OK")
	replyBadShape  = resp.ErrorString("ERR Protocol error: expected array of bulk strings")
	replyEmpty     = resp.ErrorString("ERR empty command")
	replySyntaxErr = resp.ErrorString("ERR syntax error")
)

// CommandHandler executes commands against a Store.
type CommandHandler struct {
	store   Store
	logger  *slog.Logger
	metrics *metric.Registry
}

// NewCommandHandler creates a new CommandHandler. metrics may be nil.
func NewCommandHandler(store Store, logger *slog.Logger, metrics *metric.Registry) *CommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandHandler{
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

// Handle executes the command carried by f and returns the reply frame.
// The reply is always a scalar frame.
func (h *CommandHandler) Handle(ctx context.Context, f resp.Frame) resp.Frame {
	start := time.Now()

	args, ok := commandArgs(f)
	if !ok {
		h.observe("invalid", replyBadShape, start)
		return replyBadShape
	}
	if len(args) == 0 {
		h.observe("invalid", replyEmpty, start)
		return replyEmpty
	}

	name := normalizeCommandName(args[0])
	var reply resp.Frame
	switch name {
	case "GET":
		reply = h.handleGet(args)
	case "SET":
		reply = h.handleSet(args)
	default:
		shown := printableName(args[0])
		h.logger.DebugContext(ctx, "unknown command", "command", shown)
		reply = resp.ErrorString("ERR unknown command '" + shown + "'")
		name = "unknown"
	}

	h.observe(strings.ToLower(name), reply, start)
	return reply
}

// handleGet handles GET key.
func (h *CommandHandler) handleGet(args [][]byte) resp.Frame {
	if len(args) != 2 {
		return wrongArgs("get")
	}
	v, ok := h.store.Get(string(args[1]))
	if !ok {
		return resp.Null{}
	}
	return resp.BulkString(v)
}

// handleSet handles SET key value.
func (h *CommandHandler) handleSet(args [][]byte) resp.Frame {
	switch {
	case len(args) < 3:
		return wrongArgs("set")
	case len(args) > 3:
		// Options such as EX or NX are not supported.
		return replySyntaxErr
	}
	h.store.Insert(string(args[1]), args[2])
	return replyOK
}

func (h *CommandHandler) observe(command string, reply resp.Frame, start time.Time) {
	result := "ok"
	if _, isErr := reply.(resp.ErrorString); isErr {
		result = "error"
	}
	h.metrics.ObserveCommand(command, result, time.Since(start))
}

func wrongArgs(cmd string) resp.Frame {
	return resp.ErrorString("ERR wrong number of arguments for '" + cmd + "' command")
}

// commandArgs extracts the arguments of a request. Requests are arrays whose
// elements are bulk or simple strings.
func commandArgs(f resp.Frame) ([][]byte, bool) {
	arr, ok := f.(resp.Array)
	if !ok {
		return nil, false
	}
	args := make([][]byte, len(arr))
	for i, el := range arr {
		switch v := el.(type) {
		case resp.BulkString:
			args[i] = v
		case resp.SimpleString:
			args[i] = []byte(v)
		default:
			return nil, false
		}
	}
	return args, true
}

func normalizeCommandName(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	// Uppercase ASCII without allocating for already uppercased tokens.
	if bytes.ContainsAny(b, "abcdefghijklmnopqrstuvwxyz") {
		return strings.ToUpper(string(b))
	}
	return string(b)
}

// printableName returns name as it may appear inside a simple-string reply.
// Names with CR, LF or invalid UTF-8 are escaped Go-style without the
// surrounding quotes.
func printableName(name []byte) string {
	if utf8.Valid(name) && bytes.IndexAny(name, "\r\n") < 0 {
		return string(name)
	}
	q := strconv.Quote(string(name))
	return q[1 : len(q)-1]
}
