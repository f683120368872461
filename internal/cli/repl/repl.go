package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yndnr/kvmesh-go/internal/cli/output"
	"github.com/yndnr/kvmesh-go/internal/resp"
)

// Executor sends one command to the server.
type Executor interface {
	Do(ctx context.Context, args ...string) (resp.Frame, error)
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	exec      Executor
	formatter output.Formatter
	completer *Completer
	history   *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithHistory replaces the default history.
func WithHistory(h *History) Option {
	return func(r *REPL) {
		r.history = h
	}
}

// New creates a new REPL sending commands to exec. The prompt is usually the
// server address.
func New(exec Executor, formatter output.Formatter, prompt string, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		prompt:    prompt + "> ",
		exec:      exec,
		formatter: formatter,
		completer: NewCompleter(),
		history:   NewHistory(DefaultHistoryFile()),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts the REPL loop. It returns nil on exit, quit or end of input.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "warning: load history: %v\n", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			fmt.Fprintf(r.output, "warning: save history: %v\n", err)
		}
	}()

	reader := bufio.NewReader(r.input)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if err == io.EOF && line == "" {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil && err != io.EOF {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.history.Add(line)

		args, perr := SplitArgs(line)
		if perr != nil {
			fmt.Fprintf(r.output, "Error: %v\n", perr)
			continue
		}

		done, xerr := r.execute(ctx, args)
		if xerr != nil {
			fmt.Fprintf(r.output, "Error: %v\n", xerr)
		}
		if done || err == io.EOF {
			return nil
		}
	}
}

// execute runs one parsed line. It reports true when the loop should end.
func (r *REPL) execute(ctx context.Context, args []string) (bool, error) {
	switch strings.ToLower(args[0]) {
	case "exit", "quit":
		return true, nil
	case "help":
		r.help(args[1:])
		return false, nil
	case "history":
		for i, e := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, e)
		}
		return false, nil
	}

	reply, err := r.exec.Do(ctx, args...)
	if err != nil {
		return false, err
	}
	return false, r.formatter.Format(r.output, reply)
}

func (r *REPL) help(args []string) {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	matches := r.completer.Complete(prefix)
	if len(matches) == 0 {
		fmt.Fprintf(r.output, "no command matches %q\n", prefix)
		return
	}
	for _, m := range matches {
		fmt.Fprintf(r.output, "  %-8s %s\n", m, usage[m])
	}
}

var usage = map[string]string{
	"GET":     "GET key",
	"SET":     "SET key value",
	"help":    "help [prefix]",
	"history": "show command history",
	"exit":    "leave interactive mode",
	"quit":    "leave interactive mode",
}
