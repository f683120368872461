package repl

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/yndnr/kvmesh-go/internal/cli/output"
	"github.com/yndnr/kvmesh-go/internal/resp"
)

// fakeExecutor records commands and answers from a small in-memory map.
type fakeExecutor struct {
	calls [][]string
	data  map[string]string
	err   error
}

func (f *fakeExecutor) Do(_ context.Context, args ...string) (resp.Frame, error) {
	f.calls = append(f.calls, args)
	if f.err != nil {
		return nil, f.err
	}
	switch strings.ToUpper(args[0]) {
	case "SET":
		f.data[args[1]] = args[2]
		return resp.SimpleString("OK"), nil
	case "GET":
		v, ok := f.data[args[1]]
		if !ok {
			return resp.Null{}, nil
		}
		return resp.BulkString(v), nil
	}
	return resp.ErrorString("ERR unknown command '" + args[0] + "'"), nil
}

func newTestREPL(input string, exec Executor) (*REPL, *bytes.Buffer) {
	out := &bytes.Buffer{}
	r := New(exec, output.RawFormatter{}, "test",
		WithIO(strings.NewReader(input), out),
		WithHistory(NewHistory("")),
	)
	return r, out
}

func TestNew(t *testing.T) {
	r := New(&fakeExecutor{}, output.RawFormatter{}, "127.0.0.1:6379")
	if r.completer == nil {
		t.Error("completer should be initialized")
	}
	if r.history == nil {
		t.Error("history should be initialized")
	}
	if r.prompt != "127.0.0.1:6379> " {
		t.Errorf("prompt = %q", r.prompt)
	}
}

func TestREPL_Run_Exit(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"exit command", "exit\nGET never\n"},
		{"quit command", "QUIT\nGET never\n"},
		{"EOF", ""}, // No newline, simulates Ctrl+D
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{}
			r, _ := newTestREPL(tt.input, exec)

			if err := r.Run(context.Background()); err != nil {
				t.Errorf("Run() returned error: %v", err)
			}
			if len(exec.calls) != 0 {
				t.Errorf("commands after exit were sent: %v", exec.calls)
			}
		})
	}
}

func TestREPL_Run_EmptyLines(t *testing.T) {
	r, out := newTestREPL("\n\n\nexit\n", &fakeExecutor{})

	if err := r.Run(context.Background()); err != nil {
		t.Errorf("Run() returned error: %v", err)
	}

	if prompts := strings.Count(out.String(), "test>"); prompts < 4 {
		t.Errorf("expected at least 4 prompts, got %d", prompts)
	}
}

func TestREPL_Run_Commands(t *testing.T) {
	exec := &fakeExecutor{data: map[string]string{}}
	r, out := newTestREPL("GET hello\nSET hello \"big world\"\nGET hello\nPING\n", exec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	want := [][]string{
		{"GET", "hello"},
		{"SET", "hello", "big world"},
		{"GET", "hello"},
		{"PING"},
	}
	if !reflect.DeepEqual(exec.calls, want) {
		t.Errorf("calls = %q, want %q", exec.calls, want)
	}

	text := out.String()
	for _, s := range []string{"(nil)", "OK", `"big world"`, "(error) ERR unknown command 'PING'"} {
		if !strings.Contains(text, s) {
			t.Errorf("output missing %q:\n%s", s, text)
		}
	}
}

func TestREPL_Run_LastLineWithoutNewline(t *testing.T) {
	exec := &fakeExecutor{data: map[string]string{}}
	r, _ := newTestREPL("SET a b", exec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if len(exec.calls) != 1 {
		t.Errorf("calls = %v, want the final unterminated line executed", exec.calls)
	}
}

func TestREPL_Run_ExecutorError(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("connection refused")}
	r, out := newTestREPL("GET k\nexit\n", exec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if !strings.Contains(out.String(), "Error: connection refused") {
		t.Errorf("output should report the error:\n%s", out.String())
	}
}

func TestREPL_Run_UnbalancedQuotes(t *testing.T) {
	exec := &fakeExecutor{}
	r, out := newTestREPL("SET k \"open\nexit\n", exec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if len(exec.calls) != 0 {
		t.Errorf("malformed line was sent: %v", exec.calls)
	}
	if !strings.Contains(out.String(), "unbalanced quotes") {
		t.Errorf("output should report the parse error:\n%s", out.String())
	}
}

func TestREPL_Run_Builtins(t *testing.T) {
	exec := &fakeExecutor{data: map[string]string{}}
	r, out := newTestREPL("help\nhelp s\nGET a\nhistory\nhelp zzz\n", exec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if len(exec.calls) != 1 {
		t.Errorf("builtins must not reach the server, calls = %v", exec.calls)
	}

	text := out.String()
	for _, s := range []string{"SET key value", "GET key", "   3  GET a", `no command matches "zzz"`} {
		if !strings.Contains(text, s) {
			t.Errorf("output missing %q:\n%s", s, text)
		}
	}
}

func TestREPL_Run_CancelledContext(t *testing.T) {
	exec := &fakeExecutor{}
	r, _ := newTestREPL("GET a\n", exec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if len(exec.calls) != 0 {
		t.Errorf("cancelled REPL sent commands: %v", exec.calls)
	}
}

func TestREPL_Run_SavesHistory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "history")
	out := &bytes.Buffer{}
	exec := &fakeExecutor{data: map[string]string{}}
	r := New(exec, output.RawFormatter{}, "test",
		WithIO(strings.NewReader("SET a 1\nGET a\nexit\n"), out),
		WithHistory(NewHistory(file)),
	)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	h := NewHistory(file)
	if err := h.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"SET a 1", "GET a", "exit"}
	if !reflect.DeepEqual(h.Entries(), want) {
		t.Errorf("saved history = %q, want %q", h.Entries(), want)
	}
}
