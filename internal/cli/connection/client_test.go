package connection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/yndnr/kvmesh-go/internal/resp"
	"github.com/yndnr/kvmesh-go/internal/server/redisserver"
	"github.com/yndnr/kvmesh-go/internal/storage/memory"
)

func startServer(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	srv := redisserver.New(nil, memory.New(4), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := srv.Serve(context.Background(), ln); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return ln.Addr().String()
}

func TestNewClient_DefaultTimeout(t *testing.T) {
	c := NewClient("127.0.0.1:1", 0)
	if c.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", c.timeout, DefaultTimeout)
	}
	if c.Addr() != "127.0.0.1:1" {
		t.Errorf("Addr() = %q", c.Addr())
	}
}

func TestClient_Do(t *testing.T) {
	addr := startServer(t)
	c := NewClient(addr, time.Second)
	defer c.Close()

	ctx := context.Background()

	f, err := c.Do(ctx, "GET", "hello")
	if err != nil {
		t.Fatalf("Do(GET) error = %v", err)
	}
	if _, ok := f.(resp.Null); !ok {
		t.Errorf("Do(GET) before SET = %#v, want Null", f)
	}

	f, err = c.Do(ctx, "SET", "hello", "world")
	if err != nil {
		t.Fatalf("Do(SET) error = %v", err)
	}
	if f != resp.SimpleString("OK") {
		t.Errorf("Do(SET) = %#v, want +OK", f)
	}

	f, err = c.Do(ctx, "GET", "hello")
	if err != nil {
		t.Fatalf("Do(GET) error = %v", err)
	}
	if b, ok := f.(resp.BulkString); !ok || string(b) != "world" {
		t.Errorf("Do(GET) = %#v, want bulk world", f)
	}
}

func TestClient_ErrorReplyIsNotError(t *testing.T) {
	addr := startServer(t)
	c := NewClient(addr, time.Second)
	defer c.Close()

	f, err := c.Do(context.Background(), "PING")
	if err != nil {
		t.Fatalf("Do(PING) error = %v", err)
	}
	if _, ok := f.(resp.ErrorString); !ok {
		t.Errorf("Do(PING) = %#v, want error reply", f)
	}
}

func TestClient_EmptyCommand(t *testing.T) {
	c := NewClient("127.0.0.1:1", time.Second)
	if _, err := c.Do(context.Background()); err == nil {
		t.Error("Do() with no args should fail")
	}
}

func TestClient_ConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	c := NewClient(addr, time.Second)
	if _, err := c.Do(context.Background(), "GET", "k"); err == nil {
		t.Error("Do() against a closed port should fail")
	}
}

func TestClient_ServerClosed(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		nc, err := ln.Accept()
		if err != nil {
			return
		}
		buf := make([]byte, 64)
		_, _ = nc.Read(buf)
		nc.Close()
	}()

	c := NewClient(ln.Addr().String(), time.Second)
	_, err = c.Do(context.Background(), "GET", "k")
	if !errors.Is(err, ErrServerClosed) {
		t.Errorf("Do() error = %v, want ErrServerClosed", err)
	}
	if c.nc != nil {
		t.Error("connection should be dropped after a failed round trip")
	}
}

func TestClient_Reconnects(t *testing.T) {
	addr := startServer(t)
	c := NewClient(addr, time.Second)
	defer c.Close()

	ctx := context.Background()
	if _, err := c.Do(ctx, "SET", "k", "v"); err != nil {
		t.Fatalf("Do(SET) error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err := c.Do(ctx, "GET", "k")
	if err != nil {
		t.Fatalf("Do(GET) after Close error = %v", err)
	}
	if b, ok := f.(resp.BulkString); !ok || string(b) != "v" {
		t.Errorf("Do(GET) = %#v, want bulk v", f)
	}
}
