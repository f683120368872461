package logger

import (
	"context"
	"testing"
)

func TestWithLogger_FromContext(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "json")

	ctx := WithLogger(context.Background(), l)
	FromContext(ctx).Info("from context")

	if buf.Len() == 0 {
		t.Error("Logger from context should produce output")
	}
}

func TestFromContext_Default(t *testing.T) {
	if l := FromContext(context.Background()); l == nil {
		t.Error("FromContext should return default logger, got nil")
	}
}

func TestConnID(t *testing.T) {
	ctx := context.Background()
	if got := ConnIDFromContext(ctx); got != "" {
		t.Errorf("ConnIDFromContext(empty) = %q, want empty", got)
	}

	ctx = WithConnID(ctx, "01HZY3V6M4T8Q")
	if got := ConnIDFromContext(ctx); got != "01HZY3V6M4T8Q" {
		t.Errorf("ConnIDFromContext() = %q", got)
	}
}

func TestL(t *testing.T) {
	tests := []struct {
		name   string
		connID string
	}{
		{"with conn id", "01HZY3V6M4T8Q"},
		{"without conn id", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, buf := newBufferLogger(t, "info", "json")

			ctx := WithLogger(context.Background(), l)
			if tt.connID != "" {
				ctx = WithConnID(ctx, tt.connID)
			}
			L(ctx).Info("served")

			entry := decodeLine(t, buf.Bytes())
			got, present := entry["conn_id"]
			if tt.connID == "" {
				if present {
					t.Errorf("conn_id = %v, want absent", got)
				}
				return
			}
			if got != tt.connID {
				t.Errorf("conn_id = %v, want %s", got, tt.connID)
			}
		})
	}
}

func TestContextKeyCollision(t *testing.T) {
	// A plain string key with the same text must not be picked up.
	ctx := context.WithValue(context.Background(), "kvmesh.conn_id", "foreign")
	if got := ConnIDFromContext(ctx); got != "" {
		t.Errorf("ConnIDFromContext() = %q, want empty", got)
	}
}
