package web

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/basicsite/internal/logging"
)

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewHTTPServer("127.0.0.1:0", logging.Nop{}, http.NotFoundHandler(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewHTTPServer("127.0.0.1:99999", logging.Nop{}, http.NotFoundHandler(), time.Second)

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(context.Background())
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected error for invalid address, got nil")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return for invalid address")
	}
}
