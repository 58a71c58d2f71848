package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"video-quiz-service/internal/domain"
)

func TestSessionStoreLookup(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSessionStore(newClient(mr))
	if err := store.Put(ctx, "tok-1", "u1", time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	user, err := store.Lookup(ctx, "tok-1")
	if err != nil || user != "u1" {
		t.Fatalf("expected u1, got %q %v", user, err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := store.Lookup(ctx, "tok-1"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected expired session to fail, got %v", err)
	}

	_ = store.Put(ctx, "tok-2", "u2", 0)
	if err := store.Delete(ctx, "tok-2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Lookup(ctx, "tok-2"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected deleted session to fail, got %v", err)
	}
}

func TestSessionStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	store := NewSessionStore(newClient(mr))
	mr.Close()

	ctx := context.Background()
	if _, err := store.Lookup(ctx, "tok-1"); err == nil || errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected connection error, got %v", err)
	}
	if err := store.Delete(ctx, "tok-1"); err == nil {
		t.Fatalf("expected delete to report connection error")
	}
}
