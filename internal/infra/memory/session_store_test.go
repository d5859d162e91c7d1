package memory

import (
	"testing"

	"smart-break-quiz/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	store.Put(&app.Run{ID: "run-1", UserID: "u1"})
	run, ok := store.Get("run-1")
	if !ok {
		t.Fatalf("expected run present")
	}
	if run.UserID != "u1" {
		t.Fatalf("expected u1, got %s", run.UserID)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 run, got %d", store.Len())
	}

	store.Delete("run-1")
	if _, ok := store.Get("run-1"); ok {
		t.Fatalf("expected run removed")
	}
	store.Delete("run-1")
}
