package credential

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestStore_SetGetClear(t *testing.T) {
	backend := NewMemoryBackend("")
	store := NewStore(backend, zerolog.Nop())

	if _, ok := store.Get(); ok {
		t.Fatalf("expected empty store")
	}

	if err := store.Set("T1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if tok, ok := store.Get(); !ok || tok != "T1" {
		t.Fatalf("expected T1, got %q (%v)", tok, ok)
	}
	if backend.Token() != "T1" {
		t.Fatalf("expected token persisted, got %q", backend.Token())
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := store.Get(); ok {
		t.Fatalf("expected token cleared")
	}
	if backend.Token() != "" {
		t.Fatalf("expected persisted token removed")
	}
}

func TestStore_SetFailureKeepsPrevious(t *testing.T) {
	backend := NewMemoryBackend("")
	store := NewStore(backend, zerolog.Nop())
	_ = store.Set("old")

	backend.SaveErr = errors.New("disk full")
	if err := store.Set("new"); err == nil {
		t.Fatalf("expected error")
	}
	if tok, _ := store.Get(); tok != "old" {
		t.Fatalf("expected previous token kept, got %q", tok)
	}
}

func TestStore_ClearFailureStillDropsMemory(t *testing.T) {
	backend := NewMemoryBackend("")
	store := NewStore(backend, zerolog.Nop())
	_ = store.Set("T1")

	backend.DeleteErr = errors.New("read-only")
	if err := store.Clear(); err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := store.Get(); ok {
		t.Fatalf("expected in-memory token dropped")
	}
}

func TestStore_ClearIf(t *testing.T) {
	backend := NewMemoryBackend("")
	store := NewStore(backend, zerolog.Nop())
	if err := store.Set("T2"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	cleared, err := store.ClearIf("T1")
	if err != nil || cleared {
		t.Fatalf("superseded token must not clear, got %v %v", cleared, err)
	}
	if tok, _ := store.Get(); tok != "T2" || backend.Token() != "T2" {
		t.Fatalf("expected T2 kept, got %q / %q", tok, backend.Token())
	}

	cleared, err = store.ClearIf("T2")
	if err != nil || !cleared {
		t.Fatalf("current token must clear, got %v %v", cleared, err)
	}
	if _, ok := store.Get(); ok || backend.Token() != "" {
		t.Fatalf("expected token cleared everywhere")
	}

	if cleared, _ := store.ClearIf(""); cleared {
		t.Fatalf("empty store must report nothing cleared")
	}
}

func TestStore_EmptySetClears(t *testing.T) {
	backend := NewMemoryBackend("")
	store := NewStore(backend, zerolog.Nop())
	_ = store.Set("T1")

	if err := store.Set(""); err != nil {
		t.Fatalf("Set empty: %v", err)
	}
	if _, ok := store.Get(); ok || backend.Token() != "" {
		t.Fatalf("expected empty Set to clear")
	}
}

func TestFileBackend_SurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	first := NewStore(NewFileBackend(path), zerolog.Nop())
	if err := first.Set("opaque.token.value"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600, got %o", perm)
	}

	// A new store over the same file simulates a restart.
	second := NewStore(NewFileBackend(path), zerolog.Nop())
	found, err := second.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found {
		t.Fatalf("expected persisted token")
	}
	if tok, _ := second.Get(); tok != "opaque.token.value" {
		t.Fatalf("unexpected token %q", tok)
	}

	if err := second.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, got %v", err)
	}

	third := NewStore(NewFileBackend(path), zerolog.Nop())
	if found, err := third.Load(context.Background()); err != nil || found {
		t.Fatalf("expected no token after clear, found=%v err=%v", found, err)
	}
}

func TestFileBackend_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := NewStore(NewFileBackend(path), zerolog.Nop())
	if _, err := store.Load(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFileBackend_DeleteMissingIsNoop(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "absent.json"))
	if err := b.Delete(context.Background()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}
