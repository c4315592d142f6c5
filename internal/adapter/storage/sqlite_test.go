package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"cartsync/internal/port"
)

func TestSQLiteStore_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cartsync.db")
	store, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, port.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := store.Set(ctx, "menu_cache", `{"payload":{}}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "menu_cache", `{"payload":{"v":2}}`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	val, err := store.Get(ctx, "menu_cache")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != `{"payload":{"v":2}}` {
		t.Errorf("overwrite lost: %q", val)
	}

	if err := store.Remove(ctx, "menu_cache"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := store.Get(ctx, "menu_cache"); !errors.Is(err, port.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after remove, got %v", err)
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cartsync.db")
	ctx := context.Background()

	store, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Set(ctx, "order_history", `[{"id":"a"}]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	store.Close()

	reopened, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	val, err := reopened.Get(ctx, "order_history")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if val != `[{"id":"a"}]` {
		t.Errorf("data lost across reopen: %q", val)
	}
}
