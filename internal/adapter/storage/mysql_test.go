package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"

	"cartsync/internal/port"
)

func getMySQL(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/cartsync?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		t.Skipf("MySQL not available: %v", err)
	}
	return db
}

func TestMySQLStore_Roundtrip(t *testing.T) {
	db := getMySQL(t)
	defer db.Close()

	ctx := context.Background()
	store, err := NewMySQLStore(ctx, db)
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	store.Remove(ctx, "cartsync_test_key")

	if _, err := store.Get(ctx, "cartsync_test_key"); !errors.Is(err, port.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := store.Set(ctx, "cartsync_test_key", `first`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "cartsync_test_key", `second`); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	val, err := store.Get(ctx, "cartsync_test_key")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != "second" {
		t.Errorf("expected upserted value, got %q", val)
	}

	if err := store.Remove(ctx, "cartsync_test_key"); err != nil {
		t.Fatalf("remove: %v", err)
	}
}
