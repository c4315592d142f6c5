package storage

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"

	"cartsync/internal/port"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestRedisStore_Roundtrip(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	store := NewRedisStore(client)

	client.Del(ctx, "cartsync_test_key")

	if _, err := store.Get(ctx, "cartsync_test_key"); !errors.Is(err, port.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := store.Set(ctx, "cartsync_test_key", `{"a":1}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, err := store.Get(ctx, "cartsync_test_key")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != `{"a":1}` {
		t.Errorf("expected stored value, got %q", val)
	}

	if err := store.Remove(ctx, "cartsync_test_key"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := store.Get(ctx, "cartsync_test_key"); !errors.Is(err, port.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after remove, got %v", err)
	}
}
