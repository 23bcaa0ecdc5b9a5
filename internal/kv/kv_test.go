package kv

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	if err := store.Set(ctx, "k", []byte(`[1]`)); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}
	if err := store.Set(ctx, "k", []byte(`[1,2]`)); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if string(got) != `[1,2]` {
		t.Fatalf("value = %s, want [1,2]", got)
	}
}

func TestMemory(t *testing.T) {
	testStore(t, NewMemory())
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedis(client, "playback")
	testStore(t, store)

	raw, err := mr.Get("playback:k")
	if err != nil {
		t.Fatalf("key not stored under prefix: %v", err)
	}
	if raw != `[1,2]` {
		t.Fatalf("raw value = %s", raw)
	}
	if ttl := mr.TTL("playback:k"); ttl != 0 {
		t.Fatalf("ttl = %v, want none", ttl)
	}
}

func TestPostgres(t *testing.T) {
	url := os.Getenv("TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	pool, err := OpenPostgres(ctx, url)
	if err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}
	t.Cleanup(pool.Close)

	store := NewPostgres(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("unexpected schema error: %v", err)
	}
	if _, err := pool.Exec(ctx, `DELETE FROM kv_store WHERE key IN ('k', 'missing')`); err != nil {
		t.Fatalf("unexpected cleanup error: %v", err)
	}
	testStore(t, store)
}
