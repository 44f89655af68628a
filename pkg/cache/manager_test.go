package cache

import (
	"context"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client. Tests are skipped when no
// Redis is listening locally; manager_integration_test.go covers the same
// paths against a container.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewManager(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	manager := NewManager(client, 0)
	if manager == nil {
		t.Fatal("NewManager returned nil")
	}
	if manager.redis != client {
		t.Error("Manager redis client not set correctly")
	}
	if manager.Retention() != DefaultRetention {
		t.Errorf("Retention() = %v, want %v", manager.Retention(), DefaultRetention)
	}
}

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager should panic with nil redis client")
		}
	}()
	NewManager(nil, time.Hour)
}

func TestManager_SetAndGet(t *testing.T) {
	manager := NewManager(setupTestRedis(t), time.Hour)
	runSetAndGet(t, manager)
}

func TestManager_Get_CacheMiss(t *testing.T) {
	manager := NewManager(setupTestRedis(t), time.Hour)

	_, err := manager.Get(context.Background(), Key{Endpoint: "https://api.github.com/repos/none/none"})
	if err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestManager_Set_ExpiredEntry(t *testing.T) {
	manager := NewManager(setupTestRedis(t), time.Hour)
	ctx := context.Background()
	key := Key{Endpoint: "https://api.github.com/repos/acme/old"}

	entry := &Entry{
		Data:    []byte(`{}`),
		Expires: time.Now().Add(-1 * time.Hour),
	}
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := manager.Get(ctx, key); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss for expired entry, got %v", err)
	}
}

func TestManager_DeleteAndTouch(t *testing.T) {
	manager := NewManager(setupTestRedis(t), time.Hour)
	runDeleteAndTouch(t, manager)
}

func TestManager_Set_NilEntry(t *testing.T) {
	manager := NewManager(redis.NewClient(&redis.Options{Addr: "localhost:6379"}), time.Hour)

	if err := manager.Set(context.Background(), Key{Endpoint: "x"}, nil); err == nil {
		t.Error("Set with nil entry should return error")
	}
	if err := manager.Touch(context.Background(), Key{Endpoint: "x"}, nil); err == nil {
		t.Error("Touch with nil entry should return error")
	}
}

func runSetAndGet(t *testing.T, manager *Manager) {
	t.Helper()
	ctx := context.Background()
	key := Key{Endpoint: "https://api.github.com/repos/acme/widget", Authenticated: true}

	entry := &Entry{
		Data:       []byte(`{"stargazers_count": 42}`),
		ETag:       `"abc123"`,
		StatusCode: 200,
		Expires:    time.Now().Add(5 * time.Minute),
		CachedAt:   time.Now(),
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	retrieved, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if string(retrieved.Data) != string(entry.Data) {
		t.Errorf("Data mismatch: got %s, want %s", retrieved.Data, entry.Data)
	}
	if retrieved.ETag != entry.ETag {
		t.Errorf("ETag mismatch: got %s, want %s", retrieved.ETag, entry.ETag)
	}
	if retrieved.StatusCode != entry.StatusCode {
		t.Errorf("StatusCode mismatch: got %d, want %d", retrieved.StatusCode, entry.StatusCode)
	}

	// Anonymous scope must not see the authenticated entry
	if _, err := manager.Get(ctx, Key{Endpoint: key.Endpoint}); err != ErrCacheMiss {
		t.Errorf("anonymous Get = %v, want ErrCacheMiss", err)
	}
}

func runDeleteAndTouch(t *testing.T, manager *Manager) {
	t.Helper()
	ctx := context.Background()
	key := Key{Endpoint: "https://api.github.com/repos/acme/widget"}

	entry := &Entry{
		Data:    []byte(`{}`),
		ETag:    `"e"`,
		Expires: time.Now().Add(time.Minute),
	}
	before := promtest.ToFloat64(CacheBytesWritten)
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	afterSet := promtest.ToFloat64(CacheBytesWritten)
	if afterSet <= before {
		t.Errorf("bytes written did not grow on Set: %v -> %v", before, afterSet)
	}

	if err := manager.Touch(ctx, key, entry); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}
	if afterTouch := promtest.ToFloat64(CacheBytesWritten); afterTouch <= afterSet {
		t.Errorf("bytes written did not count the Touch rewrite: %v -> %v", afterSet, afterTouch)
	}
	retrieved, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after Touch failed: %v", err)
	}
	if retrieved.TTL() < 59*time.Minute {
		t.Errorf("Touch did not extend retention: ttl %v", retrieved.TTL())
	}

	if err := manager.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := manager.Get(ctx, key); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after Delete, got %v", err)
	}
}
