package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) (*KVStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestKVStoreSetGet(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	if _, err := s.Get(ctx, "providers"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty store = %v, want ErrNotFound", err)
	}

	if err := s.SetMany(ctx, Entry{Key: "providers", Value: []byte(`[1]`)}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetMany(ctx, Entry{Key: "providers", Value: []byte(`[1,2]`)}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "providers")
	if err != nil || string(got) != `[1,2]` {
		t.Fatalf("Get = %q, %v", got, err)
	}
}

func TestKVStoreDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	if err := s.SetMany(ctx, Entry{Key: "missing"}); err != nil {
		t.Errorf("deleting a missing key = %v", err)
	}

	if err := s.SetMany(ctx, Entry{Key: "defaultProviderID", Value: []byte("abc")}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetMany(ctx, Entry{Key: "defaultProviderID"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "defaultProviderID"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v", err)
	}
}

func TestKVStoreSetManyAndPersistence(t *testing.T) {
	ctx := context.Background()
	s, path := openTestStore(t)

	err := s.SetMany(ctx,
		Entry{Key: "providers", Value: []byte(`[]`)},
		Entry{Key: "defaultProviderID", Value: []byte("p1")},
		Entry{Key: "stale"},
	)
	if err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	s.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	for key, want := range map[string]string{"providers": "[]", "defaultProviderID": "p1"} {
		got, err := reopened.Get(ctx, key)
		if err != nil || string(got) != want {
			t.Errorf("Get(%q) = %q, %v; want %q", key, got, err, want)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("database mode = %o, want 600", perm)
	}
}

func TestKVStoreCanceledContext(t *testing.T) {
	s, _ := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.SetMany(ctx, Entry{Key: "k", Value: []byte("v")}); err == nil {
		t.Error("expected error for canceled context")
	}
}
