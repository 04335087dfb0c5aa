package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()
	dir := t.TempDir()

	fkv, err := NewFileKV(filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("NewFileKV failed: %v", err)
	}
	skv, err := NewSQLiteKV(filepath.Join(dir, "db", "agrivalue-test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteKV failed: %v", err)
	}
	t.Cleanup(func() { _ = skv.Close() })

	return map[string]KV{
		BackendMemory: NewMemoryKV(),
		BackendFile:   fkv,
		BackendSQLite: skv,
	}
}

func TestKV_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := kv.Get(ctx, "@agrivalue_history"); err != nil || ok {
				t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
			}

			if err := kv.Set(ctx, "@agrivalue_history", []byte(`[{"id":"1"}]`)); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			got, ok, err := kv.Get(ctx, "@agrivalue_history")
			if err != nil || !ok {
				t.Fatalf("Get failed: ok=%v err=%v", ok, err)
			}
			if string(got) != `[{"id":"1"}]` {
				t.Errorf("got %q", got)
			}

			if err := kv.Set(ctx, "@agrivalue_history", []byte(`[]`)); err != nil {
				t.Fatalf("overwrite failed: %v", err)
			}
			got, _, _ = kv.Get(ctx, "@agrivalue_history")
			if string(got) != `[]` {
				t.Errorf("overwrite not visible, got %q", got)
			}

			if err := kv.Remove(ctx, "@agrivalue_history"); err != nil {
				t.Fatalf("Remove failed: %v", err)
			}
			if _, ok, _ := kv.Get(ctx, "@agrivalue_history"); ok {
				t.Error("key still present after Remove")
			}
			if err := kv.Remove(ctx, "@agrivalue_history"); err != nil {
				t.Errorf("removing a missing key should succeed, got %v", err)
			}
		})
	}
}

func TestMemoryKV_CopiesValues(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	value := []byte("abc")
	_ = kv.Set(ctx, "k", value)
	value[0] = 'x'

	got, _, _ := kv.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value aliases caller slice: %q", got)
	}
}

func TestFileKV_FileName(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	if err != nil {
		t.Fatalf("NewFileKV failed: %v", err)
	}
	if err := kv.Set(context.Background(), "@agrivalue_history", []byte("[]")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "agrivalue_history.json")); err != nil {
		t.Errorf("expected agrivalue_history.json in data dir: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected exactly one file (no leftover temp files), got %d", len(entries))
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range []string{BackendMemory, BackendFile, BackendSQLite} {
		path := filepath.Join(dir, backend)
		if backend == BackendSQLite {
			path = filepath.Join(dir, "history.db")
		}
		kv, err := Open(backend, path)
		if err != nil {
			t.Fatalf("Open(%s) failed: %v", backend, err)
		}
		_ = kv.Close()
	}
	if _, err := Open("redis", dir); err == nil {
		t.Error("expected error for unknown backend")
	}
}
