package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func testStoreRoundTrip(t *testing.T, s Store) {
	t.Helper()

	h, err := s.Open("collection-a")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, ok, err := h.GetBlob(PrimaryKey); err != nil || ok {
		t.Fatalf("GetBlob on empty store: ok=%v err=%v", ok, err)
	}

	payload := []byte(`{"M":16,"nodes":[]}`)
	if err := h.PutBlob(PrimaryKey, payload); err != nil {
		t.Fatalf("PutBlob: %v", err)
	}

	got, ok, err := h.GetBlob(PrimaryKey)
	if err != nil || !ok {
		t.Fatalf("GetBlob after put: ok=%v err=%v", ok, err)
	}
	if string(got) != string(payload) {
		t.Errorf("GetBlob returned %q, want %q", got, payload)
	}

	// Mutating the returned slice must not corrupt the stored copy.
	got[0] = 'X'
	got2, _, _ := h.GetBlob(PrimaryKey)
	if string(got2) != string(payload) {
		t.Error("GetBlob does not defend against aliasing")
	}

	if err := h.Drop(); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if _, ok, _ := h.GetBlob(PrimaryKey); ok {
		t.Error("expected blob gone after Drop")
	}
}

func TestMemoryStore(t *testing.T) {
	testStoreRoundTrip(t, NewMemoryStore())
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	testStoreRoundTrip(t, s)
}

func TestLocalStore_SeparateStoresAreIsolated(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	a, _ := s.Open("a")
	b, _ := s.Open("b")

	if err := a.PutBlob(PrimaryKey, []byte("a-data")); err != nil {
		t.Fatalf("PutBlob a: %v", err)
	}
	if _, ok, _ := b.GetBlob(PrimaryKey); ok {
		t.Error("expected store b to not see store a's blob")
	}

	if got := filepath.Join(dir, "a", PrimaryKey); !fileExists(got) {
		t.Errorf("expected blob file at %s", got)
	}
}

func TestLocalStore_NoPartialFileOnReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	h, _ := s.Open("coll")
	if err := h.PutBlob("k", []byte("v1")); err != nil {
		t.Fatalf("PutBlob: %v", err)
	}
	if err := h.PutBlob("k", []byte("v2-longer")); err != nil {
		t.Fatalf("PutBlob overwrite: %v", err)
	}

	got, ok, err := h.GetBlob("k")
	if err != nil || !ok {
		t.Fatalf("GetBlob: ok=%v err=%v", ok, err)
	}
	if string(got) != "v2-longer" {
		t.Errorf("expected latest write to win, got %q", got)
	}
}

func TestCompressingStore(t *testing.T) {
	testStoreRoundTrip(t, NewCompressingStore(NewMemoryStore()))
}

func TestCompressingStore_CompressesOnDisk(t *testing.T) {
	dir := t.TempDir()
	local, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	cs := NewCompressingStore(local)

	h, err := cs.Open("coll")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Highly repetitive payload compresses down significantly.
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = 'a'
	}

	if err := h.PutBlob(PrimaryKey, payload); err != nil {
		t.Fatalf("PutBlob: %v", err)
	}

	got, ok, err := h.GetBlob(PrimaryKey)
	if err != nil || !ok {
		t.Fatalf("GetBlob: ok=%v err=%v", ok, err)
	}
	if string(got) != string(payload) {
		t.Error("round-tripped payload does not match original")
	}

	info, err := os.Stat(filepath.Join(dir, "coll", PrimaryKey))
	if err != nil {
		t.Fatalf("stat blob file: %v", err)
	}
	if info.Size() >= int64(len(payload)) {
		t.Errorf("on-disk blob is %d bytes, want fewer than %d", info.Size(), len(payload))
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
