package storage

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// CompressingStore wraps a Store, zstd-compressing blobs before they reach
// the underlying backend and decompressing them on read. Snapshot blobs are
// the dominant payload this adapter carries, and they compress well since
// vector components repeat across nearby dimensions and adjacency lists
// repeat ids.
type CompressingStore struct {
	inner Store
}

// NewCompressingStore wraps inner with zstd compression.
func NewCompressingStore(inner Store) *CompressingStore {
	return &CompressingStore{inner: inner}
}

func (s *CompressingStore) Open(name string) (IndexStore, error) {
	h, err := s.inner.Open(name)
	if err != nil {
		return nil, err
	}
	return &compressingIndexStore{inner: h}, nil
}

type compressingIndexStore struct {
	inner IndexStore
}

func (h *compressingIndexStore) PutBlob(key string, blob []byte) error {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("storage: create zstd encoder: %w", err)
	}
	defer enc.Close()

	compressed := enc.EncodeAll(blob, make([]byte, 0, len(blob)))
	return h.inner.PutBlob(key, compressed)
}

func (h *compressingIndexStore) GetBlob(key string) ([]byte, bool, error) {
	data, ok, err := h.inner.GetBlob(key)
	if err != nil || !ok {
		return nil, ok, err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, false, fmt.Errorf("storage: create zstd decoder: %w", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, false, fmt.Errorf("storage: decompress blob: %w", err)
	}
	return out, true, nil
}

func (h *compressingIndexStore) Drop() error {
	return h.inner.Drop()
}
