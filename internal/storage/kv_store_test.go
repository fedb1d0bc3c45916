// ABOUTME: Tests for the Charm KV vector store using an in-memory backend
// ABOUTME: Verifies prefix scoping, cosine ordering, and delete semantics
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/harper/edurag/internal/charm"
	"github.com/harper/edurag/internal/logging"
	"github.com/harper/edurag/internal/models"
)

// mapKV is an in-memory kvBackend
type mapKV struct {
	data map[string][]byte
}

func newMapKV() *mapKV {
	return &mapKV{data: make(map[string][]byte)}
}

func (m *mapKV) SetJSONBatch(entries map[string]interface{}) error {
	for key, value := range entries {
		b, err := json.Marshal(value)
		if err != nil {
			return err
		}
		m.data[key] = b
	}
	return nil
}

func (m *mapKV) GetJSON(key string, dest interface{}) error {
	b, ok := m.data[key]
	if !ok {
		return fmt.Errorf("key not found: %s", key)
	}
	return json.Unmarshal(b, dest)
}

func (m *mapKV) DeleteKeys(keys []string) (int, error) {
	for _, key := range keys {
		delete(m.data, key)
	}
	return len(keys), nil
}

func (m *mapKV) ListKeys(prefix string) ([]string, error) {
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *mapKV) Close() error { return nil }

func kvChunk(id, source string, vector []float64) models.Chunk {
	return models.Chunk{
		ID:        id,
		Text:      "Newton's second law relates force, mass, and acceleration.",
		Embedding: vector,
		Metadata:  models.ChunkMetadata{SourceFile: source, ContentType: models.ContentTypeEducational},
	}
}

func TestKVStoreQuery(t *testing.T) {
	store := newKVStore(newMapKV(), nil)
	ctx := context.Background()

	chunks := []models.Chunk{
		kvChunk("x", "physics.pdf", []float64{1, 0}),
		kvChunk("y", "physics.pdf", []float64{0, 1}),
		kvChunk("z", "physics 2.pdf", []float64{1, 1}),
	}
	if err := store.Upsert(ctx, chunks); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	matches, err := store.Query(ctx, []float64{1, 0}, 2, models.SearchFilter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Query() returned %d matches, want 2", len(matches))
	}
	if matches[0].Chunk.ID != "x" || matches[1].Chunk.ID != "z" {
		t.Errorf("order = [%s %s], want [x z]", matches[0].Chunk.ID, matches[1].Chunk.ID)
	}
	if math.Abs(matches[0].Distance) > 1e-9 {
		t.Errorf("Distance = %v, want 0", matches[0].Distance)
	}

	filtered, err := store.Query(ctx, []float64{1, 0}, 10, models.SearchFilter{SourceFile: "physics.pdf"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("filtered Query() returned %d matches, want 2", len(filtered))
	}
}

func TestKVStoreDeleteBySource(t *testing.T) {
	store := newKVStore(newMapKV(), nil)
	ctx := context.Background()

	chunks := []models.Chunk{
		kvChunk("a", "unit.pdf", []float64{1, 0}),
		kvChunk("b", "unit.pdf", []float64{1, 0}),
		kvChunk("c", "unit.pdf.bak", []float64{1, 0}),
	}
	if err := store.Upsert(ctx, chunks); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	n, err := store.DeleteBySource(ctx, "unit.pdf")
	if err != nil {
		t.Fatalf("DeleteBySource() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteBySource() = %d, want 2", n)
	}

	count, _ := store.Count(ctx)
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if len(stats.SourceFiles) != 1 || stats.SourceFiles[0] != "unit.pdf.bak" {
		t.Errorf("SourceFiles = %v, want [unit.pdf.bak]", stats.SourceFiles)
	}
}

func TestKVStoreClearKeepsOtherKeys(t *testing.T) {
	kv := newMapKV()
	store := newKVStore(kv, nil)
	ctx := context.Background()

	_ = kv.SetJSONBatch(map[string]interface{}{"settings:theme": "dark"})
	if err := store.Upsert(ctx, []models.Chunk{kvChunk("a", "s.pdf", []float64{1})}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	count, _ := store.Count(ctx)
	if count != 0 {
		t.Errorf("Count() = %d, want 0", count)
	}
	if _, ok := kv.data["settings:theme"]; !ok {
		t.Error("Clear() removed a non-chunk key")
	}
}

func TestKVStoreRejectsInvalidChunk(t *testing.T) {
	store := newKVStore(newMapKV(), nil)
	bad := kvChunk("a", "s.pdf", nil)
	if err := store.Upsert(context.Background(), []models.Chunk{bad}); err == nil {
		t.Error("Upsert() without embedding should fail")
	}
}

func TestKVStoreSkipsUnreadableChunks(t *testing.T) {
	kv := newMapKV()
	var logs bytes.Buffer
	store := newKVStore(kv, logging.New(&logs, "warn"))
	ctx := context.Background()

	if err := store.Upsert(ctx, []models.Chunk{kvChunk("good", "physics.pdf", []float64{1, 0})}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	kv.data[charm.ChunkKey("physics.pdf", "broken")] = []byte("{not json")

	matches, err := store.Query(ctx, []float64{1, 0}, 5, models.SearchFilter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(matches) != 1 || matches[0].Chunk.ID != "good" {
		t.Errorf("Query() = %v, want only the readable chunk", matches)
	}
	if !strings.Contains(logs.String(), "skipping unreadable chunk") {
		t.Errorf("expected a warning for the broken chunk, got %q", logs.String())
	}
}

func TestKVStoreAllChunksUnreadable(t *testing.T) {
	kv := newMapKV()
	store := newKVStore(kv, nil)
	ctx := context.Background()

	kv.data[charm.ChunkKey("physics.pdf", "a")] = []byte("{not json")
	kv.data[charm.ChunkKey("physics.pdf", "b")] = []byte("[]")

	n, err := store.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Count() = %d, %v, want 2 keys", n, err)
	}
	if _, err := store.Query(ctx, []float64{1, 0}, 5, models.SearchFilter{}); err == nil {
		t.Error("Query() over a store with no readable chunks should fail, not return nothing")
	}
	if _, err := store.Stats(ctx); err == nil {
		t.Error("Stats() over a store with no readable chunks should fail")
	}
}
