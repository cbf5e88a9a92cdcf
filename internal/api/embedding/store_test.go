package embedding

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMatrix(t *testing.T, m Matrix) string {
	t.Helper()
	data, err := json.Marshal(m)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "embeddings.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestStoreLoad(t *testing.T) {
	id1, id2 := uuid.New(), uuid.New()
	path := writeMatrix(t, Matrix{
		Model:     "gemini-embedding-001",
		Dimension: 3,
		IDs:       []uuid.UUID{id1, id2},
		Vectors:   [][]float32{{1, 0, 0}, {0, 1, 0}},
	})

	store := NewStore()
	require.NoError(t, store.Load(path))

	assert.True(t, store.Available())
	assert.Equal(t, 2, store.Count())

	v, ok := store.VectorByID(id2)
	require.True(t, ok)
	assert.Equal(t, []float32{0, 1, 0}, v)

	_, ok = store.VectorByID(uuid.New())
	assert.False(t, ok)
}

func TestStoreLoadRejectsMismatchedLengths(t *testing.T) {
	path := writeMatrix(t, Matrix{
		IDs:     []uuid.UUID{uuid.New()},
		Vectors: [][]float32{{1, 0}, {0, 1}},
	})
	store := NewStore()
	assert.Error(t, store.Load(path))
	assert.False(t, store.Available())
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore()
	assert.Error(t, store.Load(filepath.Join(t.TempDir(), "nope.json")))
	assert.False(t, store.Available())
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Zero(t, Cosine([]float32{1}, []float32{1, 2}))
}
