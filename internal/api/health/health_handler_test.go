package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eyasluna999/wertigo/internal/api/embedding"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

type stubDataset struct {
	size int
}

func (d stubDataset) DatasetSize() int { return d.size }

type stubEncoder struct{}

func (stubEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (stubEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}

func loadedStore(t *testing.T) *embedding.Store {
	t.Helper()
	m := embedding.Matrix{
		Model:     "test",
		Dimension: 2,
		IDs:       []uuid.UUID{uuid.New()},
		Vectors:   [][]float32{{1, 0}},
	}
	data, err := json.Marshal(m)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "embeddings.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	store := embedding.NewStore()
	require.NoError(t, store.Load(path))
	return store
}

func TestHealthHealthy(t *testing.T) {
	h := NewHandlerImpl(stubPinger{}, stubEncoder{}, loadedStore(t), stubDataset{size: 42}, slog.Default())

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.True(t, status.DatabaseOK)
	assert.True(t, status.DatasetLoaded)
	assert.True(t, status.EncoderLoaded)
	assert.True(t, status.EmbeddingsLoaded)
	assert.Empty(t, status.Message)
}

func TestHealthDegraded(t *testing.T) {
	h := NewHandlerImpl(stubPinger{err: errors.New("connection refused")}, nil, embedding.NewStore(), stubDataset{}, slog.Default())

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	// degraded is still 200; probes read the component flags
	assert.Equal(t, http.StatusOK, rec.Code)
	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "degraded", status.Status)
	assert.False(t, status.DatabaseOK)
	assert.False(t, status.DatasetLoaded)
	assert.False(t, status.EncoderLoaded)
	assert.False(t, status.EmbeddingsLoaded)
	assert.NotEmpty(t, status.Message)
}
