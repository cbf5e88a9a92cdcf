package embedding

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/google/uuid"
)

// Matrix is the persisted embedding artifact: one vector per destination,
// keyed by destination ID. Vectors are written once by the generation script
// and treated as read-only afterwards.
type Matrix struct {
	Model     string      `json:"model"`
	Dimension int         `json:"dimension"`
	IDs       []uuid.UUID `json:"ids"`
	Vectors   [][]float32 `json:"vectors"`
}

// Store holds the loaded destination embedding matrix in memory with an
// ID index for constant-time lookup.
type Store struct {
	matrix *Matrix
	byID   map[uuid.UUID]int
}

// NewStore returns an empty, unavailable store. Call Load to populate it.
func NewStore() *Store {
	return &Store{byID: make(map[uuid.UUID]int)}
}

// Load reads the embedding matrix from disk. A missing file is not an
// error condition for the caller to abort on; the store simply stays
// unavailable and retrieval falls back to database strategies.
func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading embeddings file %s: %w", path, err)
	}
	var m Matrix
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parsing embeddings file %s: %w", path, err)
	}
	if len(m.IDs) != len(m.Vectors) {
		return fmt.Errorf("embeddings file %s has %d ids but %d vectors", path, len(m.IDs), len(m.Vectors))
	}
	for i, v := range m.Vectors {
		if m.Dimension != 0 && len(v) != m.Dimension {
			return fmt.Errorf("embeddings file %s vector %d has dimension %d, want %d", path, i, len(v), m.Dimension)
		}
	}
	byID := make(map[uuid.UUID]int, len(m.IDs))
	for i, id := range m.IDs {
		byID[id] = i
	}
	s.matrix = &m
	s.byID = byID
	return nil
}

// Available reports whether a non-empty matrix is loaded.
func (s *Store) Available() bool {
	return s.matrix != nil && len(s.matrix.Vectors) > 0
}

// Count returns the number of stored vectors.
func (s *Store) Count() int {
	if s.matrix == nil {
		return 0
	}
	return len(s.matrix.Vectors)
}

// VectorByID returns the embedding for a destination ID.
func (s *Store) VectorByID(id uuid.UUID) ([]float32, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return s.matrix.Vectors[idx], true
}

// Cosine returns the cosine similarity of two vectors, or 0 when either has
// zero magnitude or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
