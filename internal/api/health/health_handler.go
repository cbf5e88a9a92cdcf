package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/eyasluna999/wertigo/internal/api"
	"github.com/eyasluna999/wertigo/internal/api/embedding"
)

// Pinger probes database connectivity. Satisfied by pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatasetStatus reports how many destinations are loaded for ranking.
type DatasetStatus interface {
	DatasetSize() int
}

// Status is the health endpoint payload. Degraded components are flagged
// individually so probes can tell a dead database from a missing model.
type Status struct {
	Status           string `json:"status"`
	DatabaseOK       bool   `json:"database_ok"`
	DatasetLoaded    bool   `json:"dataset_loaded"`
	EncoderLoaded    bool   `json:"encoder_loaded"`
	EmbeddingsLoaded bool   `json:"embeddings_loaded"`
	Message          string `json:"message,omitempty"`
}

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Health(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	db      Pinger
	encoder embedding.Encoder
	store   *embedding.Store
	dataset DatasetStatus
	logger  *slog.Logger
}

func NewHandlerImpl(db Pinger, encoder embedding.Encoder, store *embedding.Store, dataset DatasetStatus, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		db:      db,
		encoder: encoder,
		store:   store,
		dataset: dataset,
		logger:  logger,
	}
}

// Health always answers 200; the body carries the component states. The
// server keeps serving database retrieval even without the semantic stack.
func (h *HandlerImpl) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := Status{
		DatabaseOK:       h.db.Ping(ctx) == nil,
		DatasetLoaded:    h.dataset.DatasetSize() > 0,
		EncoderLoaded:    h.encoder != nil,
		EmbeddingsLoaded: h.store.Available(),
	}
	status.Status = "healthy"
	if !status.DatabaseOK || !status.DatasetLoaded || !status.EncoderLoaded || !status.EmbeddingsLoaded {
		status.Status = "degraded"
		status.Message = "Some components are unavailable. Semantic ranking may be limited."
		h.logger.WarnContext(ctx, "Health check degraded",
			slog.Bool("database_ok", status.DatabaseOK),
			slog.Bool("dataset_loaded", status.DatasetLoaded),
			slog.Bool("encoder_loaded", status.EncoderLoaded),
			slog.Bool("embeddings_loaded", status.EmbeddingsLoaded),
		)
	}
	api.WriteJSONResponse(w, r, http.StatusOK, status)
}
