package session

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/eyasluna999/wertigo/internal/api"
	"github.com/eyasluna999/wertigo/internal/api/knowledge"
	"github.com/eyasluna999/wertigo/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	CreateSession(w http.ResponseWriter, r *http.Request)
	GetSession(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	sessions  Repository
	knowledge *knowledge.Store
	logger    *slog.Logger
}

func NewHandlerImpl(sessions Repository, store *knowledge.Store, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		sessions:  sessions,
		knowledge: store,
		logger:    logger,
	}
}

func (h *HandlerImpl) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "CreateSession"))

	s, err := h.sessions.CreateSession(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create session", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create session")
		return
	}
	h.knowledge.InitSession(s.ID.String())
	api.WriteJSONResponse(w, r, http.StatusCreated, s)
}

// GetSession returns the persisted session plus its in-memory conversation
// context.
func (h *HandlerImpl) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetSession"))

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	s, err := h.sessions.GetSession(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Session not found")
		case errors.Is(err, types.ErrSessionExpired):
			api.ErrorResponse(w, r, http.StatusGone, "Session has expired")
		default:
			l.ErrorContext(ctx, "Failed to get session", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve session")
		}
		return
	}

	context := h.knowledge.GetConversationContext(s.ID.String(), "")
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{
		"session": s,
		"context": context,
	})
}
