package recommendation

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/eyasluna999/wertigo/internal/api"
	"github.com/eyasluna999/wertigo/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Recommend(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	recommendationService Service
	logger                *slog.Logger
}

func NewHandlerImpl(recommendationService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		recommendationService: recommendationService,
		logger:                logger,
	}
}

func (h *HandlerImpl) Recommend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Recommend"))

	var req types.RecommendRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid recommend request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.recommendationService.Recommend(ctx, req)
	if err != nil {
		if errors.Is(err, ErrEmptyQuery) {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Query must not be empty")
			return
		}
		l.ErrorContext(ctx, "Recommendation failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to generate recommendations")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}
