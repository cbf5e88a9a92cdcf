package destination

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/eyasluna999/wertigo/internal/api"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	GetCities(w http.ResponseWriter, r *http.Request)
	GetCategories(w http.ResponseWriter, r *http.Request)
	GetDatasetInfo(w http.ResponseWriter, r *http.Request)
	GetDestination(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	destinationService Service
	logger             *slog.Logger
}

func NewHandlerImpl(destinationService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		destinationService: destinationService,
		logger:             logger,
	}
}

func (h *HandlerImpl) GetCities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetCities"))

	cities, err := h.destinationService.GetCities(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get cities", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve cities")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{"cities": cities})
}

func (h *HandlerImpl) GetCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetCategories"))

	categories, err := h.destinationService.GetCategories(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get categories", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve categories")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{"categories": categories})
}

func (h *HandlerImpl) GetDatasetInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetDatasetInfo"))

	info, err := h.destinationService.GetDatasetInfo(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get dataset info", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve dataset info")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, info)
}

func (h *HandlerImpl) GetDestination(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetDestination"))

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid destination ID format")
		return
	}

	d, err := h.destinationService.GetDestinationByID(ctx, id)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get destination", slog.Any("error", err), slog.String("id", id.String()))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve destination")
		return
	}
	if d == nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "Destination not found")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, d)
}
