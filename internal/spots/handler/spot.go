package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/nathidaum/spots-backend/internal/spots/service"
	httputil "github.com/nathidaum/spots-backend/pkg/http"
	"github.com/nathidaum/spots-backend/pkg/logger"
	"github.com/nathidaum/spots-backend/pkg/middleware"
	"github.com/nathidaum/spots-backend/pkg/model"
)

type SpotHandler struct {
	service service.SpotService
	auth    func(httprouter.Handle) httprouter.Handle
	log     *logger.Logger
}

func NewSpotHandler(service service.SpotService, auth func(httprouter.Handle) httprouter.Handle, log *logger.Logger) *SpotHandler {
	return &SpotHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *SpotHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	var spot model.Spot
	if err := json.NewDecoder(r.Body).Decode(&spot); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), identity.ID, &spot); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, spot); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *SpotHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	query := r.URL.Query()
	filter := model.SpotFilter{
		Type: query.Get("type"),
		City: query.Get("city"),
	}

	spots, total, err := h.service.GetAll(r.Context(), filter, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, spots, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *SpotHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	details, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, details); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SpotHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	id := ps.ByName("id")

	var updates model.SpotUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	spot, err := h.service.Update(r.Context(), identity.ID, id, &updates)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, spot); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SpotHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	id := ps.ByName("id")

	if err := h.service.Delete(r.Context(), identity.ID, id); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *SpotHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/spots", h.auth(h.Create))
	router.GET("/api/v1/spots", h.GetAll)
	router.GET("/api/v1/spots/:id", h.GetByID)
	router.PUT("/api/v1/spots/:id", h.auth(h.Update))
	router.DELETE("/api/v1/spots/:id", h.auth(h.Delete))
}
