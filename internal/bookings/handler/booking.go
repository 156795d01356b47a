package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/nathidaum/spots-backend/internal/bookings/service"
	httputil "github.com/nathidaum/spots-backend/pkg/http"
	"github.com/nathidaum/spots-backend/pkg/logger"
	"github.com/nathidaum/spots-backend/pkg/middleware"
	"github.com/nathidaum/spots-backend/pkg/model"
)

type BookingHandler struct {
	service service.BookingService
	auth    func(httprouter.Handle) httprouter.Handle
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, auth func(httprouter.Handle) httprouter.Handle, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	booking, err := h.service.Create(r.Context(), identity.ID, &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

// GetAll lists the caller's own bookings, earliest start date first.
func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	bookings, err := h.service.GetAllForUser(r.Context(), identity.ID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAll", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	id := ps.ByName("id")

	booking, err := h.service.GetByID(r.Context(), identity.ID, id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	id := ps.ByName("id")

	if err := h.service.Cancel(r.Context(), identity.ID, id); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Cancel", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.auth(h.Create))
	router.GET("/api/v1/bookings", h.auth(h.GetAll))
	router.GET("/api/v1/bookings/:id", h.auth(h.GetByID))
	router.DELETE("/api/v1/bookings/:id", h.auth(h.Cancel))
}
