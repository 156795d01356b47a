package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/nathidaum/spots-backend/internal/users/service"
	httputil "github.com/nathidaum/spots-backend/pkg/http"
	"github.com/nathidaum/spots-backend/pkg/logger"
	"github.com/nathidaum/spots-backend/pkg/middleware"
	"github.com/nathidaum/spots-backend/pkg/model"
)

type UserHandler struct {
	service service.UserService
	auth    func(httprouter.Handle) httprouter.Handle
	log     *logger.Logger
}

func NewUserHandler(service service.UserService, auth func(httprouter.Handle) httprouter.Handle, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Register", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	resp, err := h.service.Register(r.Context(), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Register", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, resp); err != nil {
		h.log.Error("failed to write created response", "handler", "Register", "operation", "WriteCreated", "error", err)
	}
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Login", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Login", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "operation", "WriteSuccess", "error", err)
	}
}

// Verify returns the account behind the presented token. The token was
// already checked by the auth middleware; this re-reads the user so a deleted
// account stops verifying even with a live token.
func (h *UserHandler) Verify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	user, err := h.service.GetByID(r.Context(), identity.ID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Verify", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "Verify", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	var req model.ToggleFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "ToggleFavorite", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	favorited, err := h.service.ToggleFavorite(r.Context(), identity.ID, req.SpotID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ToggleFavorite", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, map[string]any{
		"spotId":    req.SpotID,
		"favorited": favorited,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "ToggleFavorite", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) ListFavorites(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	spots, err := h.service.ListFavorites(r.Context(), identity.ID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListFavorites", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, spots); err != nil {
		h.log.Error("failed to write success response", "handler", "ListFavorites", "operation", "WriteSuccess", "error", err)
	}
}

// Delete removes the caller's account. Admins may target another account
// through the id query parameter.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	id := r.URL.Query().Get("id")
	if id == "" {
		id = identity.ID
	}

	if err := h.service.Delete(r.Context(), identity.ID, id); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/users/register", h.Register)
	router.POST("/api/v1/users/login", h.Login)
	router.GET("/api/v1/users/verify", h.auth(h.Verify))
	router.POST("/api/v1/users/favorites", h.auth(h.ToggleFavorite))
	router.GET("/api/v1/users/favorites", h.auth(h.ListFavorites))
	router.DELETE("/api/v1/users/delete", h.auth(h.Delete))
}
