package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/vendpair/vendpair-go/internal/httputil"
	"github.com/vendpair/vendpair-go/internal/middleware"
	"github.com/vendpair/vendpair-go/internal/service"
)

type UserHandler struct {
	directoryService *service.DirectoryService
}

func NewUserHandler(directoryService *service.DirectoryService) *UserHandler {
	return &UserHandler{directoryService: directoryService}
}

func (h *UserHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListUsers)
	r.Get("/me", h.Me)
	r.Get("/unpaired", h.ListUnpaired)

	return r
}

// GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	writeJSON(w, http.StatusOK, formatUser(*user))
}

// GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.directoryService.ListUsers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, formatUsers(users))
}

// GET /api/users/unpaired
func (h *UserHandler) ListUnpaired(w http.ResponseWriter, r *http.Request) {
	users, err := h.directoryService.ListUnpaired(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list unpaired users")
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, formatUsers(users))
}
