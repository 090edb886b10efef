package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/vendpair/vendpair-go/internal/audit"
	apperrors "github.com/vendpair/vendpair-go/internal/errors"
	"github.com/vendpair/vendpair-go/internal/httputil"
	"github.com/vendpair/vendpair-go/internal/middleware"
	"github.com/vendpair/vendpair-go/internal/service"
)

type PairHandler struct {
	pairingService *service.PairingService
}

func NewPairHandler(pairingService *service.PairingService) *PairHandler {
	return &PairHandler{pairingService: pairingService}
}

func (h *PairHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreatePair)
	r.Get("/history", h.History)

	return r
}

type createPairRequest struct {
	PartnerID int64 `json:"partner_id"`
}

// POST /api/pairs
func (h *PairHandler) CreatePair(w http.ResponseWriter, r *http.Request) {
	var req createPairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if req.PartnerID == 0 {
		httputil.WriteError(w, apperrors.MissingRequired("partner_id"))
		return
	}

	user := middleware.GetUser(r.Context())

	pair, err := h.pairingService.CreatePair(r.Context(), user.ID, req.PartnerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventPairCreate,
		UserID:  user.ID,
		Details: map[string]interface{}{"partner_id": req.PartnerID, "pair_date": pair.PairDate},
	})
	writeJSON(w, http.StatusOK, formatPair(*pair))
}

// GET /api/pairs/history
func (h *PairHandler) History(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	entries, err := h.pairingService.WeeklyHistory(r.Context(), user.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to load pair history")
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, formatHistory(entries))
}
