package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"tunesmith/config"
	"tunesmith/core/billing"
	"tunesmith/core/generation"
	"tunesmith/logger"
	"tunesmith/model"
	"tunesmith/repository"
)

// APIHandler carries the wired dependencies for every HTTP handler.
type APIHandler struct {
	userRepo     repository.UserRepository
	songRepo     repository.SongRepository
	playlistRepo repository.PlaylistRepository
	socialRepo   *repository.SocialRepository
	commentRepo  *repository.CommentRepository
	ledger       repository.CreditLedger
	pipeline     *generation.Pipeline
	reconciler   *generation.Reconciler
	billing      *billing.Service
	cfg          *config.Config
}

// NewAPIHandler creates the API handler with its dependencies.
func NewAPIHandler(
	userRepo repository.UserRepository,
	songRepo repository.SongRepository,
	playlistRepo repository.PlaylistRepository,
	socialRepo *repository.SocialRepository,
	commentRepo *repository.CommentRepository,
	ledger repository.CreditLedger,
	pipeline *generation.Pipeline,
	reconciler *generation.Reconciler,
	billingSvc *billing.Service,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		userRepo:     userRepo,
		songRepo:     songRepo,
		playlistRepo: playlistRepo,
		socialRepo:   socialRepo,
		commentRepo:  commentRepo,
		ledger:       ledger,
		pipeline:     pipeline,
		reconciler:   reconciler,
		billing:      billingSvc,
		cfg:          cfg,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("failed to encode response", logger.ErrorField(err))
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps domain sentinels onto HTTP statuses. Anything
// unrecognized is a 500 and gets logged.
func respondDomainError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, model.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrPermission):
		respondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, model.ErrInsufficientCredits):
		respondError(w, http.StatusPaymentRequired, "not enough credits")
	case errors.Is(err, model.ErrDispatchFailed):
		respondError(w, http.StatusBadGateway, "generation service unavailable")
	case errors.Is(err, generation.ErrStaleEvent):
		respondError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("internal error", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
