package server

import (
	"net/http"

	"tunesmith/core/generation"
	"tunesmith/logger"

	"github.com/gorilla/mux"
)

// GenerateSongHandler accepts a generation request, reserves a credit and
// queues the job. Responds 202: the song is queued, not done.
func (h *APIHandler) GenerateSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req generation.GenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	song, err := h.pipeline.Submit(r.Context(), userID, req)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	logger.Info("generation queued",
		logger.String("songId", song.ID),
		logger.Int64("userId", userID))
	respondJSON(w, http.StatusAccepted, song)
}

// RemixSongHandler queues one or more remix variants of the song named in
// the path. Variants fail independently, so the response reports each one.
func (h *APIHandler) RemixSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	parentID := mux.Vars(r)["id"]

	var req generation.RemixRequest
	if !decodeBody(w, r, &req) {
		return
	}
	// The path is authoritative; a body that names a different parent is a
	// confused client, not a request to remix something else.
	if req.ParentSongID != "" && req.ParentSongID != parentID {
		respondError(w, http.StatusBadRequest, "parentSongId does not match the song in the path")
		return
	}
	req.ParentSongID = parentID

	results, err := h.pipeline.Remix(r.Context(), userID, req)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	type variantResult struct {
		Song  interface{} `json:"song,omitempty"`
		Error string      `json:"error,omitempty"`
	}
	out := make([]variantResult, 0, len(results))
	queued := 0
	for _, res := range results {
		v := variantResult{}
		if res.Song != nil {
			v.Song = res.Song
		}
		if res.Err != nil {
			v.Error = res.Err.Error()
		} else {
			queued++
		}
		out = append(out, v)
	}

	status := http.StatusAccepted
	if queued == 0 {
		status = http.StatusBadGateway
	}
	logger.Info("remix queued",
		logger.String("parentSongId", req.ParentSongID),
		logger.Int64("userId", userID),
		logger.Int("variants", len(results)),
		logger.Int("queued", queued))
	respondJSON(w, status, map[string]interface{}{"variants": out})
}
