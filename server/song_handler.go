package server

import (
	"net/http"
	"strings"
	"time"

	"tunesmith/core/auth"
	"tunesmith/logger"
	"tunesmith/model"
	"tunesmith/repository"
	"tunesmith/storage"

	"github.com/gorilla/mux"
)

// downloadURLTTL bounds how long a presigned download link stays valid.
const downloadURLTTL = 15 * time.Minute

// optionalUserID reads the caller's identity from a bearer token when one
// is present. Anonymous requests get zero.
func optionalUserID(r *http.Request) int64 {
	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0
	}
	claims, err := auth.ParseToken(parts[1])
	if err != nil {
		return 0
	}
	return claims.UserID
}

// canView reports whether a caller may see a song. Published songs are
// public, everything else is owner only.
func canView(song *model.Song, callerID int64) bool {
	return song.Published || song.UserID == callerID
}

// GetSongHandler returns one song with its social counters.
func (h *APIHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	songID := mux.Vars(r)["id"]
	callerID := optionalUserID(r)

	song, err := h.songRepo.GetSongByID(r.Context(), songID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if song == nil || !canView(song, callerID) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	likes, err := h.socialRepo.CountLikes(r.Context(), song.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	comments, err := h.commentRepo.CountBySong(r.Context(), song.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	response := map[string]interface{}{
		"song":         song,
		"likeCount":    likes,
		"commentCount": comments,
	}
	if callerID != 0 {
		liked, err := h.socialRepo.HasLiked(r.Context(), callerID, song.ID)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		response["hasLiked"] = liked
	}
	respondJSON(w, http.StatusOK, response)
}

// SetPublishedHandler toggles a song's public visibility.
func (h *APIHandler) SetPublishedHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	songID := mux.Vars(r)["id"]

	var req struct {
		Published bool `json:"published"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.songRepo.SetPublished(r.Context(), songID, userID, req.Published); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"published": req.Published})
}

// DeleteSongHandler removes a song and its stored assets.
func (h *APIHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	songID := mux.Vars(r)["id"]

	song, err := h.songRepo.GetSongByID(r.Context(), songID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if song == nil || song.UserID != userID {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	if err := h.songRepo.DeleteSong(r.Context(), songID, userID); err != nil {
		respondDomainError(w, err)
		return
	}

	// Best effort: the row is gone, orphaned objects are only wasted space.
	if song.S3Key.Valid {
		if err := storage.RemoveObject(r.Context(), song.S3Key.String); err != nil {
			logger.Warn("failed to remove audio object",
				logger.String("songId", songID), logger.ErrorField(err))
		}
	}
	if song.ThumbnailS3Key.Valid {
		if err := storage.RemoveObject(r.Context(), song.ThumbnailS3Key.String); err != nil {
			logger.Warn("failed to remove thumbnail object",
				logger.String("songId", songID), logger.ErrorField(err))
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListenHandler records one play of a song.
func (h *APIHandler) ListenHandler(w http.ResponseWriter, r *http.Request) {
	songID := mux.Vars(r)["id"]
	callerID := optionalUserID(r)

	song, err := h.songRepo.GetSongByID(r.Context(), songID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if song == nil || !canView(song, callerID) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	if err := h.songRepo.IncrementListenCount(r.Context(), songID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DownloadHandler hands out a short-lived URL for the rendered audio and
// counts the download. Only the owner may download, published or not.
func (h *APIHandler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	songID := mux.Vars(r)["id"]

	song, err := h.songRepo.GetSongByID(r.Context(), songID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if song == nil || song.UserID != userID {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	if song.Status != model.StatusProcessed || !song.S3Key.Valid {
		respondError(w, http.StatusConflict, "song has no rendered audio yet")
		return
	}

	url, err := storage.PresignedGetURL(r.Context(), song.S3Key.String, downloadURLTTL)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	if err := h.songRepo.IncrementDownloadCount(r.Context(), songID); err != nil {
		logger.Warn("failed to count download",
			logger.String("songId", songID), logger.ErrorField(err))
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"url":      url,
		"filename": song.Title + ".wav",
	})
}

// HistoryHandler lists the caller's own songs, newest first, with optional
// status, remix and date range filters.
func (h *APIHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filter := repository.HistoryFilter{}
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		status := model.SongStatus(raw)
		if !status.Valid() {
			respondError(w, http.StatusBadRequest, "unknown status filter")
			return
		}
		filter.Status = status
	}
	if raw := q.Get("remix"); raw != "" {
		isRemix := raw == "true" || raw == "1"
		filter.IsRemix = &isRemix
	}
	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid from date")
			return
		}
		filter.DateFrom = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid to date")
			return
		}
		filter.DateTo = &to
	}

	songs, err := h.songRepo.ListByUser(r.Context(), userID, filter)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"songs": songs})
}
