package server

import (
	"database/sql"
	"net/http"
	"strings"

	"tunesmith/model"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// CreatePlaylistHandler creates an empty playlist for the caller.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		IsPublic    bool   `json:"isPublic"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "playlist name is required")
		return
	}

	playlist := &model.Playlist{
		ID:       uuid.NewString(),
		UserID:   userID,
		Name:     req.Name,
		IsPublic: req.IsPublic,
	}
	if req.Description != "" {
		playlist.Description = sql.NullString{String: req.Description, Valid: true}
	}

	if err := h.playlistRepo.CreatePlaylist(r.Context(), playlist); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, playlist)
}

// ListPlaylistsHandler lists the caller's playlists.
func (h *APIHandler) ListPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	playlists, err := h.playlistRepo.ListByUser(r.Context(), userID, false)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"playlists": playlists})
}

// GetPlaylistHandler returns a playlist with its songs in order. Private
// playlists are owner only.
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlistID := mux.Vars(r)["id"]
	callerID := optionalUserID(r)

	playlist, err := h.playlistRepo.GetPlaylistByID(r.Context(), playlistID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if playlist == nil || (!playlist.IsPublic && playlist.UserID != callerID) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	songs, err := h.playlistRepo.GetPlaylistSongs(r.Context(), playlistID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, model.PlaylistWithSongs{
		Playlist: *playlist,
		Songs:    songs,
	})
}

// UpdatePlaylistHandler renames a playlist or changes its visibility.
func (h *APIHandler) UpdatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	playlistID := mux.Vars(r)["id"]

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		IsPublic    bool   `json:"isPublic"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "playlist name is required")
		return
	}

	if err := h.playlistRepo.UpdatePlaylist(r.Context(), playlistID, userID, req.Name, req.Description, req.IsPublic); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DeletePlaylistHandler removes a playlist. The songs themselves are
// untouched.
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	playlistID := mux.Vars(r)["id"]

	if err := h.playlistRepo.DeletePlaylist(r.Context(), playlistID, userID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AddPlaylistSongHandler appends a song to the end of a playlist.
func (h *APIHandler) AddPlaylistSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	playlistID := mux.Vars(r)["id"]

	var req struct {
		SongID string `json:"songId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SongID == "" {
		respondError(w, http.StatusBadRequest, "songId is required")
		return
	}

	song, err := h.songRepo.GetSongByID(r.Context(), req.SongID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if song == nil || !canView(song, userID) {
		respondError(w, http.StatusNotFound, "song not found")
		return
	}

	if err := h.playlistRepo.AddSongToPlaylist(r.Context(), playlistID, userID, req.SongID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

// RemovePlaylistSongHandler removes a song from a playlist.
func (h *APIHandler) RemovePlaylistSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	vars := mux.Vars(r)

	if err := h.playlistRepo.RemoveSongFromPlaylist(r.Context(), vars["id"], userID, vars["song_id"]); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
