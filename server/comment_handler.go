package server

import (
	"net/http"
	"strconv"
	"strings"

	"tunesmith/model"

	"github.com/gorilla/mux"
)

const maxCommentLength = 2000

// CreateCommentHandler adds a comment to a visible song.
func (h *APIHandler) CreateCommentHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	song := h.requireVisibleSong(w, r, userID)
	if song == nil {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(w, http.StatusBadRequest, "comment content is required")
		return
	}
	if len(req.Content) > maxCommentLength {
		respondError(w, http.StatusBadRequest, "comment too long")
		return
	}

	comment := &model.Comment{
		SongID:  song.ID,
		UserID:  userID,
		Content: req.Content,
	}
	if err := h.commentRepo.CreateComment(r.Context(), comment); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, comment)
}

// ListCommentsHandler lists a song's comments, newest first.
func (h *APIHandler) ListCommentsHandler(w http.ResponseWriter, r *http.Request) {
	callerID := optionalUserID(r)
	song := h.requireVisibleSong(w, r, callerID)
	if song == nil {
		return
	}

	comments, err := h.commentRepo.ListBySong(r.Context(), song.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"comments": comments})
}

// DeleteCommentHandler removes the caller's own comment.
func (h *APIHandler) DeleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	commentID, err := strconv.ParseInt(mux.Vars(r)["comment_id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	if err := h.commentRepo.DeleteComment(r.Context(), commentID, userID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
