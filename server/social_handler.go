package server

import (
	"context"
	"net/http"
	"strconv"

	"tunesmith/cache"
	"tunesmith/model"

	"github.com/gorilla/mux"
)

// requireVisibleSong loads a song and checks the caller may interact with
// it. Social actions target published songs or the caller's own.
func (h *APIHandler) requireVisibleSong(w http.ResponseWriter, r *http.Request, callerID int64) *model.Song {
	songID := mux.Vars(r)["id"]
	song, err := h.songRepo.GetSongByID(r.Context(), songID)
	if err != nil {
		respondDomainError(w, err)
		return nil
	}
	if song == nil || !canView(song, callerID) {
		respondError(w, http.StatusNotFound, "not found")
		return nil
	}
	return song
}

// ToggleLikeHandler flips the caller's like on a song. Calling it twice
// lands back where it started.
func (h *APIHandler) ToggleLikeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	song := h.requireVisibleSong(w, r, userID)
	if song == nil {
		return
	}

	liked, err := h.socialRepo.ToggleLike(r.Context(), userID, song.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	likes, err := h.socialRepo.CountLikes(r.Context(), song.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"liked":     liked,
		"likeCount": likes,
	})
}

// ToggleFavoriteHandler flips the caller's favorite on a song.
func (h *APIHandler) ToggleFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	song := h.requireVisibleSong(w, r, userID)
	if song == nil {
		return
	}

	favorited, err := h.socialRepo.ToggleFavorite(r.Context(), userID, song.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"favorited": favorited})
}

// ListFavoritesHandler returns the caller's favorite songs, most recently
// favorited first. Songs unpublished since favoriting drop out.
func (h *APIHandler) ListFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	songIDs, err := h.socialRepo.ListFavoriteSongIDs(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	songs := make([]*model.Song, 0, len(songIDs))
	for _, id := range songIDs {
		song, err := h.songRepo.GetSongByID(r.Context(), id)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		if song != nil && canView(song, userID) {
			songs = append(songs, song)
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"songs": songs})
}

// ToggleFollowHandler flips the caller's follow of another user.
func (h *APIHandler) ToggleFollowHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	targetID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	target, err := h.userRepo.GetUserByID(r.Context(), targetID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if target == nil {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	following, err := h.socialRepo.ToggleFollow(r.Context(), userID, targetID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	cache.InvalidateProfileStats(r.Context(), targetID)
	cache.InvalidateProfileStats(r.Context(), userID)

	respondJSON(w, http.StatusOK, map[string]bool{"following": following})
}

// ListFollowersHandler lists the users following the given user.
func (h *APIHandler) ListFollowersHandler(w http.ResponseWriter, r *http.Request) {
	h.listFollowUsers(w, r, h.socialRepo.ListFollowerIDs)
}

// ListFollowingHandler lists the users the given user follows.
func (h *APIHandler) ListFollowingHandler(w http.ResponseWriter, r *http.Request) {
	h.listFollowUsers(w, r, h.socialRepo.ListFollowingIDs)
}

func (h *APIHandler) listFollowUsers(w http.ResponseWriter, r *http.Request, list func(context.Context, int64) ([]int64, error)) {
	targetID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ids, err := list(r.Context(), targetID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	users := make([]profileUser, 0, len(ids))
	for _, id := range ids {
		user, err := h.userRepo.GetUserByID(r.Context(), id)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		if user != nil {
			users = append(users, publicProfile(user))
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}
