package server

import (
	"net/http"
	"strconv"
	"strings"

	"tunesmith/cache"
	"tunesmith/model"

	"github.com/gorilla/mux"
)

// profileUser is the public slice of a user record.
type profileUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Bio      string `json:"bio,omitempty"`
	Image    string `json:"image,omitempty"`
}

func publicProfile(user *model.User) profileUser {
	p := profileUser{ID: user.ID, Username: user.Username}
	if user.Bio.Valid {
		p.Bio = user.Bio.String
	}
	if user.Image.Valid {
		p.Image = user.Image.String
	}
	return p
}

// GetProfileHandler returns a user's public profile: bio, published songs
// and follower counts. When the caller is authenticated the response also
// says whether they follow this user.
func (h *APIHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	targetID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	callerID := optionalUserID(r)

	user, err := h.userRepo.GetUserByID(r.Context(), targetID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	songs, err := h.songRepo.ListPublishedByUser(r.Context(), targetID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	stats, hit := cache.GetProfileStats(r.Context(), targetID)
	if !hit {
		followers, err := h.socialRepo.CountFollowers(r.Context(), targetID)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		following, err := h.socialRepo.CountFollowing(r.Context(), targetID)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		listens, err := h.songRepo.TotalListens(r.Context(), targetID)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		stats = &cache.ProfileStats{
			SongCount:    int64(len(songs)),
			TotalListens: listens,
			Followers:    followers,
			Following:    following,
		}
		if cache.Enabled() {
			cache.SetProfileStats(r.Context(), targetID, stats)
		}
	}

	response := map[string]interface{}{
		"user":  publicProfile(user),
		"songs": songs,
		"stats": stats,
	}
	if callerID != 0 && callerID != targetID {
		isFollowing, err := h.socialRepo.IsFollowing(r.Context(), callerID, targetID)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		response["isFollowing"] = isFollowing
	}
	respondJSON(w, http.StatusOK, response)
}

// UpdateProfileHandler updates the caller's bio and avatar image.
func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		Bio   string `json:"bio"`
		Image string `json:"image"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	req.Bio = strings.TrimSpace(req.Bio)

	if err := h.userRepo.UpdateProfile(r.Context(), userID, req.Bio, req.Image); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// MyStatsHandler returns the caller's generation dashboard: per status
// counts, total listens and the remaining credit balance.
func (h *APIHandler) MyStatsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	counts, err := h.songRepo.StatusCounts(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	listens, err := h.songRepo.TotalListens(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	balance, err := h.ledger.Balance(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	statusCounts := make(map[string]int64, len(counts))
	var total int64
	for status, n := range counts {
		statusCounts[string(status)] = n
		total += n
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"songCount":    total,
		"statusCounts": statusCounts,
		"totalListens": listens,
		"credits":      balance,
	})
}
