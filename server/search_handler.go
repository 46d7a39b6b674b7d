package server

import (
	"fmt"
	"net/http"
	"strconv"

	"tunesmith/cache"
	"tunesmith/repository"
)

// SearchHandler searches published songs. Results are cached briefly under
// a fingerprint of the filter, so repeated queries skip the database.
func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.SearchFilter{
		Query: q.Get("q"),
		Sort:  repository.SortRecent,
	}

	switch q.Get("sort") {
	case "", string(repository.SortRecent):
	case string(repository.SortPopular):
		filter.Sort = repository.SortPopular
	case string(repository.SortTrending):
		filter.Sort = repository.SortTrending
	default:
		respondError(w, http.StatusBadRequest, "unknown sort")
		return
	}

	if raw := q.Get("instrumental"); raw != "" {
		instrumental := raw == "true" || raw == "1"
		filter.Instrumental = &instrumental
	}
	if raw := q.Get("user"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid user filter")
			return
		}
		filter.UserID = userID
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 100 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		filter.Limit = limit
	}

	fingerprint := searchFingerprint(filter)
	if songs, hit := cache.GetSearchResults(r.Context(), fingerprint); hit {
		respondJSON(w, http.StatusOK, map[string]interface{}{"songs": songs})
		return
	}

	songs, err := h.songRepo.Search(r.Context(), filter)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if cache.Enabled() {
		cache.SetSearchResults(r.Context(), fingerprint, songs)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"songs": songs})
}

// TrendingHandler returns the most listened published songs of the last
// week.
func (h *APIHandler) TrendingHandler(w http.ResponseWriter, r *http.Request) {
	if songs, hit := cache.GetTrending(r.Context()); hit {
		respondJSON(w, http.StatusOK, map[string]interface{}{"songs": songs})
		return
	}

	songs, err := h.songRepo.Search(r.Context(), repository.SearchFilter{
		Sort: repository.SortTrending,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if cache.Enabled() {
		cache.SetTrending(r.Context(), songs)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"songs": songs})
}

func searchFingerprint(filter repository.SearchFilter) string {
	instrumental := "any"
	if filter.Instrumental != nil {
		instrumental = strconv.FormatBool(*filter.Instrumental)
	}
	return fmt.Sprintf("%s|%s|%s|%d|%d",
		filter.Query, filter.Sort, instrumental, filter.UserID, filter.Limit)
}
