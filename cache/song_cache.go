package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"tunesmith/model"
)

// Search results are cheap to recompute, so they get short lifetimes
// instead of explicit invalidation on every write.
const (
	searchTTL   = 1 * time.Minute
	trendingTTL = 5 * time.Minute
	profileTTL  = 2 * time.Minute
)

func searchKey(fingerprint string) string {
	sum := sha1.Sum([]byte(fingerprint))
	return "songs:search:" + hex.EncodeToString(sum[:])
}

func trendingKey() string {
	return "songs:trending"
}

func profileStatsKey(userID int64) string {
	return fmt.Sprintf("profile:stats:%d", userID)
}

// GetSearchResults returns cached results for a search fingerprint, false
// on a miss. Cache failures degrade to a miss.
func GetSearchResults(ctx context.Context, fingerprint string) ([]*model.Song, bool) {
	var songs []*model.Song
	hit, err := getJSON(ctx, searchKey(fingerprint), &songs)
	if err != nil || !hit {
		return nil, false
	}
	return songs, true
}

// SetSearchResults stores search results under their fingerprint.
func SetSearchResults(ctx context.Context, fingerprint string, songs []*model.Song) {
	_ = setJSON(ctx, searchKey(fingerprint), songs, searchTTL)
}

// GetTrending returns the cached trending list, false on a miss.
func GetTrending(ctx context.Context) ([]*model.Song, bool) {
	var songs []*model.Song
	hit, err := getJSON(ctx, trendingKey(), &songs)
	if err != nil || !hit {
		return nil, false
	}
	return songs, true
}

// SetTrending stores the trending list.
func SetTrending(ctx context.Context, songs []*model.Song) {
	_ = setJSON(ctx, trendingKey(), songs, trendingTTL)
}

// ProfileStats is the cached aggregate block on a profile page.
type ProfileStats struct {
	SongCount    int64            `json:"songCount"`
	TotalListens int64            `json:"totalListens"`
	Followers    int64            `json:"followers"`
	Following    int64            `json:"following"`
	StatusCounts map[string]int64 `json:"statusCounts,omitempty"`
}

// GetProfileStats returns cached profile aggregates, false on a miss.
func GetProfileStats(ctx context.Context, userID int64) (*ProfileStats, bool) {
	var stats ProfileStats
	hit, err := getJSON(ctx, profileStatsKey(userID), &stats)
	if err != nil || !hit {
		return nil, false
	}
	return &stats, true
}

// SetProfileStats stores profile aggregates.
func SetProfileStats(ctx context.Context, userID int64, stats *ProfileStats) {
	_ = setJSON(ctx, profileStatsKey(userID), stats, profileTTL)
}

// InvalidateProfileStats drops a user's cached aggregates after a write
// that changes them, such as a new follow or a published song.
func InvalidateProfileStats(ctx context.Context, userID int64) {
	drop(ctx, profileStatsKey(userID))
}
