package model

import (
	"database/sql"
	"time"
)

// SongStatus is the lifecycle state of a song's generation job.
type SongStatus string

const (
	StatusQueued     SongStatus = "queued"
	StatusProcessing SongStatus = "processing"
	StatusProcessed  SongStatus = "processed"
	StatusFailed     SongStatus = "failed"
	StatusNoCredits  SongStatus = "no credits"
)

// songTransitions is the set of allowed status transitions. Terminal states
// have no outgoing edges; anything not listed here must be rejected, not
// silently overwritten.
var songTransitions = map[SongStatus][]SongStatus{
	StatusQueued:     {StatusProcessing, StatusFailed, StatusNoCredits},
	StatusProcessing: {StatusProcessed, StatusFailed, StatusNoCredits},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to SongStatus) bool {
	for _, next := range songTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no further automatic transitions.
func (s SongStatus) IsTerminal() bool {
	return len(songTransitions[s]) == 0
}

// Valid reports whether the value is one of the known statuses.
func (s SongStatus) Valid() bool {
	switch s {
	case StatusQueued, StatusProcessing, StatusProcessed, StatusFailed, StatusNoCredits:
		return true
	}
	return false
}

// Song is the central entity: one generation attempt and, once processed,
// a social object.
type Song struct {
	ID     string `json:"id"`
	UserID int64  `json:"userId"`
	Title  string `json:"title"`

	// Creative input. Simple mode uses FullDescribedSong; custom mode uses
	// Prompt plus at most one of Lyrics / DescribedLyrics.
	Prompt            string `json:"prompt,omitempty"`
	Lyrics            string `json:"lyrics,omitempty"`
	DescribedLyrics   string `json:"describedLyrics,omitempty"`
	FullDescribedSong string `json:"fullDescribedSong,omitempty"`
	Instrumental      bool   `json:"instrumental"`

	// Generation tuning. Remixes inherit these verbatim unless overridden.
	GuidanceScale float64 `json:"guidanceScale,omitempty"`
	AudioDuration float64 `json:"audioDuration,omitempty"`
	InferStep     int     `json:"inferStep,omitempty"`
	Seed          int64   `json:"seed,omitempty"`

	// Lineage. ParentSongID may dangle after the parent is deleted;
	// that is "parent missing", not an error.
	ParentSongID sql.NullString `json:"parentSongId,omitempty"`
	IsRemix      bool           `json:"isRemix"`

	Status SongStatus `json:"status"`

	// Asset keys, populated only when Status is processed.
	S3Key          sql.NullString `json:"s3Key,omitempty"`
	ThumbnailS3Key sql.NullString `json:"thumbnailS3Key,omitempty"`

	ListenCount   int64 `json:"listenCount"`
	DownloadCount int64 `json:"downloadCount"`

	Published bool `json:"published"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
