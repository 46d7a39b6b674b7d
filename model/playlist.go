package model

import (
	"database/sql"
	"time"
)

// Playlist is a user-owned ordered collection of songs.
type Playlist struct {
	ID          string         `json:"id"`
	UserID      int64          `json:"userId"`
	Name        string         `json:"name"`
	Description sql.NullString `json:"description,omitempty"`
	IsPublic    bool           `json:"isPublic"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// PlaylistSong links a song into a playlist at a position.
type PlaylistSong struct {
	PlaylistID string    `json:"playlistId"`
	SongID     string    `json:"songId"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PlaylistWithSongs bundles a playlist with its songs in position order.
type PlaylistWithSongs struct {
	Playlist Playlist `json:"playlist"`
	Songs    []*Song  `json:"songs"`
}
