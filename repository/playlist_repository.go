package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tunesmith/model"
)

// PlaylistRepository defines the interface for playlist data operations.
// Mutations are scoped to (id, user_id): an attempt against someone else's
// playlist matches zero rows and surfaces as not found.
type PlaylistRepository interface {
	CreatePlaylist(ctx context.Context, playlist *model.Playlist) error
	GetPlaylistByID(ctx context.Context, id string) (*model.Playlist, error)
	ListByUser(ctx context.Context, userID int64, publicOnly bool) ([]*model.Playlist, error)
	UpdatePlaylist(ctx context.Context, id string, userID int64, name, description string, isPublic bool) error
	DeletePlaylist(ctx context.Context, id string, userID int64) error

	// AddSongToPlaylist appends a song at position = current row count.
	// The count and the insert share one transaction so concurrent appends
	// to the same playlist serialize on the store.
	AddSongToPlaylist(ctx context.Context, playlistID string, userID int64, songID string) error
	RemoveSongFromPlaylist(ctx context.Context, playlistID string, userID int64, songID string) error
	GetPlaylistSongs(ctx context.Context, playlistID string) ([]*model.Song, error)
}

// mysqlPlaylistRepository implements PlaylistRepository for MySQL.
type mysqlPlaylistRepository struct {
	db *sql.DB
}

// NewMySQLPlaylistRepository creates a new mysqlPlaylistRepository.
func NewMySQLPlaylistRepository(db *sql.DB) PlaylistRepository {
	return &mysqlPlaylistRepository{db: db}
}

const playlistColumns = "id, user_id, name, description, is_public, created_at, updated_at"

func scanPlaylist(row rowScanner) (*model.Playlist, error) {
	p := &model.Playlist{}
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.IsPublic, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePlaylist inserts a new playlist.
func (r *mysqlPlaylistRepository) CreatePlaylist(ctx context.Context, playlist *model.Playlist) error {
	query := "INSERT INTO playlists (id, user_id, name, description, is_public) VALUES (?, ?, ?, ?, ?)"
	var description interface{}
	if playlist.Description.Valid {
		description = playlist.Description.String
	}
	if _, err := r.db.ExecContext(ctx, query,
		playlist.ID, playlist.UserID, playlist.Name, description, playlist.IsPublic); err != nil {
		return fmt.Errorf("failed to insert playlist %s: %w", playlist.ID, err)
	}
	return nil
}

// GetPlaylistByID retrieves a playlist by its ID.
func (r *mysqlPlaylistRepository) GetPlaylistByID(ctx context.Context, id string) (*model.Playlist, error) {
	query := "SELECT " + playlistColumns + " FROM playlists WHERE id = ?"
	p, err := scanPlaylist(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Playlist not found
		}
		return nil, fmt.Errorf("failed to scan playlist row for ID %s: %w", id, err)
	}
	return p, nil
}

// ListByUser returns a user's playlists, most recently updated first.
func (r *mysqlPlaylistRepository) ListByUser(ctx context.Context, userID int64, publicOnly bool) ([]*model.Playlist, error) {
	query := "SELECT " + playlistColumns + " FROM playlists WHERE user_id = ?"
	args := []interface{}{userID}
	if publicOnly {
		query += " AND is_public = TRUE"
	}
	query += " ORDER BY updated_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists for user %d: %w", userID, err)
	}
	defer rows.Close()

	var playlists []*model.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist row: %w", err)
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// UpdatePlaylist updates a playlist owned by the caller.
func (r *mysqlPlaylistRepository) UpdatePlaylist(ctx context.Context, id string, userID int64, name, description string, isPublic bool) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE playlists SET name = ?, description = ?, is_public = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		name, nullIfEmpty(description), isPublic, time.Now(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to update playlist %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for playlist update: %w", err)
	}
	if affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// DeletePlaylist removes a playlist owned by the caller. The playlist_songs
// rows cascade away; the referenced songs survive.
func (r *mysqlPlaylistRepository) DeletePlaylist(ctx context.Context, id string, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM playlists WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete playlist %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for playlist delete: %w", err)
	}
	if affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// AddSongToPlaylist appends a song to a playlist the caller owns.
func (r *mysqlPlaylistRepository) AddSongToPlaylist(ctx context.Context, playlistID string, userID int64, songID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for playlist append: %w", err)
	}
	defer tx.Rollback()

	// Ownership check and position assignment happen inside the same
	// transaction as the insert.
	var owner int64
	err = tx.QueryRowContext(ctx,
		"SELECT user_id FROM playlists WHERE id = ? FOR UPDATE", playlistID).Scan(&owner)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to lock playlist %s: %w", playlistID, err)
	}
	if owner != userID {
		return model.ErrNotFound
	}

	var position int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM playlist_songs WHERE playlist_id = ?", playlistID).Scan(&position)
	if err != nil {
		return fmt.Errorf("failed to count playlist songs for %s: %w", playlistID, err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO playlist_songs (playlist_id, song_id, position) VALUES (?, ?, ?)",
		playlistID, songID, position)
	if err != nil {
		return fmt.Errorf("failed to append song %s to playlist %s: %w", songID, playlistID, err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE playlists SET updated_at = ? WHERE id = ?", time.Now(), playlistID)
	if err != nil {
		return fmt.Errorf("failed to touch playlist %s: %w", playlistID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit playlist append: %w", err)
	}
	return nil
}

// RemoveSongFromPlaylist removes a song from a playlist the caller owns.
func (r *mysqlPlaylistRepository) RemoveSongFromPlaylist(ctx context.Context, playlistID string, userID int64, songID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE ps FROM playlist_songs ps
		 JOIN playlists p ON p.id = ps.playlist_id
		 WHERE ps.playlist_id = ? AND ps.song_id = ? AND p.user_id = ?`,
		playlistID, songID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove song %s from playlist %s: %w", songID, playlistID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for playlist removal: %w", err)
	}
	if affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// GetPlaylistSongs returns a playlist's songs in position order.
func (r *mysqlPlaylistRepository) GetPlaylistSongs(ctx context.Context, playlistID string) ([]*model.Song, error) {
	query := `SELECT s.id, s.user_id, s.title, s.prompt, s.lyrics, s.described_lyrics, s.full_described_song,
		s.instrumental, s.guidance_scale, s.audio_duration, s.infer_step, s.seed,
		s.parent_song_id, s.is_remix, s.status, s.s3_key, s.thumbnail_s3_key,
		s.listen_count, s.download_count, s.published, s.created_at, s.updated_at
		FROM songs s
		JOIN playlist_songs ps ON ps.song_id = s.id
		WHERE ps.playlist_id = ?
		ORDER BY ps.position`

	rows, err := r.db.QueryContext(ctx, query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist songs for %s: %w", playlistID, err)
	}
	defer rows.Close()

	var songs []*model.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist song row: %w", err)
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}
