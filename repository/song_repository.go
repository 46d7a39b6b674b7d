package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"tunesmith/model"
)

// HistoryFilter narrows a user's generation history listing.
type HistoryFilter struct {
	Status   model.SongStatus // zero value means no status filter
	IsRemix  *bool
	DateFrom *time.Time
	DateTo   *time.Time
}

// SearchSort selects the ordering of public search results.
type SearchSort string

const (
	SortRecent   SearchSort = "recent"
	SortPopular  SearchSort = "popular"
	SortTrending SearchSort = "trending"
)

// SearchFilter narrows the public song search.
type SearchFilter struct {
	Query        string
	Instrumental *bool
	UserID       int64 // optional creator filter
	Sort         SearchSort
	Limit        int
}

// SongRepository defines the interface for song data operations.
type SongRepository interface {
	// CreateSongReserving inserts the song in queued state and decrements
	// one credit from its owner in a single transaction. Returns
	// model.ErrInsufficientCredits without inserting anything when the
	// balance is empty.
	CreateSongReserving(ctx context.Context, song *model.Song) error

	GetSongByID(ctx context.Context, id string) (*model.Song, error)

	// TransitionStatus conditionally moves a song from one status to
	// another. Returns false when the song was not in the expected status,
	// which callers treat as a rejected transition.
	TransitionStatus(ctx context.Context, id string, from, to model.SongStatus) (bool, error)

	// MarkProcessed finalizes a successful generation: status, asset keys
	// and the measured duration in one update, guarded on processing.
	MarkProcessed(ctx context.Context, id, s3Key, thumbnailS3Key string, audioDuration float64) (bool, error)

	ListByUser(ctx context.Context, userID int64, filter HistoryFilter) ([]*model.Song, error)
	ListPublishedByUser(ctx context.Context, userID int64) ([]*model.Song, error)
	Search(ctx context.Context, filter SearchFilter) ([]*model.Song, error)

	IncrementListenCount(ctx context.Context, id string) error
	IncrementDownloadCount(ctx context.Context, id string) error

	SetPublished(ctx context.Context, id string, userID int64, published bool) error
	DeleteSong(ctx context.Context, id string, userID int64) error

	StatusCounts(ctx context.Context, userID int64) (map[model.SongStatus]int64, error)
	TotalListens(ctx context.Context, userID int64) (int64, error)
}

// mysqlSongRepository implements SongRepository for MySQL.
type mysqlSongRepository struct {
	db     *sql.DB
	ledger CreditLedger
}

// NewMySQLSongRepository creates a new mysqlSongRepository. The ledger is
// used for the reservation that shares a transaction with song creation.
func NewMySQLSongRepository(db *sql.DB, ledger CreditLedger) SongRepository {
	return &mysqlSongRepository{db: db, ledger: ledger}
}

const songColumns = `id, user_id, title, prompt, lyrics, described_lyrics, full_described_song,
	instrumental, guidance_scale, audio_duration, infer_step, seed,
	parent_song_id, is_remix, status, s3_key, thumbnail_s3_key,
	listen_count, download_count, published, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSong(row rowScanner) (*model.Song, error) {
	song := &model.Song{}
	var prompt, lyrics, describedLyrics, fullDescribedSong sql.NullString
	var guidanceScale, audioDuration sql.NullFloat64
	var inferStep sql.NullInt64
	var seed sql.NullInt64
	err := row.Scan(
		&song.ID, &song.UserID, &song.Title,
		&prompt, &lyrics, &describedLyrics, &fullDescribedSong,
		&song.Instrumental, &guidanceScale, &audioDuration, &inferStep, &seed,
		&song.ParentSongID, &song.IsRemix, &song.Status,
		&song.S3Key, &song.ThumbnailS3Key,
		&song.ListenCount, &song.DownloadCount, &song.Published,
		&song.CreatedAt, &song.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	song.Prompt = prompt.String
	song.Lyrics = lyrics.String
	song.DescribedLyrics = describedLyrics.String
	song.FullDescribedSong = fullDescribedSong.String
	song.GuidanceScale = guidanceScale.Float64
	song.AudioDuration = audioDuration.Float64
	song.InferStep = int(inferStep.Int64)
	song.Seed = seed.Int64
	return song, nil
}

// nullIfEmpty maps "" to NULL so optional text columns stay NULL instead of
// accumulating empty strings.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZeroFloat(f float64) interface{} {
	if f == 0 {
		return nil
	}
	return f
}

func nullIfZeroInt(n int64) interface{} {
	if n == 0 {
		return nil
	}
	return n
}

// CreateSongReserving reserves one credit and inserts the song row as a
// single logical transaction, per the pipeline contract.
func (r *mysqlSongRepository) CreateSongReserving(ctx context.Context, song *model.Song) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for song creation: %w", err)
	}
	defer tx.Rollback()

	if err := r.ledger.ReserveTx(ctx, tx, song.UserID); err != nil {
		// Either ErrInsufficientCredits or a store error; the deferred
		// rollback leaves the balance untouched.
		return err
	}

	query := `INSERT INTO songs
		(id, user_id, title, prompt, lyrics, described_lyrics, full_described_song,
		 instrumental, guidance_scale, audio_duration, infer_step, seed,
		 parent_song_id, is_remix, status, published)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var parentID interface{}
	if song.ParentSongID.Valid {
		parentID = song.ParentSongID.String
	}

	_, err = tx.ExecContext(ctx, query,
		song.ID, song.UserID, song.Title,
		nullIfEmpty(song.Prompt), nullIfEmpty(song.Lyrics),
		nullIfEmpty(song.DescribedLyrics), nullIfEmpty(song.FullDescribedSong),
		song.Instrumental,
		nullIfZeroFloat(song.GuidanceScale), nullIfZeroFloat(song.AudioDuration),
		nullIfZeroInt(int64(song.InferStep)), nullIfZeroInt(song.Seed),
		parentID, song.IsRemix, string(model.StatusQueued), song.Published,
	)
	if err != nil {
		return fmt.Errorf("failed to insert song %s: %w", song.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit song creation for %s: %w", song.ID, err)
	}
	song.Status = model.StatusQueued
	return nil
}

// GetSongByID retrieves a song by its ID.
func (r *mysqlSongRepository) GetSongByID(ctx context.Context, id string) (*model.Song, error) {
	query := "SELECT " + songColumns + " FROM songs WHERE id = ?"
	song, err := scanSong(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Song not found
		}
		return nil, fmt.Errorf("failed to scan song row for ID %s: %w", id, err)
	}
	return song, nil
}

// TransitionStatus performs the guarded status update. The WHERE clause
// carries the expected current status so concurrent or duplicate events
// cannot overwrite a terminal state.
func (r *mysqlSongRepository) TransitionStatus(ctx context.Context, id string, from, to model.SongStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE songs SET status = ?, updated_at = NOW() WHERE id = ? AND status = ?",
		string(to), id, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to transition song %s from %s to %s: %w", id, from, to, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected for status transition: %w", err)
	}
	return affected > 0, nil
}

// MarkProcessed populates the asset fields together with the terminal
// processed status. Engagement counters are deliberately not touched.
func (r *mysqlSongRepository) MarkProcessed(ctx context.Context, id, s3Key, thumbnailS3Key string, audioDuration float64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE songs SET status = ?, s3_key = ?, thumbnail_s3_key = ?, audio_duration = ?, updated_at = NOW()
		 WHERE id = ? AND status = ?`,
		string(model.StatusProcessed), s3Key, nullIfEmpty(thumbnailS3Key), audioDuration,
		id, string(model.StatusProcessing))
	if err != nil {
		return false, fmt.Errorf("failed to mark song %s processed: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected for mark processed: %w", err)
	}
	return affected > 0, nil
}

// ListByUser returns a user's songs, newest first, optionally filtered.
func (r *mysqlSongRepository) ListByUser(ctx context.Context, userID int64, filter HistoryFilter) ([]*model.Song, error) {
	query := "SELECT " + songColumns + " FROM songs WHERE user_id = ?"
	args := []interface{}{userID}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.IsRemix != nil {
		query += " AND is_remix = ?"
		args = append(args, *filter.IsRemix)
	}
	if filter.DateFrom != nil {
		query += " AND created_at >= ?"
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query += " AND created_at <= ?"
		args = append(args, *filter.DateTo)
	}
	query += " ORDER BY created_at DESC"

	return r.querySongs(ctx, query, args...)
}

// ListPublishedByUser returns a user's published songs, newest first.
func (r *mysqlSongRepository) ListPublishedByUser(ctx context.Context, userID int64) ([]*model.Song, error) {
	query := "SELECT " + songColumns + " FROM songs WHERE user_id = ? AND published = TRUE ORDER BY created_at DESC"
	return r.querySongs(ctx, query, userID)
}

// Search returns published, processed songs matching the filter.
func (r *mysqlSongRepository) Search(ctx context.Context, filter SearchFilter) ([]*model.Song, error) {
	query := "SELECT " + songColumns + " FROM songs WHERE published = TRUE AND status = ?"
	args := []interface{}{string(model.StatusProcessed)}

	if filter.Query != "" {
		pattern := likePattern(filter.Query)
		query += " AND (title LIKE ? OR prompt LIKE ? OR full_described_song LIKE ?)"
		args = append(args, pattern, pattern, pattern)
	}
	if filter.Instrumental != nil {
		query += " AND instrumental = ?"
		args = append(args, *filter.Instrumental)
	}
	if filter.UserID != 0 {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}

	switch filter.Sort {
	case SortPopular:
		query += " ORDER BY listen_count DESC"
	case SortTrending:
		// Recent songs with high engagement: last 7 days by listens.
		query += " AND created_at >= ? ORDER BY listen_count DESC, created_at DESC"
		args = append(args, time.Now().AddDate(0, 0, -7))
	default:
		query += " ORDER BY created_at DESC"
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	return r.querySongs(ctx, query, args...)
}

func (r *mysqlSongRepository) querySongs(ctx context.Context, query string, args ...interface{}) ([]*model.Song, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []*model.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song row: %w", err)
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

// IncrementListenCount bumps the listen counter atomically.
func (r *mysqlSongRepository) IncrementListenCount(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE songs SET listen_count = listen_count + 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to increment listen count for song %s: %w", id, err)
	}
	return nil
}

// IncrementDownloadCount bumps the download counter atomically.
func (r *mysqlSongRepository) IncrementDownloadCount(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE songs SET download_count = download_count + 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to increment download count for song %s: %w", id, err)
	}
	return nil
}

// SetPublished flips a song's public visibility. Scoped to (id, user_id) so
// an unauthorized attempt matches zero rows instead of mutating.
func (r *mysqlSongRepository) SetPublished(ctx context.Context, id string, userID int64, published bool) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE songs SET published = ?, updated_at = NOW() WHERE id = ? AND user_id = ?",
		published, id, userID)
	if err != nil {
		return fmt.Errorf("failed to set published for song %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for publish toggle: %w", err)
	}
	if affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// DeleteSong removes a song owned by the caller. Children keep their
// parent_song_id and simply see a missing parent afterwards.
func (r *mysqlSongRepository) DeleteSong(ctx context.Context, id string, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM songs WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete song %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for song delete: %w", err)
	}
	if affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// StatusCounts groups a user's songs by status.
func (r *mysqlSongRepository) StatusCounts(ctx context.Context, userID int64) (map[model.SongStatus]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM songs WHERE user_id = ? GROUP BY status", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.SongStatus]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count row: %w", err)
		}
		counts[model.SongStatus(status)] = count
	}
	return counts, rows.Err()
}

// TotalListens sums listen counts across a user's processed songs.
func (r *mysqlSongRepository) TotalListens(ctx context.Context, userID int64) (int64, error) {
	var total sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		"SELECT SUM(listen_count) FROM songs WHERE user_id = ? AND status = ?",
		userID, string(model.StatusProcessed)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum listens for user %d: %w", userID, err)
	}
	return total.Int64, nil
}

// likePattern escapes LIKE metacharacters in user-supplied search text.
func likePattern(q string) string {
	return "%" + strings.ReplaceAll(strings.ReplaceAll(q, "%", "\\%"), "_", "\\_") + "%"
}
