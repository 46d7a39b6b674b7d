package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tunesmith/core/generation"
	"tunesmith/model"
	"tunesmith/repository"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSongRepo is an in-memory SongRepository for handler tests. Only the
// methods a test exercises carry behavior.
type stubSongRepo struct {
	songs map[string]*model.Song
}

func newStubSongRepo(songs ...*model.Song) *stubSongRepo {
	repo := &stubSongRepo{songs: make(map[string]*model.Song)}
	for _, song := range songs {
		repo.songs[song.ID] = song
	}
	return repo
}

func (s *stubSongRepo) CreateSongReserving(ctx context.Context, song *model.Song) error {
	copied := *song
	s.songs[song.ID] = &copied
	return nil
}

func (s *stubSongRepo) GetSongByID(ctx context.Context, id string) (*model.Song, error) {
	song, ok := s.songs[id]
	if !ok {
		return nil, nil
	}
	copied := *song
	return &copied, nil
}

func (s *stubSongRepo) TransitionStatus(ctx context.Context, id string, from, to model.SongStatus) (bool, error) {
	song, ok := s.songs[id]
	if !ok || song.Status != from {
		return false, nil
	}
	song.Status = to
	return true, nil
}

func (s *stubSongRepo) MarkProcessed(ctx context.Context, id, s3Key, thumbnailS3Key string, audioDuration float64) (bool, error) {
	song, ok := s.songs[id]
	if !ok || song.Status != model.StatusProcessing {
		return false, nil
	}
	song.Status = model.StatusProcessed
	return true, nil
}

func (s *stubSongRepo) ListByUser(ctx context.Context, userID int64, filter repository.HistoryFilter) ([]*model.Song, error) {
	return nil, nil
}

func (s *stubSongRepo) ListPublishedByUser(ctx context.Context, userID int64) ([]*model.Song, error) {
	return nil, nil
}

func (s *stubSongRepo) Search(ctx context.Context, filter repository.SearchFilter) ([]*model.Song, error) {
	return nil, nil
}

func (s *stubSongRepo) IncrementListenCount(ctx context.Context, id string) error   { return nil }
func (s *stubSongRepo) IncrementDownloadCount(ctx context.Context, id string) error { return nil }

func (s *stubSongRepo) SetPublished(ctx context.Context, id string, userID int64, published bool) error {
	return nil
}

func (s *stubSongRepo) DeleteSong(ctx context.Context, id string, userID int64) error { return nil }

func (s *stubSongRepo) StatusCounts(ctx context.Context, userID int64) (map[model.SongStatus]int64, error) {
	return nil, nil
}

func (s *stubSongRepo) TotalListens(ctx context.Context, userID int64) (int64, error) {
	return 0, nil
}

func authedRequest(method, path string, body []byte, userID int64, vars map[string]string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if userID != 0 {
		ctx := context.WithValue(req.Context(), "userID", userID)
		req = req.WithContext(ctx)
	}
	return mux.SetURLVars(req, vars)
}

func publishedSong(id string, owner int64) *model.Song {
	return &model.Song{
		ID:        id,
		UserID:    owner,
		Title:     "Rendered",
		Status:    model.StatusProcessed,
		Published: true,
		S3Key:     sql.NullString{String: "audio/" + id + ".wav", Valid: true},
	}
}

func TestDownloadRequiresAuthentication(t *testing.T) {
	h := &APIHandler{songRepo: newStubSongRepo(publishedSong("song-1", 1))}

	rr := httptest.NewRecorder()
	h.DownloadHandler(rr, authedRequest(http.MethodGet, "/api/songs/song-1/download", nil, 0,
		map[string]string{"id": "song-1"}))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDownloadRejectsNonOwner(t *testing.T) {
	// Published is not enough: even a song everyone can see downloads only
	// for its owner.
	h := &APIHandler{songRepo: newStubSongRepo(publishedSong("song-1", 1))}

	rr := httptest.NewRecorder()
	h.DownloadHandler(rr, authedRequest(http.MethodGet, "/api/songs/song-1/download", nil, 2,
		map[string]string{"id": "song-1"}))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDownloadOwnerPassesOwnershipGate(t *testing.T) {
	// An owned song without rendered audio stops at the asset check, which
	// sits after the ownership gate.
	song := publishedSong("song-1", 1)
	song.Status = model.StatusQueued
	song.S3Key = sql.NullString{}
	h := &APIHandler{songRepo: newStubSongRepo(song)}

	rr := httptest.NewRecorder()
	h.DownloadHandler(rr, authedRequest(http.MethodGet, "/api/songs/song-1/download", nil, 1,
		map[string]string{"id": "song-1"}))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func remixHandler(repo *stubSongRepo) (*APIHandler, *fakeDispatcherEvents) {
	dispatcher := &fakeDispatcherEvents{}
	pipeline := generation.NewPipeline(repo, &stubLedger{}, dispatcher)
	return &APIHandler{songRepo: repo, pipeline: pipeline}, dispatcher
}

type fakeDispatcherEvents struct {
	events []generation.JobEvent
}

func (d *fakeDispatcherEvents) Dispatch(ctx context.Context, event generation.JobEvent) error {
	d.events = append(d.events, event)
	return nil
}

func TestRemixTakesParentFromPath(t *testing.T) {
	parent := publishedSong("parent-a", 1)
	repo := newStubSongRepo(parent)
	h, dispatcher := remixHandler(repo)

	rr := httptest.NewRecorder()
	h.RemixSongHandler(rr, authedRequest(http.MethodPost, "/api/songs/parent-a/remix",
		[]byte(`{}`), 2, map[string]string{"id": "parent-a"}))
	require.Equal(t, http.StatusAccepted, rr.Code)

	require.Len(t, dispatcher.events, 2)
	for _, event := range dispatcher.events {
		variant := repo.songs[event.SongID]
		require.NotNil(t, variant)
		assert.Equal(t, "parent-a", variant.ParentSongID.String)
	}
}

func TestRemixRejectsBodyPathMismatch(t *testing.T) {
	repo := newStubSongRepo(publishedSong("parent-a", 1), publishedSong("parent-b", 1))
	h, dispatcher := remixHandler(repo)

	body, err := json.Marshal(generation.RemixRequest{ParentSongID: "parent-b"})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.RemixSongHandler(rr, authedRequest(http.MethodPost, "/api/songs/parent-a/remix",
		body, 2, map[string]string{"id": "parent-a"}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, dispatcher.events)
}

func TestRemixAcceptsMatchingBodyParent(t *testing.T) {
	repo := newStubSongRepo(publishedSong("parent-a", 1))
	h, dispatcher := remixHandler(repo)

	body, err := json.Marshal(generation.RemixRequest{ParentSongID: "parent-a"})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.RemixSongHandler(rr, authedRequest(http.MethodPost, "/api/songs/parent-a/remix",
		body, 2, map[string]string{"id": "parent-a"}))
	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Len(t, dispatcher.events, 2)
}
