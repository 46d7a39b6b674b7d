package generation

import (
	"context"
	"errors"
	"testing"

	"tunesmith/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory SongStore and ReconcilerStore with the same
// guarded transition semantics as the real repository.
type fakeStore struct {
	songs     map[string]*model.Song
	createErr error
	getErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{songs: make(map[string]*model.Song)}
}

func (s *fakeStore) CreateSongReserving(ctx context.Context, song *model.Song) error {
	if s.createErr != nil {
		return s.createErr
	}
	copied := *song
	s.songs[song.ID] = &copied
	return nil
}

func (s *fakeStore) GetSongByID(ctx context.Context, id string) (*model.Song, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	song, ok := s.songs[id]
	if !ok {
		return nil, nil
	}
	copied := *song
	return &copied, nil
}

func (s *fakeStore) TransitionStatus(ctx context.Context, id string, from, to model.SongStatus) (bool, error) {
	song, ok := s.songs[id]
	if !ok || song.Status != from {
		return false, nil
	}
	song.Status = to
	return true, nil
}

func (s *fakeStore) MarkProcessed(ctx context.Context, id, s3Key, thumbnailS3Key string, audioDuration float64) (bool, error) {
	song, ok := s.songs[id]
	if !ok || song.Status != model.StatusProcessing {
		return false, nil
	}
	song.Status = model.StatusProcessed
	song.S3Key.String, song.S3Key.Valid = s3Key, true
	if thumbnailS3Key != "" {
		song.ThumbnailS3Key.String, song.ThumbnailS3Key.Valid = thumbnailS3Key, true
	}
	if audioDuration > 0 {
		song.AudioDuration = audioDuration
	}
	return true, nil
}

type fakeLedger struct {
	refunds   int
	refundErr error
}

func (l *fakeLedger) Refund(ctx context.Context, userID int64) error {
	if l.refundErr != nil {
		return l.refundErr
	}
	l.refunds++
	return nil
}

type fakeDispatcher struct {
	events []JobEvent
	err    error
	// failFirst fails only the first call.
	failFirst bool
	calls     int
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, event JobEvent) error {
	d.calls++
	if d.err != nil && (!d.failFirst || d.calls == 1) {
		return d.err
	}
	d.events = append(d.events, event)
	return nil
}

func TestSubmitQueuesAndDispatches(t *testing.T) {
	store := newFakeStore()
	ledger := &fakeLedger{}
	dispatcher := &fakeDispatcher{}
	pipeline := NewPipeline(store, ledger, dispatcher)

	song, err := pipeline.Submit(context.Background(), 5, GenerateRequest{
		Title:  "Test",
		Prompt: "piano ballad",
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusQueued, song.Status)
	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, song.ID, dispatcher.events[0].SongID)
	assert.Equal(t, int64(5), dispatcher.events[0].UserID)
	assert.Equal(t, "piano ballad", dispatcher.events[0].Prompt)

	stored, _ := store.GetSongByID(context.Background(), song.ID)
	require.NotNil(t, stored)
	assert.Equal(t, model.StatusQueued, stored.Status)
	assert.Zero(t, ledger.refunds)
}

func TestSubmitValidationFailureCreatesNothing(t *testing.T) {
	store := newFakeStore()
	pipeline := NewPipeline(store, &fakeLedger{}, &fakeDispatcher{})

	_, err := pipeline.Submit(context.Background(), 5, GenerateRequest{})
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
	assert.Empty(t, store.songs)
}

func TestSubmitInsufficientCredits(t *testing.T) {
	store := newFakeStore()
	store.createErr = model.ErrInsufficientCredits
	dispatcher := &fakeDispatcher{}
	pipeline := NewPipeline(store, &fakeLedger{}, dispatcher)

	_, err := pipeline.Submit(context.Background(), 5, GenerateRequest{Prompt: "jazz"})
	require.ErrorIs(t, err, model.ErrInsufficientCredits)
	assert.Empty(t, dispatcher.events)
}

func TestSubmitDispatchFailureRefundsAndFails(t *testing.T) {
	store := newFakeStore()
	ledger := &fakeLedger{}
	dispatcher := &fakeDispatcher{err: errors.New("stream down")}
	pipeline := NewPipeline(store, ledger, dispatcher)

	song, err := pipeline.Submit(context.Background(), 5, GenerateRequest{Prompt: "jazz"})
	require.ErrorIs(t, err, model.ErrDispatchFailed)

	require.NotNil(t, song)
	assert.Equal(t, model.StatusFailed, song.Status)
	stored, _ := store.GetSongByID(context.Background(), song.ID)
	require.NotNil(t, stored)
	assert.Equal(t, model.StatusFailed, stored.Status)
	assert.Equal(t, 1, ledger.refunds)
}

func TestRemixUnknownParent(t *testing.T) {
	pipeline := NewPipeline(newFakeStore(), &fakeLedger{}, &fakeDispatcher{})

	_, err := pipeline.Remix(context.Background(), 5, RemixRequest{ParentSongID: "missing"})
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestRemixSubmitsTwoVariants(t *testing.T) {
	store := newFakeStore()
	parent := parentSong()
	store.songs[parent.ID] = parent
	dispatcher := &fakeDispatcher{}
	pipeline := NewPipeline(store, &fakeLedger{}, dispatcher)

	results, err := pipeline.Remix(context.Background(), 5, RemixRequest{ParentSongID: parent.ID})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		require.NoError(t, res.Err)
		require.NotNil(t, res.Song)
		assert.True(t, res.Song.IsRemix)
	}
	assert.Len(t, dispatcher.events, 2)
}

func TestRemixVariantsFailIndependently(t *testing.T) {
	store := newFakeStore()
	parent := parentSong()
	store.songs[parent.ID] = parent
	ledger := &fakeLedger{}
	dispatcher := &fakeDispatcher{err: errors.New("stream down"), failFirst: true}
	pipeline := NewPipeline(store, ledger, dispatcher)

	results, err := pipeline.Remix(context.Background(), 5, RemixRequest{ParentSongID: parent.ID})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Error(t, results[0].Err)
	assert.ErrorIs(t, results[0].Err, model.ErrDispatchFailed)
	assert.Equal(t, model.StatusFailed, results[0].Song.Status)

	require.NoError(t, results[1].Err)
	assert.Equal(t, model.StatusQueued, results[1].Song.Status)

	assert.Equal(t, 1, ledger.refunds)
	assert.Len(t, dispatcher.events, 1)
}
