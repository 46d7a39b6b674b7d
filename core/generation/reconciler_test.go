package generation

import (
	"context"
	"testing"

	"tunesmith/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeWithSong(status model.SongStatus) (*fakeStore, *model.Song) {
	store := newFakeStore()
	song := &model.Song{
		ID:     "song-1",
		UserID: 4,
		Title:  "Test",
		Status: status,
	}
	store.songs[song.ID] = song
	return store, song
}

func TestReconcilerStartedMovesToProcessing(t *testing.T) {
	store, _ := storeWithSong(model.StatusQueued)
	rec := NewReconciler(store, &fakeLedger{}, nil)

	err := rec.Apply(context.Background(), CompletionEvent{SongID: "song-1", Event: EventStarted})
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, store.songs["song-1"].Status)
}

func TestReconcilerCompletedFinalizes(t *testing.T) {
	store, _ := storeWithSong(model.StatusProcessing)
	rec := NewReconciler(store, &fakeLedger{}, nil)

	err := rec.Apply(context.Background(), CompletionEvent{
		SongID:         "song-1",
		Event:          EventCompleted,
		S3Key:          "audio/song-1.mp3",
		ThumbnailS3Key: "thumbs/song-1.jpg",
		AudioDuration:  187.5,
	})
	require.NoError(t, err)

	song := store.songs["song-1"]
	assert.Equal(t, model.StatusProcessed, song.Status)
	assert.Equal(t, "audio/song-1.mp3", song.S3Key.String)
	assert.Equal(t, "thumbs/song-1.jpg", song.ThumbnailS3Key.String)
	assert.Equal(t, 187.5, song.AudioDuration)
}

func TestReconcilerCompletedRequiresKey(t *testing.T) {
	store, _ := storeWithSong(model.StatusProcessing)
	rec := NewReconciler(store, &fakeLedger{}, nil)

	err := rec.Apply(context.Background(), CompletionEvent{SongID: "song-1", Event: EventCompleted})
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
	assert.Equal(t, model.StatusProcessing, store.songs["song-1"].Status)
}

func TestReconcilerFailedRefundsOnce(t *testing.T) {
	store, _ := storeWithSong(model.StatusProcessing)
	ledger := &fakeLedger{}
	rec := NewReconciler(store, ledger, nil)

	err := rec.Apply(context.Background(), CompletionEvent{SongID: "song-1", Event: EventFailed})
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, store.songs["song-1"].Status)
	assert.Equal(t, 1, ledger.refunds)

	// A replayed failure finds the song already terminal and must not
	// refund again.
	err = rec.Apply(context.Background(), CompletionEvent{SongID: "song-1", Event: EventFailed})
	require.ErrorIs(t, err, ErrStaleEvent)
	assert.Equal(t, 1, ledger.refunds)
}

func TestReconcilerFailedWhileQueued(t *testing.T) {
	store, _ := storeWithSong(model.StatusQueued)
	ledger := &fakeLedger{}
	rec := NewReconciler(store, ledger, nil)

	err := rec.Apply(context.Background(), CompletionEvent{SongID: "song-1", Event: EventFailed})
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, store.songs["song-1"].Status)
	assert.Equal(t, 1, ledger.refunds)
}

func TestReconcilerCapacityFailureLandsInNoCredits(t *testing.T) {
	store, _ := storeWithSong(model.StatusProcessing)
	ledger := &fakeLedger{}
	rec := NewReconciler(store, ledger, nil)

	err := rec.Apply(context.Background(), CompletionEvent{
		SongID:    "song-1",
		Event:     EventFailed,
		ErrorKind: "insufficient_capacity",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusNoCredits, store.songs["song-1"].Status)
	assert.Equal(t, 1, ledger.refunds)
}

func TestReconcilerCustomClassifier(t *testing.T) {
	store, _ := storeWithSong(model.StatusProcessing)
	classify := func(errorKind string) model.SongStatus {
		if errorKind == "quota" {
			return model.StatusNoCredits
		}
		return model.StatusFailed
	}
	rec := NewReconciler(store, &fakeLedger{}, classify)

	err := rec.Apply(context.Background(), CompletionEvent{
		SongID:    "song-1",
		Event:     EventFailed,
		ErrorKind: "quota",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusNoCredits, store.songs["song-1"].Status)
}

func TestReconcilerRejectsStaleStarted(t *testing.T) {
	store, _ := storeWithSong(model.StatusProcessed)
	rec := NewReconciler(store, &fakeLedger{}, nil)

	err := rec.Apply(context.Background(), CompletionEvent{SongID: "song-1", Event: EventStarted})
	require.ErrorIs(t, err, ErrStaleEvent)
	assert.Equal(t, model.StatusProcessed, store.songs["song-1"].Status)
}

func TestReconcilerRejectsCompletedWithoutStart(t *testing.T) {
	store, _ := storeWithSong(model.StatusQueued)
	rec := NewReconciler(store, &fakeLedger{}, nil)

	err := rec.Apply(context.Background(), CompletionEvent{
		SongID: "song-1",
		Event:  EventCompleted,
		S3Key:  "audio/song-1.mp3",
	})
	require.ErrorIs(t, err, ErrStaleEvent)
	assert.Equal(t, model.StatusQueued, store.songs["song-1"].Status)
}

func TestReconcilerUnknownSong(t *testing.T) {
	rec := NewReconciler(newFakeStore(), &fakeLedger{}, nil)

	err := rec.Apply(context.Background(), CompletionEvent{SongID: "ghost", Event: EventStarted})
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestReconcilerUnknownEventKind(t *testing.T) {
	store, _ := storeWithSong(model.StatusQueued)
	rec := NewReconciler(store, &fakeLedger{}, nil)

	err := rec.Apply(context.Background(), CompletionEvent{SongID: "song-1", Event: "exploded"})
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
}

func TestReconcilerRequiresSongID(t *testing.T) {
	rec := NewReconciler(newFakeStore(), &fakeLedger{}, nil)

	err := rec.Apply(context.Background(), CompletionEvent{Event: EventStarted})
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
}
