package generation

import (
	"context"
	"errors"
	"fmt"

	"tunesmith/logger"
	"tunesmith/model"
)

// Event kinds reported by the worker fleet.
const (
	EventStarted   = "started"
	EventCompleted = "completed"
	EventFailed    = "failed"
)

// ErrStaleEvent marks a callback whose transition is not legal from the
// song's current status, usually a duplicate or out-of-order delivery.
var ErrStaleEvent = errors.New("event does not match song status")

// CompletionEvent is the callback payload from a worker about one song.
type CompletionEvent struct {
	SongID         string  `json:"songId"`
	Event          string  `json:"event"`
	S3Key          string  `json:"s3Key,omitempty"`
	ThumbnailS3Key string  `json:"thumbnailS3Key,omitempty"`
	AudioDuration  float64 `json:"audioDuration,omitempty"`
	ErrorKind      string  `json:"errorKind,omitempty"`
}

// FailureClassifier maps a worker error kind to the terminal status a
// failed song lands in.
type FailureClassifier func(errorKind string) model.SongStatus

// DefaultFailureClassifier sends capacity rejections to "no credits" and
// everything else to failed.
func DefaultFailureClassifier(errorKind string) model.SongStatus {
	if errorKind == "insufficient_capacity" {
		return model.StatusNoCredits
	}
	return model.StatusFailed
}

// ReconcilerStore is the slice of the song repository the reconciler needs.
type ReconcilerStore interface {
	GetSongByID(ctx context.Context, id string) (*model.Song, error)
	TransitionStatus(ctx context.Context, id string, from, to model.SongStatus) (bool, error)
	MarkProcessed(ctx context.Context, id, s3Key, thumbnailS3Key string, audioDuration float64) (bool, error)
}

// Reconciler applies worker callbacks to song rows. Transitions are guarded
// in the store, so replayed or out-of-order events cannot corrupt state and
// a refund fires at most once per song.
type Reconciler struct {
	songs    ReconcilerStore
	ledger   Refunder
	classify FailureClassifier
}

func NewReconciler(songs ReconcilerStore, ledger Refunder, classify FailureClassifier) *Reconciler {
	if classify == nil {
		classify = DefaultFailureClassifier
	}
	return &Reconciler{songs: songs, ledger: ledger, classify: classify}
}

// Apply processes one callback event.
func (r *Reconciler) Apply(ctx context.Context, event CompletionEvent) error {
	if event.SongID == "" {
		return model.NewValidationError("songId", "song id is required")
	}

	song, err := r.songs.GetSongByID(ctx, event.SongID)
	if err != nil {
		return err
	}
	if song == nil {
		return model.ErrNotFound
	}

	switch event.Event {
	case EventStarted:
		return r.applyStarted(ctx, song)
	case EventCompleted:
		return r.applyCompleted(ctx, song, event)
	case EventFailed:
		return r.applyFailed(ctx, song, event)
	default:
		return model.NewValidationError("event",
			fmt.Sprintf("unknown event kind %q", event.Event))
	}
}

func (r *Reconciler) applyStarted(ctx context.Context, song *model.Song) error {
	if !model.CanTransition(song.Status, model.StatusProcessing) {
		return r.rejectStale(song, EventStarted)
	}
	moved, err := r.songs.TransitionStatus(ctx, song.ID, song.Status, model.StatusProcessing)
	if err != nil {
		return err
	}
	if !moved {
		return r.rejectStale(song, EventStarted)
	}
	return nil
}

func (r *Reconciler) applyCompleted(ctx context.Context, song *model.Song, event CompletionEvent) error {
	if event.S3Key == "" {
		return model.NewValidationError("s3Key", "completed event requires the audio object key")
	}
	if !model.CanTransition(song.Status, model.StatusProcessed) {
		return r.rejectStale(song, EventCompleted)
	}
	moved, err := r.songs.MarkProcessed(ctx, song.ID, event.S3Key, event.ThumbnailS3Key, event.AudioDuration)
	if err != nil {
		return err
	}
	if !moved {
		return r.rejectStale(song, EventCompleted)
	}
	return nil
}

func (r *Reconciler) applyFailed(ctx context.Context, song *model.Song, event CompletionEvent) error {
	target := r.classify(event.ErrorKind)

	// Failures can land while the song is still queued, when the worker
	// rejects the job before reporting a start. The transition table
	// decides what is reachable from the loaded status; the guarded update
	// then protects against a concurrent move since the load.
	if !model.CanTransition(song.Status, target) {
		return r.rejectStale(song, EventFailed)
	}
	moved, err := r.songs.TransitionStatus(ctx, song.ID, song.Status, target)
	if err != nil {
		return err
	}
	if !moved {
		return r.rejectStale(song, EventFailed)
	}

	// The refund rides on the transition succeeding, which can happen only
	// once per song.
	if err := r.ledger.Refund(ctx, song.UserID); err != nil {
		logger.Error("credit refund failed for failed generation",
			logger.String("songId", song.ID),
			logger.Int64("userId", song.UserID),
			logger.ErrorField(err))
		return err
	}
	return nil
}

func (r *Reconciler) rejectStale(song *model.Song, kind string) error {
	logger.Warn("rejected generation event",
		logger.String("songId", song.ID),
		logger.String("event", kind),
		logger.String("status", string(song.Status)))
	return fmt.Errorf("%w: %s while %s", ErrStaleEvent, kind, song.Status)
}
