package generation

import (
	"context"
	"fmt"

	"tunesmith/logger"
	"tunesmith/model"
)

// SongStore is the slice of the song repository the pipeline needs.
type SongStore interface {
	CreateSongReserving(ctx context.Context, song *model.Song) error
	GetSongByID(ctx context.Context, id string) (*model.Song, error)
	TransitionStatus(ctx context.Context, id string, from, to model.SongStatus) (bool, error)
}

// Refunder returns a reserved credit to a user.
type Refunder interface {
	Refund(ctx context.Context, userID int64) error
}

// Pipeline runs the synchronous half of a generation: validate, reserve a
// credit atomically with the song row, dispatch. Everything after dispatch
// happens through the reconciler.
type Pipeline struct {
	songs      SongStore
	ledger     Refunder
	dispatcher Dispatcher
}

func NewPipeline(songs SongStore, ledger Refunder, dispatcher Dispatcher) *Pipeline {
	return &Pipeline{songs: songs, ledger: ledger, dispatcher: dispatcher}
}

// Submit creates one queued song and hands it to the dispatcher. Credit
// reservation and the song insert commit together. When dispatch fails the
// reservation is returned, the song moves to failed, and the caller gets
// ErrDispatchFailed; the song row survives as a record of the attempt.
func (p *Pipeline) Submit(ctx context.Context, userID int64, req GenerateRequest) (*model.Song, error) {
	song, err := BuildSong(userID, req)
	if err != nil {
		return nil, err
	}

	if err := p.songs.CreateSongReserving(ctx, song); err != nil {
		return nil, err
	}

	if err := p.dispatcher.Dispatch(ctx, jobEventFor(song)); err != nil {
		logger.Error("generation dispatch failed",
			logger.String("songId", song.ID),
			logger.ErrorField(err))
		if _, terr := p.songs.TransitionStatus(ctx, song.ID, model.StatusQueued, model.StatusFailed); terr != nil {
			logger.Error("failed to mark undispatched song",
				logger.String("songId", song.ID),
				logger.ErrorField(terr))
		} else {
			song.Status = model.StatusFailed
		}
		if rerr := p.ledger.Refund(ctx, userID); rerr != nil {
			logger.Error("credit refund failed after dispatch error",
				logger.String("songId", song.ID),
				logger.Int64("userId", userID),
				logger.ErrorField(rerr))
		}
		return song, fmt.Errorf("%w: %v", model.ErrDispatchFailed, err)
	}

	return song, nil
}

// RemixResult reports the outcome of one remix variant. A failed variant
// never blocks its siblings.
type RemixResult struct {
	Song *model.Song
	Err  error
}

// Remix fans a parent song out into variant submissions. Each variant
// reserves its own credit and dispatches independently.
func (p *Pipeline) Remix(ctx context.Context, userID int64, req RemixRequest) ([]RemixResult, error) {
	if req.ParentSongID == "" {
		return nil, model.NewValidationError("parentSongId", "parent song id is required")
	}

	parent, err := p.songs.GetSongByID(ctx, req.ParentSongID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, model.ErrNotFound
	}

	variants := BuildRemixVariants(userID, parent, req.Variations)
	results := make([]RemixResult, 0, len(variants))
	for _, variant := range variants {
		if err := p.songs.CreateSongReserving(ctx, variant); err != nil {
			results = append(results, RemixResult{Err: err})
			continue
		}
		if err := p.dispatcher.Dispatch(ctx, jobEventFor(variant)); err != nil {
			logger.Error("remix dispatch failed",
				logger.String("songId", variant.ID),
				logger.ErrorField(err))
			if _, terr := p.songs.TransitionStatus(ctx, variant.ID, model.StatusQueued, model.StatusFailed); terr == nil {
				variant.Status = model.StatusFailed
			}
			if rerr := p.ledger.Refund(ctx, userID); rerr != nil {
				logger.Error("credit refund failed after dispatch error",
					logger.String("songId", variant.ID),
					logger.Int64("userId", userID),
					logger.ErrorField(rerr))
			}
			results = append(results, RemixResult{
				Song: variant,
				Err:  fmt.Errorf("%w: %v", model.ErrDispatchFailed, err),
			})
			continue
		}
		results = append(results, RemixResult{Song: variant})
	}
	return results, nil
}

func jobEventFor(song *model.Song) JobEvent {
	return JobEvent{
		SongID:            song.ID,
		UserID:            song.UserID,
		Title:             song.Title,
		Prompt:            song.Prompt,
		Lyrics:            song.Lyrics,
		DescribedLyrics:   song.DescribedLyrics,
		FullDescribedSong: song.FullDescribedSong,
		Instrumental:      song.Instrumental,
		GuidanceScale:     song.GuidanceScale,
		AudioDuration:     song.AudioDuration,
		InferStep:         song.InferStep,
		Seed:              song.Seed,
	}
}
