package generation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// JobEvent is the descriptor published to the generation stream. The worker
// fleet consumes these and calls back through the reconciler endpoint.
type JobEvent struct {
	SongID            string  `json:"songId"`
	UserID            int64   `json:"userId"`
	Title             string  `json:"title"`
	Prompt            string  `json:"prompt,omitempty"`
	Lyrics            string  `json:"lyrics,omitempty"`
	DescribedLyrics   string  `json:"describedLyrics,omitempty"`
	FullDescribedSong string  `json:"fullDescribedSong,omitempty"`
	Instrumental      bool    `json:"instrumental"`
	GuidanceScale     float64 `json:"guidanceScale,omitempty"`
	AudioDuration     float64 `json:"audioDuration,omitempty"`
	InferStep         int     `json:"inferStep,omitempty"`
	Seed              int64   `json:"seed,omitempty"`
}

// Dispatcher hands a job descriptor to the asynchronous generation
// substrate.
type Dispatcher interface {
	Dispatch(ctx context.Context, event JobEvent) error
}

// RedisDispatcher appends job events to a Redis stream.
type RedisDispatcher struct {
	client *redis.Client
	stream string
}

func NewRedisDispatcher(client *redis.Client, stream string) *RedisDispatcher {
	return &RedisDispatcher{client: client, stream: stream}
}

func (d *RedisDispatcher) Dispatch(ctx context.Context, event JobEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal job event: %w", err)
	}
	err = d.client.XAdd(ctx, &redis.XAddArgs{
		Stream: d.stream,
		Values: map[string]interface{}{
			"songId":  event.SongID,
			"payload": payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("append to stream %s: %w", d.stream, err)
	}
	return nil
}
