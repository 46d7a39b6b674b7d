package generation

import (
	"database/sql"
	"strings"

	"tunesmith/model"

	"github.com/google/uuid"
)

// Fixed guidance scales used when a remix request does not pick one. Two
// variants give the user two stylistic alternatives per remix without any
// extra input.
var remixGuidanceScales = []float64{10, 20}

// remixDefaultDuration is used when the parent carries no audio duration.
const remixDefaultDuration = 120

// GenerateRequest is the raw creative input for one generation. Exactly one
// of the two modes must be populated: simple mode fills FullDescribedSong,
// custom mode fills Prompt plus at most one of Lyrics / DescribedLyrics.
type GenerateRequest struct {
	Title             string  `json:"title"`
	Prompt            string  `json:"prompt"`
	Lyrics            string  `json:"lyrics"`
	DescribedLyrics   string  `json:"describedLyrics"`
	FullDescribedSong string  `json:"fullDescribedSong"`
	Instrumental      bool    `json:"instrumental"`
	GuidanceScale     float64 `json:"guidanceScale"`
	AudioDuration     float64 `json:"audioDuration"`
	InferStep         int     `json:"inferStep"`
	Seed              int64   `json:"seed"`
}

// RemixVariations are the optional overrides for a remix request.
type RemixVariations struct {
	// ChangePrompt is new style text appended to the parent's prompt and
	// full description.
	ChangePrompt string `json:"changePrompt"`
	// ChangeLyrics clears the inherited lyrics so they are regenerated.
	ChangeLyrics bool `json:"changeLyrics"`
	// GuidanceScale, when non-zero, pins the remix to a single variant
	// with this scale.
	GuidanceScale float64 `json:"guidanceScale"`
}

// RemixRequest asks for one or more variants derived from a parent song.
type RemixRequest struct {
	ParentSongID string           `json:"parentSongId"`
	Variations   *RemixVariations `json:"variations"`
}

// BuildSong validates a generation request and normalizes it into a song
// row ready for creation. Pure transformation: no side effects.
func BuildSong(userID int64, req GenerateRequest) (*model.Song, error) {
	fullDescribed := strings.TrimSpace(req.FullDescribedSong)
	prompt := strings.TrimSpace(req.Prompt)
	lyrics := strings.TrimSpace(req.Lyrics)
	describedLyrics := strings.TrimSpace(req.DescribedLyrics)

	simpleMode := fullDescribed != ""
	customMode := prompt != "" || lyrics != "" || describedLyrics != ""

	if !simpleMode && !customMode {
		return nil, model.NewValidationError("prompt",
			"either a full song description or a style prompt is required")
	}
	if simpleMode && customMode {
		return nil, model.NewValidationError("prompt",
			"a song uses either the description mode or the custom mode, not both")
	}
	if customMode && prompt == "" {
		return nil, model.NewValidationError("prompt",
			"custom mode requires a style prompt")
	}
	if lyrics != "" && describedLyrics != "" {
		return nil, model.NewValidationError("lyrics",
			"provide either verbatim lyrics or a lyrics description, not both")
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Untitled Song"
	}

	return &model.Song{
		ID:                uuid.NewString(),
		UserID:            userID,
		Title:             title,
		Prompt:            prompt,
		Lyrics:            lyrics,
		DescribedLyrics:   describedLyrics,
		FullDescribedSong: fullDescribed,
		Instrumental:      req.Instrumental,
		GuidanceScale:     req.GuidanceScale,
		AudioDuration:     req.AudioDuration,
		InferStep:         req.InferStep,
		Seed:              req.Seed,
		Status:            model.StatusQueued,
	}, nil
}

// BuildRemixVariants clones the parent into one or more variant songs. One
// variant when the caller pinned a guidance scale, otherwise one per entry
// in remixGuidanceScales. Pure transformation: persistence and dispatch of
// each variant stay independent.
func BuildRemixVariants(userID int64, parent *model.Song, variations *RemixVariations) []*model.Song {
	scales := remixGuidanceScales
	if variations != nil && variations.GuidanceScale != 0 {
		scales = []float64{variations.GuidanceScale}
	}

	variants := make([]*model.Song, 0, len(scales))
	for _, scale := range scales {
		newPrompt := parent.Prompt
		newDescribed := parent.FullDescribedSong

		if variations != nil && variations.ChangePrompt != "" {
			newPrompt = appendStyle(newPrompt, variations.ChangePrompt)
			newDescribed = appendStyle(newDescribed, variations.ChangePrompt)
		}

		lyrics := parent.Lyrics
		describedLyrics := parent.DescribedLyrics
		if variations != nil && variations.ChangeLyrics {
			// Cleared on purpose: the generator writes fresh lyrics.
			lyrics = ""
			describedLyrics = ""
		}

		duration := parent.AudioDuration
		if duration == 0 {
			duration = remixDefaultDuration
		}

		variants = append(variants, &model.Song{
			ID:                uuid.NewString(),
			UserID:            userID,
			Title:             parent.Title + " (Remix)",
			Prompt:            newPrompt,
			Lyrics:            lyrics,
			DescribedLyrics:   describedLyrics,
			FullDescribedSong: newDescribed,
			Instrumental:      parent.Instrumental,
			GuidanceScale:     scale,
			AudioDuration:     duration,
			InferStep:         parent.InferStep,
			Seed:              parent.Seed,
			ParentSongID:      sql.NullString{String: parent.ID, Valid: true},
			IsRemix:           true,
			Status:            model.StatusQueued,
		})
	}
	return variants
}

// appendStyle joins existing style text with an addition using a comma, or
// uses the addition alone when there is nothing to extend.
func appendStyle(existing, addition string) string {
	if existing == "" {
		return addition
	}
	return existing + ", " + addition
}
