package generation

import (
	"testing"

	"tunesmith/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSongSimpleMode(t *testing.T) {
	song, err := BuildSong(7, GenerateRequest{
		Title:             "Sunset Drive",
		FullDescribedSong: "a dreamy synthwave track about driving at dusk",
		AudioDuration:     180,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, song.ID)
	assert.Equal(t, int64(7), song.UserID)
	assert.Equal(t, "Sunset Drive", song.Title)
	assert.Equal(t, "a dreamy synthwave track about driving at dusk", song.FullDescribedSong)
	assert.Empty(t, song.Prompt)
	assert.Equal(t, model.StatusQueued, song.Status)
	assert.False(t, song.IsRemix)
	assert.False(t, song.ParentSongID.Valid)
}

func TestBuildSongCustomMode(t *testing.T) {
	song, err := BuildSong(7, GenerateRequest{
		Prompt: "lo-fi hip hop, mellow",
		Lyrics: "city lights fading slow",
	})
	require.NoError(t, err)
	assert.Equal(t, "lo-fi hip hop, mellow", song.Prompt)
	assert.Equal(t, "city lights fading slow", song.Lyrics)
}

func TestBuildSongDefaultTitle(t *testing.T) {
	song, err := BuildSong(1, GenerateRequest{Prompt: "ambient"})
	require.NoError(t, err)
	assert.Equal(t, "Untitled Song", song.Title)
}

func TestBuildSongRejectsEmptyRequest(t *testing.T) {
	_, err := BuildSong(1, GenerateRequest{Title: "Nothing Else"})
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
}

func TestBuildSongRejectsBothModes(t *testing.T) {
	_, err := BuildSong(1, GenerateRequest{
		Prompt:            "jazz",
		FullDescribedSong: "a jazz song about rain",
	})
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
}

func TestBuildSongRejectsBothLyricFields(t *testing.T) {
	_, err := BuildSong(1, GenerateRequest{
		Prompt:          "jazz",
		Lyrics:          "verbatim words",
		DescribedLyrics: "words about rain",
	})
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
}

func TestBuildSongRejectsLyricsWithoutPrompt(t *testing.T) {
	_, err := BuildSong(1, GenerateRequest{Lyrics: "only words"})
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
}

func parentSong() *model.Song {
	return &model.Song{
		ID:            "parent-id",
		UserID:        3,
		Title:         "Original",
		Prompt:        "synthwave",
		Lyrics:        "neon nights",
		GuidanceScale: 15,
		AudioDuration: 200,
		InferStep:     60,
		Seed:          42,
		Status:        model.StatusProcessed,
	}
}

func TestBuildRemixVariantsDefaultScales(t *testing.T) {
	variants := BuildRemixVariants(9, parentSong(), nil)
	require.Len(t, variants, 2)

	assert.Equal(t, float64(10), variants[0].GuidanceScale)
	assert.Equal(t, float64(20), variants[1].GuidanceScale)

	for _, v := range variants {
		assert.Equal(t, "Original (Remix)", v.Title)
		assert.Equal(t, int64(9), v.UserID)
		assert.True(t, v.IsRemix)
		assert.Equal(t, "parent-id", v.ParentSongID.String)
		assert.True(t, v.ParentSongID.Valid)
		assert.Equal(t, model.StatusQueued, v.Status)
		assert.Equal(t, "synthwave", v.Prompt)
		assert.Equal(t, "neon nights", v.Lyrics)
		assert.Equal(t, float64(200), v.AudioDuration)
		assert.Equal(t, 60, v.InferStep)
		assert.Equal(t, int64(42), v.Seed)
		assert.NotEqual(t, "parent-id", v.ID)
	}
	assert.NotEqual(t, variants[0].ID, variants[1].ID)
}

func TestBuildRemixVariantsExplicitScale(t *testing.T) {
	variants := BuildRemixVariants(9, parentSong(), &RemixVariations{GuidanceScale: 7.5})
	require.Len(t, variants, 1)
	assert.Equal(t, 7.5, variants[0].GuidanceScale)
}

func TestBuildRemixVariantsChangePromptAppends(t *testing.T) {
	parent := parentSong()
	parent.FullDescribedSong = "a retro track"

	variants := BuildRemixVariants(9, parent, &RemixVariations{ChangePrompt: "darker"})
	require.NotEmpty(t, variants)
	assert.Equal(t, "synthwave, darker", variants[0].Prompt)
	assert.Equal(t, "a retro track, darker", variants[0].FullDescribedSong)
}

func TestBuildRemixVariantsChangePromptAlone(t *testing.T) {
	parent := parentSong()
	parent.Prompt = ""

	variants := BuildRemixVariants(9, parent, &RemixVariations{ChangePrompt: "darker"})
	require.NotEmpty(t, variants)
	assert.Equal(t, "darker", variants[0].Prompt)
}

func TestBuildRemixVariantsChangeLyricsClears(t *testing.T) {
	parent := parentSong()
	parent.DescribedLyrics = "about the city"

	variants := BuildRemixVariants(9, parent, &RemixVariations{ChangeLyrics: true})
	require.NotEmpty(t, variants)
	assert.Empty(t, variants[0].Lyrics)
	assert.Empty(t, variants[0].DescribedLyrics)
}

func TestBuildRemixVariantsDefaultDuration(t *testing.T) {
	parent := parentSong()
	parent.AudioDuration = 0

	variants := BuildRemixVariants(9, parent, nil)
	require.NotEmpty(t, variants)
	assert.Equal(t, float64(120), variants[0].AudioDuration)
}
