package repository

import (
	"context"
	"testing"

	"tunesmith/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleFollowRejectsSelfFollow(t *testing.T) {
	// The self-follow guard fires before any query, so no database is
	// needed.
	repo := NewSocialRepository(nil)

	_, err := repo.ToggleFollow(context.Background(), 7, 7)
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
}
