package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to SongStatus }{
		{StatusQueued, StatusProcessing},
		{StatusQueued, StatusFailed},
		{StatusQueued, StatusNoCredits},
		{StatusProcessing, StatusProcessed},
		{StatusProcessing, StatusFailed},
		{StatusProcessing, StatusNoCredits},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}

	denied := []struct{ from, to SongStatus }{
		{StatusQueued, StatusProcessed},
		{StatusProcessing, StatusQueued},
		{StatusProcessed, StatusFailed},
		{StatusProcessed, StatusProcessing},
		{StatusFailed, StatusQueued},
		{StatusFailed, StatusProcessing},
		{StatusNoCredits, StatusQueued},
		{StatusProcessed, StatusProcessed},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, StatusQueued.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.True(t, StatusProcessed.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusNoCredits.IsTerminal())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusNoCredits.Valid())
	assert.False(t, SongStatus("archived").Valid())
	assert.False(t, SongStatus("").Valid())
}
