package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikePatternEscapesMetacharacters(t *testing.T) {
	assert.Equal(t, "%synthwave%", likePattern("synthwave"))
	assert.Equal(t, "%100\\%%", likePattern("100%"))
	assert.Equal(t, "%lo\\_fi%", likePattern("lo_fi"))
}
