package models

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTag(t *testing.T) {
	id := uuid.New()

	tag, err := NewTag(id, "  Parks & Recreation ")
	require.NoError(t, err)
	assert.Equal(t, id, tag.ID)
	assert.Equal(t, "Parks & Recreation", tag.Name)

	_, err = NewTag(id, "   ")
	assert.ErrorIs(t, err, ErrInvalidTagName)

	_, err = NewTag(id, strings.Repeat("x", MaxTagNameLength+1))
	assert.ErrorIs(t, err, ErrInvalidTagName)

	// Length is counted in characters, not bytes.
	_, err = NewTag(id, strings.Repeat("é", MaxTagNameLength))
	assert.NoError(t, err)
}

func TestPostVisibilityValid(t *testing.T) {
	assert.True(t, Published.Valid())
	assert.True(t, Hidden.Valid())
	assert.False(t, PostVisibility("Draft").Valid())
}
