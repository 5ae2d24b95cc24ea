package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache(4)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("tags:all", []string{"Safety"}, time.Minute)
	v, ok := c.Get("tags:all")
	require.True(t, ok)
	assert.Equal(t, []string{"Safety"}, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("tags:all")
	assert.False(t, ok)
}

func TestTTLCacheDeletePrefix(t *testing.T) {
	c := NewTTLCache(8)
	c.Set("analytics:summary:day", 1, time.Minute)
	c.Set("analytics:summary:week", 2, time.Minute)
	c.Set("tags:all", 3, time.Minute)

	c.DeletePrefix("analytics:")

	_, ok := c.Get("analytics:summary:day")
	assert.False(t, ok)
	_, ok = c.Get("tags:all")
	assert.True(t, ok)
}

func TestRenderMarkdownSanitises(t *testing.T) {
	out := RenderMarkdown("**Pothole** on [Main](https://example.com)<script>alert(1)</script>")
	assert.Contains(t, out, "<strong>Pothole</strong>")
	assert.Contains(t, out, `rel="nofollow noopener noreferrer"`)
	assert.NotContains(t, out, "<script>")
	assert.Equal(t, "", RenderMarkdown(""))
}

func TestHardenHTMLImages(t *testing.T) {
	out := HardenHTML(`<p><img src="https://example.com/a.png"></p>`)
	assert.Contains(t, out, `referrerpolicy="no-referrer"`)
	assert.Contains(t, out, `loading="lazy"`)
	assert.NotContains(t, out, "<body>")
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("winnipeg204")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("winnipeg204", hash))
	assert.False(t, CheckPasswordHash("winnipeg205", hash))

	assert.True(t, StrongEnough("winnipeg204"))
	assert.False(t, StrongEnough("short1"))
	assert.False(t, StrongEnough("lettersonly"))
	assert.False(t, StrongEnough("1234567890"))
}

func TestParsing(t *testing.T) {
	assert.Equal(t, 12, StringToInt(" 12 "))
	assert.Equal(t, 0, StringToInt("twelve"))

	id, err := ParseOptionalUUID("")
	assert.NoError(t, err)
	assert.Nil(t, id)

	_, err = ParseOptionalUUID("not-a-uuid")
	assert.Error(t, err)

	a, b := uuid.New(), uuid.New()
	ids, err := ParseUUIDList([]string{a.String() + ", " + b.String(), ""})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)
}
