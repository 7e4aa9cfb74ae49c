package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 3, 1, 12, 30, 0, 123456000, time.UTC), ID: uuid.New()}
	token := EncodeCursor(in)
	assert.NotContains(t, token, "=")

	out, err := ParseCursor(token)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.ID, out.ID)
}

func raw(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	c, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, c)

	for _, token := range []string{"%%%", raw("no-separator"), raw("abc:" + uuid.NewString()), raw("1:not-a-uuid")} {
		_, err := ParseCursor(token)
		assert.Error(t, err, token)
	}
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+50))
	assert.Equal(t, 7, NormalizeLimit(7))
	assert.Equal(t, 8, LimitWithBuffer(7))
}

func TestTrim(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []Cursor{
		{CreatedAt: base.Add(2 * time.Minute), ID: uuid.New()},
		{CreatedAt: base.Add(time.Minute), ID: uuid.New()},
		{CreatedAt: base, ID: uuid.New()},
	}
	identity := func(c Cursor) Cursor { return c }

	page, next := Trim(rows, 2, identity)
	require.Len(t, page, 2)
	parsed, err := ParseCursor(next)
	require.NoError(t, err)
	assert.Equal(t, rows[1].ID, parsed.ID)

	page, next = Trim(rows, 3, identity)
	assert.Len(t, page, 3)
	assert.Empty(t, next)
}
