package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	encoded := EncodeCursor("user-42", ts)
	require.NotEmpty(t, encoded)

	c, err := DecodeCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, "user-42", c.LastID)
	assert.True(t, c.Timestamp.Equal(ts))
}

func TestDecodeCursor_EmptyMeansFirstPage(t *testing.T) {
	c, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestDecodeCursor_Garbage(t *testing.T) {
	for _, cursor := range []string{"not-base64!!", "bm8tc2VwYXJhdG9y", EncodeCursor("user-1", time.Now())[:8]} {
		_, err := DecodeCursor(cursor)
		assert.ErrorIs(t, err, ErrInvalidCursor, cursor)
	}
}
