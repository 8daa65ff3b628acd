// Package pagination implements the keyset cursors used by the admin
// user listings. A cursor names the last row of the previous page by
// ID and creation time; it is base64-wrapped so it survives URLs and
// CLI flags untouched.
package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

var ErrInvalidCursor = errors.New("invalid cursor format")

// Cursor points at the last row of the previous page.
type Cursor struct {
	LastID    string
	Timestamp time.Time
}

// EncodeCursor packs the last row's identity into an opaque string.
// An empty lastID yields an empty cursor, meaning no further pages.
func EncodeCursor(lastID string, timestamp time.Time) string {
	if lastID == "" {
		return ""
	}
	raw := lastID + "|" + timestamp.UTC().Format(time.RFC3339Nano)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor unpacks a cursor produced by EncodeCursor. An empty
// cursor decodes to nil, meaning start from the first page.
func DecodeCursor(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	lastID, rawTime, ok := strings.Cut(string(decoded), "|")
	if !ok || lastID == "" {
		return nil, ErrInvalidCursor
	}
	timestamp, err := time.Parse(time.RFC3339Nano, rawTime)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{LastID: lastID, Timestamp: timestamp}, nil
}
