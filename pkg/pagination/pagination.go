// Package pagination implements the keyset cursor shared by the scheme,
// invoice and notification lists. Every paged table carries created_at and
// a uuid id; the cursor is the (created_at, id) pair of the last row served.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// DefaultLimit is the page size used when the caller sends none.
	DefaultLimit = 25
	// MaxLimit caps every list endpoint.
	MaxLimit = 100
)

// Order selects the walking direction over (created_at, id).
type Order int

const (
	// NewestFirst is used for scheme and invoice headers.
	NewestFirst Order = iota
	// OldestFirst is used for notifications, which read in emission order.
	OldestFirst
)

// Cursor is the keyset position of the last row on a page.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit enforces DefaultLimit and MaxLimit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer asks for one extra row so a next page can be detected.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// Keyset orders a query over created_at and id and, when a cursor is given,
// resumes strictly after it. Use with gorm's Scopes.
func Keyset(cursor *Cursor, order Order) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		cmp, dir := "<", "DESC"
		if order == OldestFirst {
			cmp, dir = ">", "ASC"
		}
		if cursor != nil {
			db = db.Where(
				fmt.Sprintf("(created_at %s ?) OR (created_at = ? AND id %s ?)", cmp, cmp),
				cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
			)
		}
		return db.Order(fmt.Sprintf("created_at %s, id %s", dir, dir))
	}
}

// Page cuts rows fetched with LimitWithBuffer down to the requested size and
// returns the cursor of the last kept row, or nil on the final page.
func Page[T any](rows []T, limit int, key func(T) Cursor) ([]T, *Cursor) {
	normalized := NormalizeLimit(limit)
	if len(rows) <= normalized {
		return rows, nil
	}
	rows = rows[:normalized]
	next := key(rows[len(rows)-1])
	return rows, &next
}

// EncodeCursor renders a cursor for query strings.
func EncodeCursor(cursor Cursor) string {
	payload := fmt.Sprintf("%s|%s", cursor.CreatedAt.UTC().Format(time.RFC3339Nano), cursor.ID.String())
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// Next encodes an optional next-page cursor; nil yields "".
func Next(cursor *Cursor) string {
	if cursor == nil {
		return ""
	}
	return EncodeCursor(*cursor)
}

// ParseCursor decodes a cursor produced by EncodeCursor. A blank value
// returns nil without error.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(value, "="))
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	createdAt, id, ok := strings.Cut(string(decoded), "|")
	if !ok {
		return nil, fmt.Errorf("invalid cursor format")
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &Cursor{CreatedAt: t, ID: parsed}, nil
}
