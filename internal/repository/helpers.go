package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// scanTime reads an optional timestamp column. NULL, empty and unparsable
// values all come back as nil.
func scanTime(s sql.NullString, layout string) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	if t, err := time.Parse(layout, s.String); err == nil {
		return &t
	}
	return nil
}

// timeArg binds an optional timestamp as text, or NULL.
func timeArg(t *time.Time, layout string) any {
	if t == nil {
		return nil
	}
	return t.Format(layout)
}

// flagArg binds a bool as SQLite's 0/1 integer.
func flagArg(b bool) int {
	if b {
		return 1
	}
	return 0
}

// encodeList stores a string list as a JSON array. nil becomes "[]".
func encodeList(vals []string) (string, error) {
	if vals == nil {
		vals = []string{}
	}
	b, err := json.Marshal(vals)
	if err != nil {
		return "", fmt.Errorf("encoding list: %w", err)
	}
	return string(b), nil
}

// decodeList is the inverse of encodeList. An empty array decodes to nil.
func decodeList(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var vals []string
	if err := json.Unmarshal([]byte(s), &vals); err != nil {
		return nil, fmt.Errorf("decoding list: %w", err)
	}
	if len(vals) == 0 {
		return nil, nil
	}
	return vals, nil
}

func parseTimestamps(created, updated string) (time.Time, time.Time, error) {
	c, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing created_at: %w", err)
	}
	u, err := time.Parse(time.RFC3339, updated)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return c, u, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
