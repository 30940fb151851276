package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"farmdash/farm"

	"github.com/rohanthewiz/serr"
)

// Store serves the farm resource contract from DuckDB
type Store struct {
	db  *DB
	now func() time.Time
}

// NewStore creates a Store on db
func NewStore(db *DB) *Store {
	return &Store{db: db, now: time.Now}
}

// writeErr tags a failed insert or update the same way the remote client does,
// so callers see one error kind for writes whichever backend is in use
func writeErr(op string, err error) error {
	return &farm.RemoteWriteError{Op: op, Err: err}
}

type scanner interface {
	Scan(dest ...any) error
}

func nullInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return *v
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func encodeItems(items []farm.TaskItem) (string, error) {
	if items == nil {
		items = []farm.TaskItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", serr.Wrap(err, "failed to marshal task items")
	}
	return string(data), nil
}

func decodeItems(raw string) ([]farm.TaskItem, error) {
	var items []farm.TaskItem
	if raw == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, serr.Wrap(err, "failed to unmarshal task items")
	}
	return items, nil
}
