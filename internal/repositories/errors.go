package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func noRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// nullable maps "" to SQL NULL so optional uuid parameters never fail to parse.
func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
