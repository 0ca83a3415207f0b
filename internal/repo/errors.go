package repo

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound covers both genuinely missing rows and rows owned by
	// another principal; the HTTP layer maps it to 404 so unauthorized
	// callers cannot distinguish the two.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks domain-rule violations such as deleting an
	// occupied room. Mapped to 422.
	ErrConflict = errors.New("conflict")
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
