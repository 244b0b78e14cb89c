package repo

import (
	"github.com/go-faster/errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tanzim-io/tanzim-sdk/pkg/serrors"
)

// MapWriteError reclassifies store-level failures on inserts/updates into the
// service error taxonomy. entity names the record type for the message, e.g.
// "region".
func MapWriteError(err error, entity string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return serrors.Conflictf("%s with this code already exists", entity)
		case pgerrcode.ForeignKeyViolation:
			return serrors.Validationf("invalid reference on %s", entity)
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return serrors.NotFound(entity + " not found")
	}
	if pgconn.Timeout(err) {
		return serrors.StoreUnavailable("store operation timed out")
	}
	return err
}

// MapDeleteError reclassifies store-level failures on deletes. A foreign-key
// violation means dependent rows still reference the record.
func MapDeleteError(err error, entity string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgerrcode.ForeignKeyViolation {
			return serrors.Conflict("cannot delete: has dependent records")
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return serrors.NotFound(entity + " not found")
	}
	return err
}
