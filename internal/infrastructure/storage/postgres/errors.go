package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"warungpos/internal/core/apperror"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// TranslateError maps constraint violations to application errors so the
// domain never sees driver types. Other errors are returned unchanged.
func TranslateError(err error, entity, value string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		field := pgErr.ColumnName
		if field == "" {
			field = pgErr.ConstraintName
		}
		return apperror.NewDuplicate(entity, field, value).WithCause(err)
	case pgForeignKeyViolation:
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, entity+" references a missing row").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	}
	return err
}
