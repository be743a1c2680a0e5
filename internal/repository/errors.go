package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/locvowork/employee_records/internal/domain"
)

// Postgres SQLSTATE codes the repositories translate into domain errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNoDataFound         = "P0002"
)

// mapError translates driver errors from lib/pq or pgx into domain errors.
// what names the record for the message.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}

	var code string
	var pqErr *pq.Error
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pqErr):
		code = string(pqErr.Code)
	case errors.As(err, &pgErr):
		code = pgErr.Code
	}

	switch code {
	case codeUniqueViolation:
		return fmt.Errorf("%s: %w (%v)", what, domain.ErrAlreadyExists, err)
	case codeForeignKeyViolation, codeNoDataFound:
		return fmt.Errorf("%s: %w (%v)", what, domain.ErrNotFound, err)
	case codeCheckViolation:
		return fmt.Errorf("%s: %w (%v)", what, domain.ErrValidationFailed, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// requireAffected turns an UPDATE or DELETE that touched nothing into ErrNotFound.
func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
