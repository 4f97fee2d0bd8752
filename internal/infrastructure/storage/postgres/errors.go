package postgres

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"erpcore/internal/core/apperror"
)

// SQLSTATE codes the platform reacts to.
const (
	sqlStateUniqueViolation      = "23505"
	sqlStateForeignKeyViolation  = "23503"
	sqlStateCheckViolation       = "23514"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
	sqlStateQueryCanceled        = "57014"
)

// TranslateError maps driver errors to AppErrors. AppErrors and unknown
// errors pass through unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewNotFound("record", nil).WithCause(err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case sqlStateLockNotAvailable:
		return apperror.NewRetryable(apperror.CodeLockTimeout, "lock wait timed out", http.StatusServiceUnavailable).WithCause(err)
	case sqlStateSerializationFailure:
		return apperror.NewRetryable(apperror.CodeSerialization, "serialization failure, retry the operation", http.StatusConflict).WithCause(err)
	case sqlStateDeadlockDetected:
		return apperror.NewRetryable(apperror.CodeDeadlock, "deadlock detected, retry the operation", http.StatusConflict).WithCause(err)
	case sqlStateQueryCanceled:
		return apperror.NewRetryable(apperror.CodeTimeout, "statement timed out", http.StatusServiceUnavailable).WithCause(err)
	case sqlStateUniqueViolation:
		dup := apperror.NewDuplicate(tableEntity(pgErr.TableName), constraintField(pgErr.ConstraintName), "")
		dup.Retryable = strings.HasSuffix(pgErr.ConstraintName, "_code_key")
		return dup.WithCause(err)
	case sqlStateForeignKeyViolation:
		return apperror.NewReferenced(tableEntity(pgErr.TableName), nil).WithCause(err)
	case sqlStateCheckViolation:
		return apperror.NewValidation("value violates constraint "+pgErr.ConstraintName).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	}
	return err
}

func tableEntity(table string) string {
	if table == "" {
		return "record"
	}
	return strings.TrimSuffix(table, "s")
}

// constraintField extracts the column from names like orders_code_key.
func constraintField(constraint string) string {
	name := strings.TrimSuffix(constraint, "_key")
	if i := strings.LastIndex(name, "_"); i >= 0 {
		return name[i+1:]
	}
	return name
}
