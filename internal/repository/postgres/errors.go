package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
)

const (
	codeSerializationFailure pq.ErrorCode = "40001"
	codeDeadlockDetected     pq.ErrorCode = "40P01"
	codeExclusionViolation   pq.ErrorCode = "23P01"
	codeUniqueViolation      pq.ErrorCode = "23505"
	codeForeignKeyViolation  pq.ErrorCode = "23503"
)

// translate maps driver errors onto the application taxonomy. Serialization
// failures and deadlocks are retryable; everything else unknown is not.
func translate(err error, resource, op string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(resource, nil)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeSerializationFailure, codeDeadlockDetected:
			return apperrors.Storage(fmt.Errorf("failed to %s %s: %w", op, resource, err), true)
		case codeExclusionViolation:
			return apperrors.Conflict("slot unavailable: practitioner already booked in this interval")
		case codeUniqueViolation:
			return apperrors.Conflict(fmt.Sprintf("%s already exists", resource))
		case codeForeignKeyViolation:
			return apperrors.NotFound("referenced record", err)
		}
	}
	return apperrors.Storage(fmt.Errorf("failed to %s %s: %w", op, resource, err), false)
}
