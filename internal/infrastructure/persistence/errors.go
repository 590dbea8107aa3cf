package persistence

import (
	"errors"

	"github.com/lib/pq"

	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// Коды SQLSTATE, которые сервис различает.
const (
	pqUniqueViolation      = pq.ErrorCode("23505")
	pqSerializationFailure = pq.ErrorCode("40001")
	pqDeadlockDetected     = pq.ErrorCode("40P01")
)

// constraintErrors сопоставляет уникальные индексы схемы доменным ошибкам.
var constraintErrors = map[string]error{
	"quotes_one_accepted_per_order": apperror.ErrQuoteAlreadyAccepted,
	"rfq_bids_one_per_tailor":       apperror.ErrBidAlreadyExists,
	"disputes_one_active_per_order": apperror.ErrDisputeExists,
}

// mapError переводит ошибку драйвера в ошибку приложения.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqSerializationFailure, pqDeadlockDetected:
			return apperror.ErrConcurrencyConflict
		case pqUniqueViolation:
			if mapped, ok := constraintErrors[pqErr.Constraint]; ok {
				return mapped
			}
			return apperror.ErrAlreadyExists
		}
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "postgres: "+op)
}
