package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategories(t *testing.T) {
	wrapped := fmt.Errorf("%w: кошелёк 42", ErrInsufficientFunds)

	assert.True(t, errors.Is(wrapped, ErrInsufficientFunds))
	assert.True(t, IsBusiness(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.False(t, IsInfrastructure(wrapped))

	assert.True(t, IsNotFound(ErrOrderNotFound))
	assert.True(t, IsValidation(Validationf("сумма %s должна быть положительной", "-1")))
	assert.True(t, IsConcurrencyConflict(fmt.Errorf("commit: %w", ErrConcurrencyConflict)))

	dbErr := Wrap(errors.New("connection refused"), ErrCodeDatabaseError, "не удалось сохранить")
	assert.True(t, IsInfrastructure(dbErr))
	assert.True(t, IsInfrastructure(errors.New("plain")))
	assert.False(t, IsInfrastructure(nil))
}

func TestTransitionError(t *testing.T) {
	err := NewTransitionError("order", "shipped", "confirmed")

	var te *TransitionError
	assert.True(t, errors.As(err, &te))
	assert.Equal(t, "shipped", te.From)
	assert.Equal(t, "confirmed", te.To)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.True(t, IsBusiness(err))
	assert.Equal(t, ErrCodeInvalidTransition, CodeOf(err))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusConflict, ErrConcurrencyConflict.HTTPStatus)
	assert.Equal(t, http.StatusUnprocessableEntity, ErrInsufficientFunds.HTTPStatus)
	assert.Equal(t, http.StatusNotFound, ErrWalletNotFound.HTTPStatus)
	assert.Equal(t, http.StatusInternalServerError, New(ErrCodeDatabaseError, "x").HTTPStatus)
}
