package valueobject

import (
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// CurrencyScale - число знаков после запятой в минимальной денежной единице.
const CurrencyScale int32 = 2

// DefaultCommissionRate - комиссия платформы по умолчанию.
var DefaultCommissionRate = decimal.RequireFromString("0.10")

// NewAmount проверяет, что сумма положительна и выражена в минимальных единицах валюты.
func NewAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, apperror.New(apperror.ErrCodeValidation, "сумма должна быть положительной")
	}
	if !IsWholeMinorUnits(amount) {
		return decimal.Zero, apperror.New(apperror.ErrCodeValidation, "сумма не может быть точнее копейки")
	}
	return amount, nil
}

// NewNonNegativeAmount допускает ноль, например для цены позиции.
func NewNonNegativeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, apperror.New(apperror.ErrCodeValidation, "сумма не может быть отрицательной")
	}
	if !IsWholeMinorUnits(amount) {
		return decimal.Zero, apperror.New(apperror.ErrCodeValidation, "сумма не может быть точнее копейки")
	}
	return amount, nil
}

// ParseAmount разбирает строковое представление суммы.
func ParseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperror.Wrap(err, apperror.ErrCodeValidation, "некорректная сумма")
	}
	return NewAmount(amount)
}

func IsWholeMinorUnits(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(CurrencyScale))
}

// Commission считает комиссию один раз, банковским округлением.
func Commission(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).RoundBank(CurrencyScale)
}

// ValidateCommissionRate проверяет, что ставка лежит в [0, 1).
func ValidateCommissionRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return apperror.New(apperror.ErrCodeValidation, "ставка комиссии должна быть в диапазоне [0, 1)")
	}
	return nil
}
