package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden           ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest          ErrorCode = "BAD_REQUEST"
	ErrCodeConflict            ErrorCode = "CONFLICT"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError       ErrorCode = "DATABASE_ERROR"
	ErrCodeBusinessRule        ErrorCode = "BUSINESS_RULE"
	ErrCodeInvalidTransition   ErrorCode = "INVALID_TRANSITION"
	ErrCodeInsufficientFunds   ErrorCode = "INSUFFICIENT_FUNDS"
	ErrCodeDeadlineExpired     ErrorCode = "DEADLINE_EXPIRED"
	ErrCodeConcurrencyConflict ErrorCode = "CONCURRENCY_CONFLICT"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validationf создаёт ошибку валидации с форматированным сообщением.
func Validationf(format string, args ...any) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf(format, args...))
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeConcurrencyConflict:
		return http.StatusConflict
	case ErrCodeBusinessRule, ErrCodeInvalidTransition, ErrCodeInsufficientFunds, ErrCodeDeadlineExpired:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код первой AppError в цепочке либо ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func hasCode(err error, codes ...ErrorCode) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	for _, code := range codes {
		if appErr.Code == code {
			return true
		}
	}
	return false
}

func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return hasCode(err, ErrCodeForbidden)
}

func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation, ErrCodeBadRequest)
}

// IsBusiness сообщает, что ошибка является ожидаемым нарушением бизнес-правила.
func IsBusiness(err error) bool {
	return hasCode(err, ErrCodeBusinessRule, ErrCodeInvalidTransition, ErrCodeInsufficientFunds, ErrCodeDeadlineExpired, ErrCodeConflict)
}

// IsConcurrencyConflict сообщает, что операцию можно повторить целиком.
func IsConcurrencyConflict(err error) bool {
	return hasCode(err, ErrCodeConcurrencyConflict)
}

// IsInfrastructure сообщает о фатальной для операции ошибке хранилища или окружения.
// Ошибки без AppError в цепочке тоже считаются инфраструктурными.
func IsInfrastructure(err error) bool {
	if err == nil {
		return false
	}
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return true
	}
	return appErr.Code == ErrCodeDatabaseError || appErr.Code == ErrCodeInternal
}

// TransitionError описывает запрещённый переход между состояниями.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: переход %s -> %s запрещён", e.Entity, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// NewTransitionError создаёт ошибку перехода для сущности entity.
func NewTransitionError(entity, from, to string) error {
	return &TransitionError{Entity: entity, From: from, To: to}
}

var (
	ErrOrderNotFound      = New(ErrCodeNotFound, "заказ не найден")
	ErrQuoteNotFound      = New(ErrCodeNotFound, "предложение не найдено")
	ErrRFQNotFound        = New(ErrCodeNotFound, "запрос котировок не найден")
	ErrBidNotFound        = New(ErrCodeNotFound, "ставка не найдена")
	ErrWalletNotFound     = New(ErrCodeNotFound, "кошелёк не найден")
	ErrPaymentNotFound    = New(ErrCodeNotFound, "платёж не найден")
	ErrDisputeNotFound    = New(ErrCodeNotFound, "спор не найден")
	ErrTailorNotFound     = New(ErrCodeNotFound, "профиль портного не найден")
	ErrUnauthorized       = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden          = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials = New(ErrCodeUnauthorized, "неверные учетные данные")

	ErrInvalidTransition    = New(ErrCodeInvalidTransition, "недопустимый переход статуса")
	ErrInsufficientFunds    = New(ErrCodeInsufficientFunds, "недостаточно средств")
	ErrQuoteAlreadyAccepted = New(ErrCodeBusinessRule, "по заказу уже принято предложение")
	ErrQuoteNotPending      = New(ErrCodeBusinessRule, "предложение уже рассмотрено")
	ErrDeadlineExpired      = New(ErrCodeDeadlineExpired, "срок приёма ставок истёк")
	ErrRFQNotOpen           = New(ErrCodeBusinessRule, "запрос котировок закрыт")
	ErrBidAlreadyExists     = New(ErrCodeBusinessRule, "ставка по этому запросу уже подана")
	ErrDisputeExists        = New(ErrCodeBusinessRule, "по заказу уже открыт спор")
	ErrDisputeWindowClosed  = New(ErrCodeBusinessRule, "срок открытия спора истёк")
	ErrRefundExceedsPaid    = New(ErrCodeBusinessRule, "сумма возврата превышает оплаченную сумму")
	ErrOrderNotPaid         = New(ErrCodeBusinessRule, "заказ не оплачен полностью")
	ErrOrderNotPending      = New(ErrCodeBusinessRule, "заказ не принимает предложения")
	ErrAlreadyExists        = New(ErrCodeConflict, "запись уже существует")
	ErrConcurrencyConflict  = New(ErrCodeConcurrencyConflict, "данные изменены параллельной операцией, повторите запрос")
	ErrNestedScope          = New(ErrCodeInternal, "вложенная транзакция не поддерживается")
	ErrScopeClosed          = New(ErrCodeInternal, "транзакция уже завершена")
)
