package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/dto"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

const internalMessage = "внутренняя ошибка сервера"

// ErrorHandler превращает последнюю ошибку из c.Errors в JSON-ответ.
// Сбои хранилища и окружения маскируются, их текст уходит только в лог.
func ErrorHandler(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, body := describe(err)

		logger.Failure(log.WithFields(logrus.Fields{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"status": status,
		}), err, "http: запрос завершился ошибкой")

		c.JSON(status, body)
	}
}

func describe(err error) (int, dto.ErrorResponse) {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, dto.ErrorResponse{Error: "превышено время выполнения операции", Code: "TIMEOUT"}
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || apperror.IsInfrastructure(err) {
		return http.StatusInternalServerError, dto.ErrorResponse{Error: internalMessage, Code: string(apperror.ErrCodeInternal)}
	}

	message := appErr.Message
	var transition *apperror.TransitionError
	if errors.As(err, &transition) {
		message = transition.Error()
	}
	return appErr.HTTPStatus, dto.ErrorResponse{Error: message, Code: string(appErr.Code)}
}
