package common

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/dto"
	"github.com/ignatzorin/atelier-backend/internal/http/middleware"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

var (
	// ErrUserNotFound - в контексте нет авторизованного пользователя.
	ErrUserNotFound = apperror.New(apperror.ErrCodeUnauthorized, "пользователь не найден в контексте")

	// ErrInvalidUUID - параметр не является UUID.
	ErrInvalidUUID = apperror.New(apperror.ErrCodeBadRequest, "неверный формат UUID")
)

// CurrentUserID извлекает ID пользователя, проставленный AuthMiddleware.
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, ErrUserNotFound
	}
	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrUserNotFound
	}
	return userID, nil
}

// CurrentUserRole извлекает роль пользователя.
func CurrentUserRole(c *gin.Context) string {
	return c.GetString(middleware.ContextRoleKey)
}

func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(c.Param(paramName))
	if err != nil {
		return uuid.Nil, ErrInvalidUUID
	}
	return parsed, nil
}

// BindJSON разбирает тело запроса; ошибка разбора становится ошибкой валидации.
func BindJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, "некорректное тело запроса")
	}
	return nil
}

// Fail передаёт ошибку в ErrorHandler и прерывает цепочку.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func RespondJSON(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, data)
}

func RespondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// ParseIntQuery читает целый параметр запроса со значением по умолчанию.
func ParseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// GetPage возвращает номер страницы (с единицы) и её размер.
func GetPage(c *gin.Context, defaultSize int) (page, size int) {
	page = ParseIntQuery(c, "page", 1)
	size = ParseIntQuery(c, "size", defaultSize)
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = defaultSize
	}
	return page, size
}

// Page оборачивает срез в ответ-список.
func Page[S any, T any](c *gin.Context, items []S, convert func(S) T) {
	c.JSON(http.StatusOK, dto.NewList(items, convert))
}
