package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger - хранилище, доступность которого проверяет health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Realtime - источник числа пользователей с открытыми вебсокетами.
type Realtime interface {
	Connected() int
}

// HealthHandler предоставляет endpoint для проверки здоровья сервиса.
type HealthHandler struct {
	storage  string
	db       Pinger
	realtime Realtime
	now      func() time.Time
}

// NewHealthHandler создаёт health handler. db == nil для хранилища в памяти.
func NewHealthHandler(storage string, db Pinger, now func() time.Time) *HealthHandler {
	return &HealthHandler{storage: storage, db: db, now: now}
}

// WithRealtime добавляет в ответ число подключённых пользователей.
func (h *HealthHandler) WithRealtime(r Realtime) *HealthHandler {
	h.realtime = r
	return h
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health обрабатывает GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	checks := map[string]string{"storage": h.storage}
	status := "healthy"

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			checks["database"] = "unhealthy: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "healthy"
		}
	}

	if h.realtime != nil {
		checks["ws_users"] = strconv.Itoa(h.realtime.Connected())
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, HealthResponse{Status: status, Timestamp: h.now(), Checks: checks})
}
