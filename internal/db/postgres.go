package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Pool - параметры пула соединений.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

var DefaultPool = Pool{MaxOpen: 100, MaxIdle: 25, MaxLifetime: 5 * time.Minute}

const retryInterval = time.Second

// NewPostgres открывает пул и ждёт, пока база начнёт отвечать: при запуске
// в одном compose с базой она поднимается позже сервиса. Ожидание ограничено ctx.
func NewPostgres(ctx context.Context, log logrus.FieldLogger, dsn string, pool Pool) (*sqlx.DB, error) {
	conn, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: некорректный DSN: %w", err)
	}
	conn.SetMaxOpenConns(pool.MaxOpen)
	conn.SetMaxIdleConns(pool.MaxIdle)
	conn.SetConnMaxLifetime(pool.MaxLifetime)

	for attempt := 1; ; attempt++ {
		err = conn.PingContext(ctx)
		if err == nil {
			return conn, nil
		}
		log.WithError(err).WithField("attempt", attempt).Warn("postgres: база недоступна, повторяем")

		select {
		case <-ctx.Done():
			_ = conn.Close()
			return nil, fmt.Errorf("postgres: не удалось подключиться: %w", err)
		case <-time.After(retryInterval):
		}
	}
}
