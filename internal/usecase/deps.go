// Package usecase содержит общие зависимости сценариев.
package usecase

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
	"github.com/ignatzorin/atelier-backend/internal/notify"
)

// Deps - зависимости, общие для всех сценариев.
type Deps struct {
	UoW    repository.UnitOfWork
	Events *notify.Dispatcher
	Log    logrus.FieldLogger
	Now    func() time.Time
}

// Notify рассылает события после фиксации транзакции.
func (d Deps) Notify(ctx context.Context, events ...notify.Event) {
	d.Events.Dispatch(ctx, events...)
}
