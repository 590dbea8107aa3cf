// Package notify доставляет уведомления после фиксации транзакции.
// Доставка не блокирует вызывающего и не участвует в транзакции.
package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/goroutine"
)

type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusChanged EventType = "order.status_changed"
	EventQuoteSubmitted     EventType = "quote.submitted"
	EventQuoteAccepted      EventType = "quote.accepted"
	EventQuoteRejected      EventType = "quote.rejected"
	EventBidSubmitted       EventType = "rfq.bid_submitted"
	EventRFQClosed          EventType = "rfq.closed"
	EventDisputeOpened      EventType = "dispute.opened"
	EventDisputeUpdated     EventType = "dispute.updated"
	EventWalletChanged      EventType = "wallet.changed"
)

// Event - уведомление одному пользователю.
type Event struct {
	Type   EventType
	UserID uuid.UUID
	Data   map[string]any
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Dispatcher рассылает события всем получателям в отдельной горутине.
type Dispatcher struct {
	notifiers []Notifier
	log       logrus.FieldLogger
	tasks     *goroutine.Launcher
}

func NewDispatcher(log logrus.FieldLogger, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		log:       log,
		tasks:     goroutine.NewLauncher(log),
	}
}

// Dispatch не ждёт доставки. Отмена ctx вызывающего доставку не прерывает.
func (d *Dispatcher) Dispatch(ctx context.Context, events ...Event) {
	if d == nil || len(events) == 0 || len(d.notifiers) == 0 {
		return
	}

	d.tasks.Go(context.WithoutCancel(ctx), "notify", func(ctx context.Context) {
		for _, event := range events {
			for _, n := range d.notifiers {
				d.deliver(ctx, n, event)
			}
		}
	})
}

// deliver изолирует панику одного получателя от остальных.
func (d *Dispatcher) deliver(ctx context.Context, n Notifier, event Event) {
	defer d.tasks.Recover("notify:" + string(event.Type))
	if err := n.Notify(ctx, event); err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{"event": event.Type, "user_id": event.UserID}).Warn("notify: уведомление не доставлено")
	}
}

// Wait дожидается завершения начатых рассылок и сообщает, сколько
// получателей упало с паникой за время работы.
func (d *Dispatcher) Wait() {
	d.tasks.Wait()
	if n := d.tasks.Panics(); n > 0 {
		d.log.WithField("panics", n).Warn("notify: получатели завершались с паникой")
	}
}

// LogNotifier пишет события в лог.
type LogNotifier struct {
	log logrus.FieldLogger
}

func NewLogNotifier(log logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	n.log.WithFields(logrus.Fields{
		"event":   event.Type,
		"user_id": event.UserID,
	}).Info("notify: событие")
	return nil
}
