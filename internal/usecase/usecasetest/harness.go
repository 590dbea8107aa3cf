// Package usecasetest собирает сценарии поверх хранилища в памяти для тестов.
package usecasetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/atelier-backend/internal/notify"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/usecase"
	"github.com/ignatzorin/atelier-backend/internal/usecase/ledger"
)

// Start - момент, с которого идут часы стенда.
var Start = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// Clock - управляемые часы.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Recorder запоминает доставленные события.
type Recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *Recorder) Notify(_ context.Context, event notify.Event) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Events() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}

// OfType возвращает события одного типа в порядке доставки.
func (r *Recorder) OfType(t notify.EventType) []notify.Event {
	var out []notify.Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type Harness struct {
	Store      *memory.Store
	Clock      *Clock
	Events     *notify.Dispatcher
	Recorder   *Recorder
	Ledger     *ledger.Ledger
	Settlement *ledger.Settlement
	Accounts   ledger.Accounts
	Deps       usecase.Deps
}

func New(t *testing.T) *Harness {
	t.Helper()
	log, _ := test.NewNullLogger()
	clock := &Clock{now: Start}
	store := memory.NewStore(memory.WithClock(clock.Now))
	recorder := &Recorder{}
	events := notify.NewDispatcher(log, recorder)
	t.Cleanup(events.Wait)

	accounts := ledger.Accounts{Escrow: uuid.New(), Revenue: uuid.New()}
	settlement, err := ledger.NewSettlement(accounts, valueobject.DefaultCommissionRate)
	require.NoError(t, err)

	deps := usecase.Deps{UoW: store, Events: events, Log: log, Now: clock.Now}
	return &Harness{
		Store:      store,
		Clock:      clock,
		Events:     events,
		Recorder:   recorder,
		Ledger:     ledger.NewLedger(deps),
		Settlement: settlement,
		Accounts:   accounts,
		Deps:       deps,
	}
}

func Dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Fund пополняет кошелёк пользователя.
func (h *Harness) Fund(t *testing.T, userID uuid.UUID, amount string) {
	t.Helper()
	_, err := h.Ledger.Credit(context.Background(), userID, Dec(amount), "пополнение")
	require.NoError(t, err)
}

// Balance возвращает баланс с двумя знаками; отсутствующий кошелёк равен нулю.
func (h *Harness) Balance(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	b, err := h.Ledger.GetBalance(context.Background(), userID)
	if apperror.IsNotFound(err) {
		return "0.00"
	}
	require.NoError(t, err)
	return b.StringFixed(2)
}

// Settle дожидается рассылки уведомлений.
func (h *Harness) Settle() {
	h.Events.Wait()
}
