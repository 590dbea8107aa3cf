package ledger

import (
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/notify"
)

// WalletChanged - уведомление владельцу кошелька об изменении баланса.
func WalletChanged(userID uuid.UUID, data map[string]any) notify.Event {
	return notify.Event{Type: notify.EventWalletChanged, UserID: userID, Data: data}
}

// WalletEvents - по одному уведомлению на владельца, в порядке первой записи.
func WalletEvents(entries ...entity.WalletEntry) []notify.Event {
	owners := lo.UniqBy(entries, func(e entity.WalletEntry) uuid.UUID { return e.UserID })
	return lo.Map(owners, func(e entity.WalletEntry, _ int) notify.Event {
		data := map[string]any{"entry_id": e.ID, "direction": e.Direction, "amount": e.Amount.String()}
		if e.OrderID != nil {
			data["order_id"] = *e.OrderID
		}
		return WalletChanged(e.UserID, data)
	})
}

// PaymentEvents уведомляет того, чей кошелёк изменил платёж: клиента при
// оплате, возврате, пополнении и выводе, портного при выплате.
func PaymentEvents(payments ...*entity.Payment) []notify.Event {
	events := make([]notify.Event, 0, len(payments))
	for _, p := range payments {
		if p == nil {
			continue
		}
		data := map[string]any{"payment_id": p.ID, "kind": p.Kind, "amount": p.Amount.String()}
		if p.HasOrder() {
			data["order_id"] = p.OrderID
		}
		owner := p.CustomerID
		if p.Kind == valueobject.PaymentKindPayout {
			owner = p.TailorID
		}
		events = append(events, WalletChanged(owner, data))
	}
	return events
}
