package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
)

// OrderRepository: заказы физически не удаляются.
type OrderRepository interface {
	Reader[entity.Order]
	Writer[entity.Order]
}

type QuoteRepository interface {
	Repository[entity.Quote]
}

type RFQRepository interface {
	Reader[entity.RFQ]
	Writer[entity.RFQ]
}

type BidRepository interface {
	Reader[entity.RFQBid]
	Writer[entity.RFQBid]
}

// PaymentRepository: платежи только добавляются.
type PaymentRepository interface {
	Reader[entity.Payment]
	Add(ctx context.Context, payment *entity.Payment) error
}

type DisputeRepository interface {
	Reader[entity.Dispute]
	Writer[entity.Dispute]
}

type TailorRepository interface {
	Repository[entity.TailorProfile]
}

// WalletRepository хранит кошельки и их журналы.
type WalletRepository interface {
	// Open создаёт кошелёк, если его нет, и возвращает его.
	Open(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error)
	// Find возвращает кошелёк с полным журналом или ErrWalletNotFound.
	Find(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error)
	// Append сохраняет запись журнала, если с момента чтения кошелька
	// в него никто не писал (сравнение по wallet.Version), и увеличивает Version.
	Append(ctx context.Context, wallet *entity.Wallet, entry entity.WalletEntry) error
}
