package repository

import "context"

// Repositories - набор репозиториев, доступных внутри одной транзакции.
type Repositories interface {
	Orders() OrderRepository
	Quotes() QuoteRepository
	RFQs() RFQRepository
	Bids() BidRepository
	Payments() PaymentRepository
	Disputes() DisputeRepository
	Tailors() TailorRepository
	Wallets() WalletRepository
}

// Scope - открытая транзакция. Изменения, сделанные через её репозитории,
// не видны снаружи до Commit и отбрасываются Rollback.
type Scope interface {
	Repositories
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWork открывает транзакции над хранилищем.
type UnitOfWork interface {
	Begin(ctx context.Context) (Scope, error)
}
