package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
	"github.com/ignatzorin/atelier-backend/internal/domain/specification"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// Accounts - служебные кошельки платформы.
type Accounts struct {
	Escrow  uuid.UUID
	Revenue uuid.UUID
}

// Settlement проводит деньги по заказу через эскроу.
// Все методы работают внутри транзакции вызывающего.
type Settlement struct {
	accounts Accounts
	rate     decimal.Decimal
}

func NewSettlement(accounts Accounts, commissionRate decimal.Decimal) (*Settlement, error) {
	if accounts.Escrow == uuid.Nil || accounts.Revenue == uuid.Nil || accounts.Escrow == accounts.Revenue {
		return nil, apperror.New(apperror.ErrCodeValidation, "служебные кошельки эскроу и выручки должны быть заданы и различаться")
	}
	if err := valueobject.ValidateCommissionRate(commissionRate); err != nil {
		return nil, err
	}
	return &Settlement{accounts: accounts, rate: commissionRate}, nil
}

func (s *Settlement) Accounts() Accounts { return s.accounts }

// Paid возвращает сумму, оплаченную клиентом по заказу за вычетом возвратов.
func Paid(ctx context.Context, repos repository.Repositories, orderID uuid.UUID) (decimal.Decimal, error) {
	payments, err := repos.Payments().FindBySpec(ctx, specification.PaymentsForOrder(orderID))
	if err != nil {
		return decimal.Zero, err
	}
	return entity.NetPaid(payments), nil
}

func (s *Settlement) record(ctx context.Context, repos repository.Repositories, order *entity.Order, amount decimal.Decimal, kind valueobject.PaymentKind, now time.Time) (*entity.Payment, error) {
	payment, err := entity.NewPayment(order, amount, kind, valueobject.PaymentTypeWallet, now)
	if err != nil {
		return nil, err
	}
	if err := repos.Payments().Add(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// Hold переводит согласованную цену заказа с кошелька клиента в эскроу.
func (s *Settlement) Hold(ctx context.Context, repos repository.Repositories, order *entity.Order, now time.Time) (*entity.Payment, error) {
	description := fmt.Sprintf("оплата заказа %s", order.OrderNumber)
	if _, err := PostTransfer(ctx, repos, order.CustomerID, s.accounts.Escrow, order.TotalPrice, description, &order.ID, now); err != nil {
		return nil, err
	}
	return s.record(ctx, repos, order, order.TotalPrice, valueobject.PaymentKindCharge, now)
}

// Release выплачивает портному цену за вычетом комиссии и переводит комиссию
// на кошелёк выручки. Комиссия считается один раз и сохраняется в заказе.
func (s *Settlement) Release(ctx context.Context, repos repository.Repositories, order *entity.Order, now time.Time) (*entity.Payment, error) {
	paid, err := Paid(ctx, repos, order.ID)
	if err != nil {
		return nil, err
	}
	if paid.LessThan(order.TotalPrice) {
		return nil, fmt.Errorf("%w: оплачено %s из %s", apperror.ErrOrderNotPaid,
			paid.StringFixed(valueobject.CurrencyScale), order.TotalPrice.StringFixed(valueobject.CurrencyScale))
	}

	order.CommissionAmount = valueobject.Commission(order.TotalPrice, s.rate)
	net := order.TailorNet()
	description := fmt.Sprintf("выплата по заказу %s", order.OrderNumber)

	if net.IsPositive() {
		if _, err := PostTransfer(ctx, repos, s.accounts.Escrow, order.TailorID, net, description, &order.ID, now); err != nil {
			return nil, err
		}
	}
	if order.CommissionAmount.IsPositive() {
		commission := fmt.Sprintf("комиссия по заказу %s", order.OrderNumber)
		if _, err := PostTransfer(ctx, repos, s.accounts.Escrow, s.accounts.Revenue, order.CommissionAmount, commission, &order.ID, now); err != nil {
			return nil, err
		}
	}
	if !net.IsPositive() {
		return nil, nil
	}
	return s.record(ctx, repos, order, net, valueobject.PaymentKindPayout, now)
}

// Refund возвращает клиенту из эскроу всё оплаченное по неотправленному заказу.
// Если оплаты не было, возвращает nil.
func (s *Settlement) Refund(ctx context.Context, repos repository.Repositories, order *entity.Order, now time.Time) (*entity.Payment, error) {
	paid, err := Paid(ctx, repos, order.ID)
	if err != nil {
		return nil, err
	}
	if !paid.IsPositive() {
		return nil, nil
	}

	description := fmt.Sprintf("возврат по заказу %s", order.OrderNumber)
	if _, err := PostTransfer(ctx, repos, s.accounts.Escrow, order.CustomerID, paid, description, &order.ID, now); err != nil {
		return nil, err
	}
	return s.record(ctx, repos, order, paid, valueobject.PaymentKindRefund, now)
}

// Clawback возвращает клиенту amount по уже выплаченному заказу: сначала
// с кошелька портного в пределах его выплаты, остаток с кошелька выручки
// в пределах удержанной комиссии.
func (s *Settlement) Clawback(ctx context.Context, repos repository.Repositories, order *entity.Order, amount decimal.Decimal, now time.Time) (*entity.Payment, error) {
	refund, err := valueobject.NewAmount(amount)
	if err != nil {
		return nil, err
	}
	paid, err := Paid(ctx, repos, order.ID)
	if err != nil {
		return nil, err
	}
	if refund.GreaterThan(paid) {
		return nil, fmt.Errorf("%w: возврат %s, оплачено %s", apperror.ErrRefundExceedsPaid,
			refund.StringFixed(valueobject.CurrencyScale), paid.StringFixed(valueobject.CurrencyScale))
	}

	description := fmt.Sprintf("возврат по спору, заказ %s", order.OrderNumber)

	fromTailor := decimal.Min(refund, order.TailorNet())
	if tailorWallet, err := repos.Wallets().Find(ctx, order.TailorID); err == nil {
		fromTailor = decimal.Min(fromTailor, tailorWallet.Balance())
	} else if apperror.IsNotFound(err) {
		fromTailor = decimal.Zero
	} else {
		return nil, err
	}
	fromRevenue := refund.Sub(fromTailor)
	if fromRevenue.GreaterThan(order.CommissionAmount) {
		return nil, fmt.Errorf("%w: портной не может вернуть %s", apperror.ErrInsufficientFunds,
			fromRevenue.Sub(order.CommissionAmount).StringFixed(valueobject.CurrencyScale))
	}

	if fromTailor.IsPositive() {
		if _, err := PostTransfer(ctx, repos, order.TailorID, order.CustomerID, fromTailor, description, &order.ID, now); err != nil {
			return nil, err
		}
	}
	if fromRevenue.IsPositive() {
		if _, err := PostTransfer(ctx, repos, s.accounts.Revenue, order.CustomerID, fromRevenue, description, &order.ID, now); err != nil {
			return nil, err
		}
	}
	return s.record(ctx, repos, order, refund, valueobject.PaymentKindRefund, now)
}
