package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ignatzorin/atelier-backend/internal/config"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/dto"
	"github.com/ignatzorin/atelier-backend/internal/http/handlers"
	"github.com/ignatzorin/atelier-backend/internal/http/router"
	"github.com/ignatzorin/atelier-backend/internal/service"
	"github.com/ignatzorin/atelier-backend/internal/usecase/usecasetest"
)

type RouterSuite struct {
	suite.Suite
	h      *usecasetest.Harness
	tokens *service.TokenManager
	engine *gin.Engine

	customer uuid.UUID
	tailor   uuid.UUID
	admin    uuid.UUID
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()

	s.h = usecasetest.New(s.T())
	svc, err := service.NewSettlementService(s.h.Deps, service.SettlementConfig{
		Accounts:       s.h.Accounts,
		CommissionRate: valueobject.DefaultCommissionRate,
	})
	s.Require().NoError(err)

	s.tokens = service.NewTokenManager("router-test-secret-router-test-secret", time.Hour)
	cfg := &config.Config{
		Env:              "test",
		RateLimitLimit:   1000,
		RateLimitPeriod:  time.Minute,
		OperationTimeout: 5 * time.Second,
	}

	s.engine = router.SetupRouter(cfg, log, s.tokens, router.Handlers{
		Orders:   handlers.NewOrderHandler(svc, 0, s.h.Clock.Now),
		Quotes:   handlers.NewQuoteHandler(svc),
		RFQs:     handlers.NewRFQHandler(svc),
		Disputes: handlers.NewDisputeHandler(svc),
		Wallet:   handlers.NewWalletHandler(svc),
		Tailors:  handlers.NewTailorHandler(svc),
		Health:   handlers.NewHealthHandler(config.StorageMemory, nil, s.h.Clock.Now),
	})

	s.customer, s.tailor, s.admin = uuid.New(), uuid.New(), uuid.New()
}

func (s *RouterSuite) token(userID uuid.UUID, role string) string {
	token, _, err := s.tokens.GenerateAccess(userID, role)
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var payload bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *RouterSuite) createOrder(token string) dto.OrderResponse {
	w := s.do(http.MethodPost, "/api/orders", token, map[string]any{
		"tailor_id":   s.tailor,
		"description": "Костюм тройка",
		"items": []map[string]any{
			{"name": "Пиджак", "quantity": 1, "unit_price": "300"},
			{"name": "Брюки", "quantity": 2, "unit_price": "75.50"},
		},
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.OrderResponse](s.T(), w)
}

func (s *RouterSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", "", nil)

	s.Equal(http.StatusOK, w.Code)
	resp := decode[handlers.HealthResponse](s.T(), w)
	s.Equal("healthy", resp.Status)
	s.Equal(config.StorageMemory, resp.Checks["storage"])
}

func (s *RouterSuite) TestUnauthorized() {
	w := s.do(http.MethodGet, "/api/wallet", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/wallet", "garbage", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("UNAUTHORIZED", decode[dto.ErrorResponse](s.T(), w).Code)
}

func (s *RouterSuite) TestRoleIsEnforced() {
	w := s.do(http.MethodPost, "/api/orders", s.token(s.tailor, service.RoleTailor), map[string]any{
		"tailor_id":   uuid.New(),
		"description": "чужая роль",
	})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/admin/tailors/"+uuid.NewString()+"/verify", s.token(s.customer, service.RoleCustomer), nil)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *RouterSuite) TestValidationErrors() {
	customer := s.token(s.customer, service.RoleCustomer)

	w := s.do(http.MethodPost, "/api/orders", customer, map[string]any{"description": "без портного"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("VALIDATION_ERROR", decode[dto.ErrorResponse](s.T(), w).Code)

	w = s.do(http.MethodGet, "/api/orders/not-a-uuid", customer, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/orders/"+uuid.NewString(), customer, nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("NOT_FOUND", decode[dto.ErrorResponse](s.T(), w).Code)
}

func (s *RouterSuite) TestWalletDepositAndInsufficientFunds() {
	customer := s.token(s.customer, service.RoleCustomer)

	w := s.do(http.MethodPost, "/api/wallet/deposit", customer, map[string]any{
		"amount":             "100.00",
		"payment_type":       "bank_transfer",
		"provider_reference": "TX-1",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	deposit := decode[dto.WalletMovementResponse](s.T(), w)
	s.Equal("credit", deposit.Entry.Direction)
	s.Require().NotNil(deposit.Payment)
	s.Equal("deposit", deposit.Payment.Kind)
	s.Equal("bank_transfer", deposit.Payment.Type)
	s.Equal("TX-1", deposit.Payment.ProviderReference)
	s.Nil(deposit.Payment.OrderID)

	w = s.do(http.MethodPost, "/api/wallet/deposit", customer, map[string]any{"amount": "1.00", "payment_type": "barter"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/wallet/withdraw", customer, map[string]any{"amount": "150.00"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("INSUFFICIENT_FUNDS", decode[dto.ErrorResponse](s.T(), w).Code)

	w = s.do(http.MethodPost, "/api/wallet/withdraw", customer, map[string]any{"amount": "40.00"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/wallet", customer, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	balance := decode[dto.BalanceResponse](s.T(), w)
	s.Equal("60.00", balance.Balance.StringFixed(2))

	// Неудавшийся вывод не оставляет записи о платеже.
	w = s.do(http.MethodGet, "/api/wallet/payments", customer, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	payments := decode[dto.ListResponse[dto.PaymentResponse]](s.T(), w)
	s.Require().Equal(2, payments.Count)
	kinds := lo.Map(payments.Items, func(p dto.PaymentResponse, _ int) string { return p.Kind })
	s.ElementsMatch([]string{"deposit", "withdrawal"}, kinds)
}

func (s *RouterSuite) TestQuoteAcceptanceFlow() {
	customer := s.token(s.customer, service.RoleCustomer)
	tailor := s.token(s.tailor, service.RoleTailor)
	s.h.Fund(s.T(), s.customer, "1000.00")

	created := s.createOrder(customer)
	s.Equal("pending", created.Status)
	s.Equal("451.00", created.TotalPrice.StringFixed(2))
	s.Len(created.Items, 2)

	w := s.do(http.MethodPost, "/api/orders/"+created.ID.String()+"/quotes", tailor, map[string]any{
		"proposed_price": "450.00",
		"estimated_days": 7,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	quote := decode[dto.QuoteResponse](s.T(), w)

	// Портной не может принять собственное предложение.
	w = s.do(http.MethodPost, "/api/quotes/"+quote.ID.String()+"/accept", tailor, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/quotes/"+quote.ID.String()+"/accept", customer, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	accepted := decode[dto.AcceptQuoteResponse](s.T(), w)
	s.Equal("confirmed", accepted.Order.Status)
	s.Equal("accepted", accepted.Quote.Status)
	s.Require().NotNil(accepted.Payment)
	s.Equal("450.00", accepted.Payment.Amount.StringFixed(2))

	w = s.do(http.MethodPost, "/api/quotes/"+quote.ID.String()+"/accept", customer, nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	s.Equal("550.00", s.h.Balance(s.T(), s.customer))
	s.Equal("450.00", s.h.Balance(s.T(), s.h.Accounts.Escrow))

	w = s.do(http.MethodPatch, "/api/orders/"+created.ID.String()+"/status", tailor, map[string]any{"status": "delivered"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("INVALID_TRANSITION", decode[dto.ErrorResponse](s.T(), w).Code)

	w = s.do(http.MethodGet, "/api/orders", customer, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	list := decode[dto.ListResponse[dto.OrderResponse]](s.T(), w)
	s.Equal(1, list.Count)
}

func (s *RouterSuite) TestNearbyTailors() {
	admin := s.token(s.admin, service.RoleAdmin)
	register := func(user uuid.UUID, city string) dto.TailorResponse {
		w := s.do(http.MethodPost, "/api/tailors", s.token(user, service.RoleTailor), map[string]any{
			"shop_name": "Ателье " + city,
			"city":      city,
		})
		s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
		return decode[dto.TailorResponse](s.T(), w)
	}
	kazan := register(uuid.New(), "Казань")
	register(uuid.New(), "Казань")
	register(uuid.New(), "Пермь")

	w := s.do(http.MethodPost, "/api/admin/tailors/"+kazan.ID.String()+"/verify", admin, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	// Непроверенный мастер из того же города в выдачу не попадает.
	w = s.do(http.MethodGet, "/api/tailors/nearby?city=казань", "", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	nearby := decode[dto.ListResponse[dto.TailorResponse]](s.T(), w)
	s.Require().Equal(1, nearby.Count)
	s.Equal(kazan.ID, nearby.Items[0].ID)

	w = s.do(http.MethodGet, "/api/tailors/nearby", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func TestRateLimitedTailorCatalog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()
	h := usecasetest.New(t)
	svc, err := service.NewSettlementService(h.Deps, service.SettlementConfig{
		Accounts:       h.Accounts,
		CommissionRate: valueobject.DefaultCommissionRate,
	})
	require.NoError(t, err)

	cfg := &config.Config{RateLimitLimit: 2, RateLimitPeriod: time.Minute, OperationTimeout: time.Second}
	engine := router.SetupRouter(cfg, log, service.NewTokenManager("secret", time.Hour), router.Handlers{
		Orders:   handlers.NewOrderHandler(svc, 0, h.Clock.Now),
		Quotes:   handlers.NewQuoteHandler(svc),
		RFQs:     handlers.NewRFQHandler(svc),
		Disputes: handlers.NewDisputeHandler(svc),
		Wallet:   handlers.NewWalletHandler(svc),
		Tailors:  handlers.NewTailorHandler(svc),
		Health:   handlers.NewHealthHandler(config.StorageMemory, nil, h.Clock.Now),
	})

	codes := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tailors/top", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
