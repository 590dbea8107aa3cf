package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/config"
	"github.com/ignatzorin/atelier-backend/internal/db"
	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
	httpHandlers "github.com/ignatzorin/atelier-backend/internal/http/handlers"
	"github.com/ignatzorin/atelier-backend/internal/http/middleware"
	httpRouter "github.com/ignatzorin/atelier-backend/internal/http/router"
	"github.com/ignatzorin/atelier-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/atelier-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/notify"
	"github.com/ignatzorin/atelier-backend/internal/service"
	"github.com/ignatzorin/atelier-backend/internal/usecase"
	"github.com/ignatzorin/atelier-backend/internal/usecase/ledger"
	"github.com/ignatzorin/atelier-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if cfg.Env == "development" {
		logger.SetTextFormatter()
	}
	appLog := logger.Log.WithField("service", "atelier")

	settlement, err := cfg.Settlement()
	if err != nil {
		appLog.WithError(err).Fatal("main: некорректные параметры расчётов")
	}

	// Хранилище: Postgres с миграциями либо память для локального запуска.
	var (
		uow    repository.UnitOfWork
		pinger httpHandlers.Pinger
	)
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.DBConnectWait)
		dbConn, err := db.NewPostgres(connectCtx, appLog, cfg.DatabaseURL, db.Pool{
			MaxOpen:     cfg.DBMaxOpenConns,
			MaxIdle:     cfg.DBMaxIdleConns,
			MaxLifetime: cfg.DBConnLifetime,
		})
		cancel()
		if err != nil {
			appLog.WithError(err).Fatal("main: ошибка подключения к базе")
		}
		defer safeClose(appLog, dbConn)

		if err := db.RunMigrations(appLog, cfg.DatabaseURL); err != nil {
			appLog.WithError(err).Fatal("main: ошибка миграций")
		}
		uow = persistence.NewStore(dbConn, persistence.WithClock(time.Now))
		pinger = dbConn
	default:
		uow = memory.NewStore(memory.WithClock(time.Now))
	}

	// Вебсокеты и рассылка событий после фиксации транзакций.
	hub := ws.NewHub(ctx, appLog.WithField("component", "ws"))
	go hub.Run()
	events := notify.NewDispatcher(appLog.WithField("component", "notify"), notify.NewLogNotifier(appLog), hub)
	defer events.Wait()

	settlementService, err := service.NewSettlementService(
		usecase.Deps{UoW: uow, Events: events, Log: appLog, Now: time.Now},
		service.SettlementConfig{
			Accounts:       ledger.Accounts{Escrow: settlement.Escrow, Revenue: settlement.Revenue},
			CommissionRate: settlement.CommissionRate,
			DisputeWindow:  cfg.DisputeWindow,
		},
	)
	if err != nil {
		appLog.WithError(err).Fatal("main: ошибка инициализации расчётов")
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	// HTTP хэндлеры.
	engine := httpRouter.SetupRouter(cfg, appLog, tokenManager, httpRouter.Handlers{
		Orders:   httpHandlers.NewOrderHandler(settlementService, cfg.AttentionThresholdDays, time.Now),
		Quotes:   httpHandlers.NewQuoteHandler(settlementService),
		RFQs:     httpHandlers.NewRFQHandler(settlementService),
		Disputes: httpHandlers.NewDisputeHandler(settlementService),
		Wallet:   httpHandlers.NewWalletHandler(settlementService),
		Tailors:  httpHandlers.NewTailorHandler(settlementService),
		Health:   httpHandlers.NewHealthHandler(cfg.StorageDriver, pinger, time.Now).WithRealtime(hub),
		WS:       httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins),
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           middleware.CORS(cfg.AllowedOrigins, engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			appLog.WithError(err).Error("main: ошибка остановки http сервера")
		}
	}()

	appLog.WithFields(logrus.Fields{
		"port":    cfg.HTTPPort,
		"storage": cfg.StorageDriver,
	}).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLog.WithError(err).Error("main: сервер завершился с ошибкой")
	}
}

// safeClose закрывает соединение с базой.
func safeClose(appLog logrus.FieldLogger, conn *sqlx.DB) {
	if err := conn.Close(); err != nil {
		appLog.WithError(err).Error("main: ошибка закрытия базы")
	}
}
