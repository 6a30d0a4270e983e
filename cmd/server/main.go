package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/negotiation-backend/internal/config"
	"github.com/ignatzorin/negotiation-backend/internal/db"
	"github.com/ignatzorin/negotiation-backend/internal/goroutine"
	httpRouter "github.com/ignatzorin/negotiation-backend/internal/http/router"
	"github.com/ignatzorin/negotiation-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/negotiation-backend/internal/interface/http/handler"
	"github.com/ignatzorin/negotiation-backend/internal/logger"
	"github.com/ignatzorin/negotiation-backend/internal/service"
	"github.com/ignatzorin/negotiation-backend/internal/storage"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/comparison"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/contribution"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/message"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/proposal"
	"github.com/ignatzorin/negotiation-backend/internal/usecase/session"
	"github.com/ignatzorin/negotiation-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	// Подключение к базе: postgres с миграциями или sqlite со встроенной схемой.
	dbConn, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL, cfg.MigrationsPath)
	if err != nil {
		logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	attachments, err := storage.NewAttachmentStorage(cfg.AttachmentStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		logger.Log.Fatalf("main: не удалось подготовить хранилище вложений: %v", err)
	}

	partition, err := comparison.NewPartitionPolicy(cfg.ComparatorPartition)
	if err != nil {
		logger.Log.Fatalf("main: %v", err)
	}

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	goroutine.SafeGo(hub.Run)

	// Репозитории.
	contributionRepo := persistence.NewContributionRepositoryAdapter(dbConn)
	sessionRepo := persistence.NewSessionRepositoryAdapter(dbConn)
	proposalRepo := persistence.NewProposalRepositoryAdapter(dbConn)
	messageRepo := persistence.NewMessageRepositoryAdapter(dbConn)

	// HTTP хэндлеры.
	handlers := httpRouter.Handlers{
		Health: handler.NewHealthHandler(dbConn),
		Contribution: handler.NewContributionHandler(
			contribution.NewCreateContributionUseCase(contributionRepo),
			contribution.NewGetContributionUseCase(contributionRepo, sessionRepo),
			contribution.NewTransitionContributionUseCase(contributionRepo, sessionRepo),
			contribution.NewConfigureTermsUseCase(contributionRepo),
			comparison.NewCompareUseCase(contributionRepo, sessionRepo, partition),
		),
		Negotiation: handler.NewNegotiationHandler(
			session.NewCreateOrGetSessionUseCase(sessionRepo, contributionRepo),
			session.NewGetSessionUseCase(sessionRepo),
			session.NewListSessionsUseCase(sessionRepo, contributionRepo),
			session.NewDecideUseCase(sessionRepo, hub),
		),
		Proposal: handler.NewProposalHandler(
			proposal.NewSubmitProposalUseCase(sessionRepo, proposalRepo, hub),
			proposal.NewUpdateProposalStatusUseCase(sessionRepo, proposalRepo, contributionRepo, hub),
			proposal.NewListProposalsUseCase(sessionRepo, proposalRepo),
			proposal.NewProposalHistoryUseCase(sessionRepo, proposalRepo),
		),
		Message: handler.NewMessageHandler(
			message.NewSendMessageUseCase(sessionRepo, messageRepo, hub),
			message.NewListMessagesUseCase(sessionRepo, messageRepo, cfg.MessagePageSize),
			message.NewUploadAttachmentUseCase(sessionRepo, attachments),
		),
		WS: handler.NewWSHandler(message.NewSubscribeUseCase(sessionRepo, hub), tokenManager, cfg.AllowedOrigins),
	}

	engine := httpRouter.SetupRouter(cfg, handlers, tokenManager)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGo(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	})

	logger.Log.WithField("port", cfg.HTTPPort).WithField("db_driver", cfg.DBDriver).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Log.WithError(err).Error("main: ошибка закрытия базы")
	}
}
