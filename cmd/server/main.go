package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/arbitration-backend/internal/authz"
	"github.com/ignatzorin/arbitration-backend/internal/config"
	"github.com/ignatzorin/arbitration-backend/internal/db"
	"github.com/ignatzorin/arbitration-backend/internal/goroutine"
	httpHandlers "github.com/ignatzorin/arbitration-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/arbitration-backend/internal/http/router"
	"github.com/ignatzorin/arbitration-backend/internal/logger"
	"github.com/ignatzorin/arbitration-backend/internal/repository"
	"github.com/ignatzorin/arbitration-backend/internal/service"
	"github.com/ignatzorin/arbitration-backend/internal/storage"
	"github.com/ignatzorin/arbitration-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	evidenceStorage, err := storage.NewEvidenceStorage(cfg.EvidencePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	caseRepo := repository.NewCaseRepository(dbConn)
	sessionRepo := repository.NewSessionRepository(dbConn)
	voterRepo := repository.NewVoterRepository(dbConn)
	ledgerRepo := repository.NewLedgerRepository(dbConn)
	evidenceRepo := repository.NewEvidenceRepository(dbConn)

	// Параметры движка и авторизация.
	arbParams := service.ArbitrationParams{
		FeePercent:       cfg.Arbitration.FeePercent,
		FeeMinimum:       cfg.Arbitration.FeeMinimum,
		AcceptanceWindow: cfg.Arbitration.AcceptanceWindow,
		VotingDuration:   cfg.Arbitration.VotingDuration,
		MinVotes:         cfg.Arbitration.MinVotes,
		KarmaStart:       cfg.Arbitration.KarmaStart,
		KarmaFloor:       cfg.Arbitration.KarmaFloor,
		KarmaCap:         cfg.Arbitration.KarmaCap,
		OutlierMinRange:  cfg.Arbitration.OutlierMinRange,
		MaxKarmaPenalty:  cfg.Arbitration.MaxKarmaPenalty,
	}
	authProvider := authz.NewRoleProvider(userRepo, voterRepo, cfg.Arbitration.KarmaFloor)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	caseService := service.NewCaseService(caseRepo, ledgerRepo, arbParams)
	verdictService := service.NewVerdictService(caseRepo, ledgerRepo, authProvider, arbParams)
	karmaService := service.NewKarmaService(voterRepo, authProvider, arbParams)
	consensusService := service.NewConsensusService(caseRepo, sessionRepo, voterRepo, karmaService, ledgerRepo, authProvider, arbParams)
	ledgerService := service.NewLedgerService(ledgerRepo)
	evidenceService := service.NewEvidenceService(evidenceRepo, evidenceStorage, caseRepo)

	// Вебсокеты.
	hub := ws.NewHub()
	goroutine.SafeGo(hub.Run)

	caseService.SetHub(hub)
	verdictService.SetHub(hub)
	consensusService.SetHub(hub)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	caseHandler := httpHandlers.NewCaseHandler(caseService)
	verdictHandler := httpHandlers.NewVerdictHandler(verdictService)
	consensusHandler := httpHandlers.NewConsensusHandler(consensusService)
	voterHandler := httpHandlers.NewVoterHandler(karmaService)
	ledgerHandler := httpHandlers.NewLedgerHandler(ledgerService)
	evidenceHandler := httpHandlers.NewEvidenceHandler(evidenceService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(
		cfg,
		authHandler,
		caseHandler,
		verdictHandler,
		consensusHandler,
		voterHandler,
		ledgerHandler,
		evidenceHandler,
		wsHandler,
		healthHandler,
		tokenManager,
	)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
