package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/m04kA/SMC-AvailabilityService/internal/app"
	"github.com/m04kA/SMC-AvailabilityService/internal/config"
	ruleCache "github.com/m04kA/SMC-AvailabilityService/internal/infra/cache/rules"
	"github.com/m04kA/SMC-AvailabilityService/internal/infra/migrator"
	logRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/availabilitylog"
	consultationRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/consultation"
	reservationRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/reservation"
	ruleRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/rule"
	reservationsService "github.com/m04kA/SMC-AvailabilityService/internal/service/reservations"
	rulesService "github.com/m04kA/SMC-AvailabilityService/internal/service/rules"
	getAvailableSlotsUC "github.com/m04kA/SMC-AvailabilityService/internal/usecase/get_available_slots"
	reserveSlotUC "github.com/m04kA/SMC-AvailabilityService/internal/usecase/reserve_slot"
	"github.com/m04kA/SMC-AvailabilityService/migrations"
	"github.com/m04kA/SMC-AvailabilityService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AvailabilityService/pkg/logger"
	"github.com/m04kA/SMC-AvailabilityService/pkg/metrics"
	"github.com/m04kA/SMC-AvailabilityService/pkg/txmanager"
)

// appMetrics набор измерений, который нужен слоям сервиса
type appMetrics interface {
	dbmetrics.Collector
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
	ObserveAdmission(outcome string)
	ObserveRuleMutation(action string)
	ObserveRuleCache(hit bool)
	AddHoldsExpired(n int64)
}

// nopInvalidator используется, когда кэш правил выключен
type nopInvalidator struct{}

func (nopInvalidator) Invalidate(...int) {}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server and the hold sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(*configPath)
		},
	}
}

func runServer(configPath string) error {
	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Close()

	log.Info("Starting SMC-AvailabilityService...")
	log.Info("Configuration loaded from %s", configPath)

	location, err := cfg.Schedule.Location()
	if err != nil {
		return fmt.Errorf("invalid schedule timezone: %w", err)
	}

	// Инициализируем метрики (если включены)
	var collector appMetrics = metrics.Nop{}
	if cfg.Metrics.Enabled {
		collector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}
	stopMetricsCh := make(chan struct{})

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Применяем миграции при старте (если включено)
	if cfg.Migrations.AutoApply {
		m, err := migrator.New(db, migrations.FS, ".", log)
		if err != nil {
			return err
		}
		if err := m.Up(context.Background()); err != nil {
			return err
		}
	}

	// Все запросы идут через обертку с метриками
	wrappedDB := dbmetrics.WrapWithDefault(db, collector, stopMetricsCh)
	txMgr := txmanager.NewTransactionManager(
		wrappedDB,
		txmanager.WithSerializationRetries(cfg.Admission.SerializationRetries),
	)

	// Инициализируем репозитории
	rules := ruleRepo.NewRepository(wrappedDB)
	logs := logRepo.NewRepository(wrappedDB)
	consultations := consultationRepo.NewRepository(wrappedDB)
	reservations := reservationRepo.NewRepository(wrappedDB)

	// Кэш активных правил: чтение слотов идет через него, сервис правил сбрасывает его после коммита
	var (
		ruleProvider getAvailableSlotsUC.RuleProvider = rules
		invalidator  rulesService.CacheInvalidator    = nopInvalidator{}
	)
	if cfg.Schedule.RuleCacheEnabled {
		cache := ruleCache.New(rules, collector, cfg.Schedule.RuleCacheTTL())
		ruleProvider, invalidator = cache, cache
		log.Info("Active rule cache enabled: ttl=%s", cfg.Schedule.RuleCacheTTL())
	}

	// Инициализируем сервисы
	ruleSvc := rulesService.NewService(
		rules,
		logs,
		txMgr,
		rulesService.NewValidator(cfg.Schedule.RejectPartialWindows),
		invalidator,
		collector,
		log,
	)
	reservationSvc := reservationsService.NewService(
		reservations,
		consultations,
		txMgr,
		collector,
		log,
	)

	// Инициализируем use cases
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		ruleProvider,
		consultations,
		location,
		cfg.Schedule.MaxRangeDays,
		log,
	)
	reserveSlotUseCase := reserveSlotUC.NewUseCase(
		rules,
		consultations,
		reservations,
		txMgr,
		collector,
		reserveSlotUC.Config{
			HoldTTL:   cfg.Admission.HoldTTL(),
			TxTimeout: cfg.Admission.TxTimeout(),
			Location:  location,
		},
		log,
	)

	// Фоновое освобождение просроченных удержаний
	sweeper, err := app.NewHoldSweeper(reservationSvc, cfg.Admission.SweepCron, log)
	if err != nil {
		return err
	}

	router := newRouter(routerDeps{
		cfg:               cfg,
		metrics:           collector,
		logger:            log,
		ruleService:       ruleSvc,
		reservationSvc:    reservationSvc,
		getAvailableSlots: getAvailableSlotsUseCase,
		reserveSlot:       reserveSlotUseCase,
	})

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	sweeper.Start(sweeperCtx)

	// Graceful shutdown
	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		log.Error("Server failed: %v", err)
		stopSweeper()
		sweeper.Stop()
		close(stopMetricsCh)
		return err
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Останавливаем фоновые задачи
	stopSweeper()
	sweeper.Stop()
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
	return nil
}
