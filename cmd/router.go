package main

import (
	"net/http"
	"os"

	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	confirmReservationHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/confirm_reservation"
	createRuleHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/create_rule"
	deleteRuleHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/delete_rule"
	duplicateRuleHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/duplicate_rule"
	getAvailableSlotsHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/get_available_slots"
	getRuleHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/get_rule"
	listRuleLogsHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/list_rule_logs"
	listRulesHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/list_rules"
	releaseReservationHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/release_reservation"
	reserveSlotHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/reserve_slot"
	setRuleActiveHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/set_rule_active"
	updateRuleHandler "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers/update_rule"
	"github.com/m04kA/SMC-AvailabilityService/internal/api/middleware"
	"github.com/m04kA/SMC-AvailabilityService/internal/config"
	reservationsService "github.com/m04kA/SMC-AvailabilityService/internal/service/reservations"
	rulesService "github.com/m04kA/SMC-AvailabilityService/internal/service/rules"
	getAvailableSlotsUC "github.com/m04kA/SMC-AvailabilityService/internal/usecase/get_available_slots"
	reserveSlotUC "github.com/m04kA/SMC-AvailabilityService/internal/usecase/reserve_slot"
	"github.com/m04kA/SMC-AvailabilityService/pkg/logger"
)

type routerDeps struct {
	cfg               *config.Config
	metrics           middleware.HTTPMetrics
	logger            *logger.Logger
	ruleService       *rulesService.Service
	reservationSvc    *reservationsService.Service
	getAvailableSlots *getAvailableSlotsUC.UseCase
	reserveSlot       *reserveSlotUC.UseCase
}

func newRouter(d routerDeps) http.Handler {
	log := d.logger

	// Инициализируем handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(d.getAvailableSlots, log)
	reserveSlot := reserveSlotHandler.NewHandler(d.reserveSlot, log)
	confirmReservation := confirmReservationHandler.NewHandler(d.reservationSvc, log)
	releaseReservation := releaseReservationHandler.NewHandler(d.reservationSvc, log)
	listRules := listRulesHandler.NewHandler(d.ruleService, log)
	getRule := getRuleHandler.NewHandler(d.ruleService, log)
	createRule := createRuleHandler.NewHandler(d.ruleService, log)
	updateRule := updateRuleHandler.NewHandler(d.ruleService, log)
	setRuleActive := setRuleActiveHandler.NewHandler(d.ruleService, log)
	deleteRule := deleteRuleHandler.NewHandler(d.ruleService, log)
	duplicateRule := duplicateRuleHandler.NewHandler(d.ruleService, log)
	listRuleLogs := listRuleLogsHandler.NewHandler(d.ruleService, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID)

	// Добавляем metrics middleware и endpoint (если метрики включены)
	if d.cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(d.metrics))
		r.Handle(d.cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", d.cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Свободные слоты за диапазон дат
	api.HandleFunc("/availability/slots", getAvailableSlots.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Удержания слотов ---
	protected.HandleFunc("/reservations", reserveSlot.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/reservations/{reservationId}/confirm", confirmReservation.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/reservations/{reservationId}", releaseReservation.Handle).Methods(http.MethodDelete)

	// ============================================================
	// ADMIN ROUTES (требуют роль admin)
	// ============================================================

	admin := api.PathPrefix("/availability").Subrouter()
	admin.Use(middleware.Auth, middleware.RequireAdmin)

	// --- Правила доступности ---
	admin.HandleFunc("/rules", listRules.Handle).Methods(http.MethodGet)
	admin.HandleFunc("/rules", createRule.Handle).Methods(http.MethodPost)
	admin.HandleFunc("/rules/{ruleId:[0-9]+}", getRule.Handle).Methods(http.MethodGet)
	admin.HandleFunc("/rules/{ruleId:[0-9]+}", updateRule.Handle).Methods(http.MethodPatch)
	admin.HandleFunc("/rules/{ruleId:[0-9]+}", deleteRule.Handle).Methods(http.MethodDelete)
	admin.HandleFunc("/rules/{ruleId:[0-9]+}/active", setRuleActive.Handle).Methods(http.MethodPatch)
	admin.HandleFunc("/rules/{ruleId:[0-9]+}/duplicate", duplicateRule.Handle).Methods(http.MethodPost)

	// --- Журнал изменений ---
	admin.HandleFunc("/logs", listRuleLogs.Handle).Methods(http.MethodGet)

	// Обертки верхнего уровня: CORS и восстановление после паники
	cors := ghandlers.CORS(
		ghandlers.AllowedOrigins(d.cfg.Server.AllowedOrigins),
		ghandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		ghandlers.AllowedHeaders([]string{"Content-Type", middleware.HeaderUserID, middleware.HeaderUserRole, middleware.HeaderRequestID}),
	)
	recovery := ghandlers.RecoveryHandler(ghandlers.PrintRecoveryStack(true))

	return ghandlers.CombinedLoggingHandler(os.Stdout, recovery(cors(r)))
}
