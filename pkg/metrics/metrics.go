package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics коллектор Prometheus метрик сервиса
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	dbQueriesTotal     *prometheus.CounterVec
	dbQueryDuration    *prometheus.HistogramVec
	dbOpenConnections  prometheus.Gauge
	dbInUseConnections prometheus.Gauge
	dbIdleConnections  prometheus.Gauge
	dbWaitCount        prometheus.Gauge

	admissionAttempts *prometheus.CounterVec
	ruleMutations     *prometheus.CounterVec
	ruleCacheLookups  *prometheus.CounterVec
	holdsExpired      prometheus.Counter
}

// New регистрирует метрики в глобальном реестре Prometheus
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry регистрирует метрики в переданном реестре
func NewWithRegistry(serviceName string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: labels,
		}, []string{"method", "route", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),

		dbQueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_queries_total",
			Help:        "Total number of database queries",
			ConstLabels: labels,
		}, []string{"operation", "status"}),
		dbQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query latency",
			ConstLabels: labels,
			Buckets:     []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		dbOpenConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Number of established connections",
			ConstLabels: labels,
		}),
		dbInUseConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Number of connections currently in use",
			ConstLabels: labels,
		}),
		dbIdleConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Number of idle connections",
			ConstLabels: labels,
		}),
		dbWaitCount: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: labels,
		}),

		admissionAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "slot_admission_attempts_total",
			Help:        "Slot reservation attempts by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		ruleMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "availability_rule_mutations_total",
			Help:        "Committed availability rule mutations by action",
			ConstLabels: labels,
		}, []string{"action"}),
		ruleCacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "availability_rule_cache_lookups_total",
			Help:        "Rule cache lookups by result",
			ConstLabels: labels,
		}, []string{"result"}),
		holdsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name:        "slot_holds_expired_total",
			Help:        "Number of expired slot holds released by the sweeper",
			ConstLabels: labels,
		}),
	}
}

// ObserveHTTPRequest фиксирует обработанный HTTP запрос
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveDBQuery фиксирует выполненный запрос к БД
func (m *Metrics) ObserveDBQuery(operation string, duration time.Duration, err error) {
	status := "ok"
	if err != nil && err != sql.ErrNoRows {
		status = "error"
	}
	m.dbQueriesTotal.WithLabelValues(operation, status).Inc()
	m.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetDBPoolStats обновляет метрики пула соединений
func (m *Metrics) SetDBPoolStats(stats sql.DBStats) {
	m.dbOpenConnections.Set(float64(stats.OpenConnections))
	m.dbInUseConnections.Set(float64(stats.InUse))
	m.dbIdleConnections.Set(float64(stats.Idle))
	m.dbWaitCount.Set(float64(stats.WaitCount))
}

// ObserveAdmission фиксирует исход попытки резервирования слота
func (m *Metrics) ObserveAdmission(outcome string) {
	m.admissionAttempts.WithLabelValues(outcome).Inc()
}

// ObserveRuleMutation фиксирует зафиксированное изменение правила
func (m *Metrics) ObserveRuleMutation(action string) {
	m.ruleMutations.WithLabelValues(action).Inc()
}

// ObserveRuleCache фиксирует попадание или промах кэша правил
func (m *Metrics) ObserveRuleCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ruleCacheLookups.WithLabelValues(result).Inc()
}

// AddHoldsExpired увеличивает счетчик освобожденных просроченных удержаний
func (m *Metrics) AddHoldsExpired(n int64) {
	m.holdsExpired.Add(float64(n))
}
