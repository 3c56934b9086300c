package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: сколько заняли вызовы бэкенда (с учетом ретраев)
	RequestDuration *prometheus.HistogramVec

	// Traffic: общее кол-во вызовов scan/predict
	TotalRequests *prometheus.CounterVec

	// Errors: классификация отказов
	ErrorTotal *prometheus.CounterVec

	// Saturation: состояние Circuit Breaker (0 - closed, 1 - half-open, 2 - open)
	CircuitBreakerState *prometheus.GaugeVec

	// Сколько устройств сейчас в каталоге
	DirectoryDevices prometheus.Gauge

	// Ответы сканирования, отброшенные из-за более нового запроса
	StaleScans prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "smartguard_backend_request_duration_seconds",
			Help:    "Histogram of backend call latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"op", "status"}),

		TotalRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "smartguard_backend_requests_total",
			Help: "Total number of backend calls.",
		}, []string{"op"}),

		ErrorTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "smartguard_backend_errors_total",
			Help: "Total number of backend errors by type.",
		}, []string{"op", "type"}), // типы: status, throttle, transport, breaker_open, rate_limit, canceled

		CircuitBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "smartguard_circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open).",
		}, []string{"backend"}),

		DirectoryDevices: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "smartguard_directory_devices",
			Help: "Number of devices in the last committed scan.",
		}),

		StaleScans: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "smartguard_stale_scans_total",
			Help: "Scan responses discarded because a newer scan was issued.",
		}),
	}
}
