package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa las métricas Prometheus del servicio en un registry propio.
type Metrics struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	unitsTotal        *prometheus.CounterVec
	driftedLevels     prometheus.Gauge
}

// NewMetrics inicializa el registry y los colectores.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventario_http_requests_total",
		Help: "Peticiones HTTP por ruta, método y código.",
	}, []string{"route", "method", "code"})
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventario_http_request_duration_seconds",
		Help:    "Duración de las peticiones HTTP por ruta.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventario_operations_total",
		Help: "Operaciones del motor de lotes por tipo y resultado.",
	}, []string{"operation", "outcome"})
	operationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventario_operation_duration_seconds",
		Help:    "Duración de las operaciones del motor de lotes.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventario_units_total",
		Help: "Unidades movidas por operaciones exitosas.",
	}, []string{"operation"})
	drifted := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "inventario_stock_levels_drifted",
		Help: "Agregados corregidos en la última conciliación.",
	})
	registry.MustRegister(requests, requestDuration, operations, operationDuration, units, drifted)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   requestDuration,
		operationsTotal:   operations,
		operationDuration: operationDuration,
		unitsTotal:        units,
		driftedLevels:     drifted,
	}
}

// Handler devuelve el http.Handler para /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware registra cada petición de Fiber con el patrón de ruta, no la URL concreta.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := "unknown"
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		m.requestsTotal.WithLabelValues(route, c.Method(), strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		return err
	}
}

// ObserveOperation implementa inventory.Recorder.
func (m *Metrics) ObserveOperation(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, outcome).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// AddUnits implementa inventory.Recorder.
func (m *Metrics) AddUnits(operation string, units int64) {
	if m == nil {
		return
	}
	m.unitsTotal.WithLabelValues(operation).Add(float64(units))
}

// SetDriftedLevels publica el resultado de la última conciliación.
func (m *Metrics) SetDriftedLevels(n int) {
	if m == nil {
		return
	}
	m.driftedLevels.Set(float64(n))
}

// Registerer expone el registry para colectores adicionales.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}
