package handlers

import (
	"net/http"
	"runtime"

	"example.com/tileflow/services/planning/internal/metrics"
	"example.com/tileflow/services/planning/internal/tracing"

	"github.com/gin-gonic/gin"
)

// MetricsHandler serves the operational metrics endpoints
type MetricsHandler struct {
	metrics *metrics.Collector
	tracer  tracing.Tracer
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(collector *metrics.Collector, tracer tracing.Tracer) *MetricsHandler {
	return &MetricsHandler{
		metrics: collector,
		tracer:  tracer,
	}
}

// HandleGetMetrics returns a snapshot of every metric
func (h *MetricsHandler) HandleGetMetrics(c *gin.Context) {
	txn := h.tracer.StartTransaction("get-metrics")
	defer h.tracer.EndTransaction(txn)

	h.metrics.SetGauge("goroutines", int64(runtime.NumGoroutine()))

	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

// HandleGetHealthCheck returns a simplified health status
func (h *MetricsHandler) HandleGetHealthCheck(c *gin.Context) {
	health := h.metrics.Healthy()

	healthy := true
	for _, ok := range health {
		if !ok {
			healthy = false
			break
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":  healthy,
		"details": health,
	})
}

// RegisterRoutes registers the handler's routes
func (h *MetricsHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/metrics", h.HandleGetMetrics)
	router.GET("/health", h.HandleGetHealthCheck)
}
