package sqljson

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// metrics 引擎指标，注册到引擎自己的 registry，多个引擎之间互不冲突
type metrics struct {
	operationCounter  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	activeOperations  *prometheus.GaugeVec
	rowCounter        *prometheus.CounterVec
	cacheCounter      *prometheus.CounterVec
	reloadCounter     *prometheus.CounterVec
}

func newMetrics(name string, registry *prometheus.Registry) *metrics {
	m := &metrics{
		operationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: name + "_operations_total",
				Help: "Total number of materialize operations",
			},
			[]string{"operation", "model", "status"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name + "_operation_duration_seconds",
				Help:    "Duration of materialize operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"operation", "model"},
		),
		activeOperations: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: name + "_active_operations",
				Help: "Number of active materialize operations",
			},
			[]string{"operation"},
		),
		rowCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: name + "_rows_total",
				Help: "Total number of rows folded into documents",
			},
			[]string{"model"},
		),
		cacheCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: name + "_payload_cache_total",
				Help: "Payload cache lookups by result",
			},
			[]string{"result"},
		),
		reloadCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: name + "_model_reloads_total",
				Help: "Model reloads triggered by provider changes",
			},
			[]string{"model", "status"},
		),
	}
	registry.MustRegister(
		m.operationCounter,
		m.operationDuration,
		m.activeOperations,
		m.rowCounter,
		m.cacheCounter,
		m.reloadCounter,
	)
	return m
}

func (m *metrics) rows(model string, n int) {
	if m == nil {
		return
	}
	m.rowCounter.WithLabelValues(model).Add(float64(n))
}

func (m *metrics) cache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheCounter.WithLabelValues("hit").Inc()
	} else {
		m.cacheCounter.WithLabelValues("miss").Inc()
	}
}

func (m *metrics) reload(model string, err error) {
	if m == nil {
		return
	}
	m.reloadCounter.WithLabelValues(model, status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// observe 为一次操作记录 span、指标和日志
func (e *Engine) observe(ctx context.Context, operation string, model string, fn func(context.Context) error) error {
	start := time.Now()

	var span trace.Span
	if e.tracer != nil {
		ctx, span = e.tracer.Start(ctx, "sqljson."+operation,
			trace.WithAttributes(
				attribute.String("component", e.name),
				attribute.String("operation", operation),
				attribute.String("model", model),
			),
		)
		defer span.End()
	}

	if e.metrics != nil {
		e.metrics.activeOperations.WithLabelValues(operation).Inc()
		defer e.metrics.activeOperations.WithLabelValues(operation).Dec()
	}

	err := fn(ctx)
	duration := time.Since(start)

	if span != nil {
		span.SetAttributes(attribute.Int64("duration_ms", duration.Milliseconds()))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}

	if e.metrics != nil {
		e.metrics.operationCounter.WithLabelValues(operation, model, status(err)).Inc()
		e.metrics.operationDuration.WithLabelValues(operation, model).Observe(duration.Seconds())
	}

	if err != nil {
		e.logger.ErrorContext(ctx, "operation failed",
			"operation", operation,
			"model", model,
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)
	} else {
		e.logger.DebugContext(ctx, "operation completed",
			"operation", operation,
			"model", model,
			"duration_ms", duration.Milliseconds(),
		)
	}
	return err
}
