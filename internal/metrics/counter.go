// Package metrics tracks operation outcomes in-process and mirrors them to
// Prometheus collectors.
package metrics

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var operationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tether",
		Name:      "operations_total",
		Help:      "Operations by name and outcome",
	},
	[]string{"operation", "outcome"},
)

// Registry holds tether's collectors. It is separate from the default
// registry so tests and embedders stay isolated.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(operationsTotal)
}

// OperationCounter counts attempts, successes and errors for one operation.
type OperationCounter struct {
	name    string
	count   atomic.Int64
	success atomic.Int64
	errors  atomic.Int64
}

func NewOperationCounter(name string) *OperationCounter {
	return &OperationCounter{name: name}
}

func (c *OperationCounter) Name() string { return c.name }

// Increment records an attempt and returns the new total.
func (c *OperationCounter) Increment() int64 {
	operationsTotal.WithLabelValues(c.name, "attempt").Inc()
	return c.count.Add(1)
}

func (c *OperationCounter) RecordSuccess() int64 {
	operationsTotal.WithLabelValues(c.name, "success").Inc()
	return c.success.Add(1)
}

func (c *OperationCounter) RecordError() int64 {
	operationsTotal.WithLabelValues(c.name, "error").Inc()
	return c.errors.Add(1)
}

// Observe increments and records the outcome of err in one call.
func (c *OperationCounter) Observe(err error) {
	c.Increment()
	if err != nil {
		c.RecordError()
		return
	}
	c.RecordSuccess()
}

func (c *OperationCounter) Count() int64        { return c.count.Load() }
func (c *OperationCounter) SuccessCount() int64 { return c.success.Load() }
func (c *OperationCounter) ErrorCount() int64   { return c.errors.Load() }

// SuccessRate is successes over attempts, 1.0 when nothing ran.
func (c *OperationCounter) SuccessRate() float64 {
	total := c.Count()
	if total == 0 {
		return 1.0
	}
	return float64(c.SuccessCount()) / float64(total)
}

func (c *OperationCounter) Summary() string {
	return fmt.Sprintf("%s: total=%d, success=%d, error=%d, success_rate=%.2f%%",
		c.name, c.Count(), c.SuccessCount(), c.ErrorCount(), c.SuccessRate()*100)
}

// LogSummary writes Summary at the given level.
func (c *OperationCounter) LogSummary(log zerolog.Logger, level zerolog.Level) {
	log.WithLevel(level).
		Str("operation", c.name).
		Int64("total", c.Count()).
		Int64("success", c.SuccessCount()).
		Int64("error", c.ErrorCount()).
		Msg(c.Summary())
}

// Measure runs fn and reports how long it took.
func Measure[T any](fn func() T) (T, time.Duration) {
	start := time.Now()
	v := fn()
	return v, time.Since(start)
}
