package prometheus

import (
	"errors"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/Mo-to/go-async-gui/core"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	CycleDurationBuckets   []float64
	CommandDurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	cycleDurationSeconds   *prom.HistogramVec
	commandDurationSeconds *prom.HistogramVec
	overrunTotal           *prom.CounterVec
	commandErrorTotal      *prom.CounterVec
	commandRejectedTotal   *prom.CounterVec
	taskPanicTotal         *prom.CounterVec
	queueDepth             *prom.GaugeVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "asyncgui"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	cycleBuckets := opts.CycleDurationBuckets
	if len(cycleBuckets) == 0 {
		cycleBuckets = prom.DefBuckets
	}
	commandBuckets := opts.CommandDurationBuckets
	if len(commandBuckets) == 0 {
		commandBuckets = prom.DefBuckets
	}

	cycleVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "cycle_duration_seconds",
		Help:      "Update-scheduler cycle duration in seconds, floor included.",
		Buckets:   cycleBuckets,
	}, []string{"loop"})
	commandVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "command_duration_seconds",
		Help:      "Command execution duration in seconds.",
		Buckets:   commandBuckets,
	}, []string{"loop"})
	overrunVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "overrun_total",
		Help:      "Total number of update cycles that exceeded the interval.",
	}, []string{"loop"})
	commandErrorVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "command_error_total",
		Help:      "Total number of commands that errored or panicked.",
	}, []string{"loop"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "command_rejected_total",
		Help:      "Total number of rejected command submissions.",
	}, []string{"loop", "reason"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of update func and command panics.",
	}, []string{"loop"})
	queueDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Current command queue depth.",
	}, []string{"loop"})

	var err error
	if cycleVec, err = registerCollector(reg, cycleVec); err != nil {
		return nil, err
	}
	if commandVec, err = registerCollector(reg, commandVec); err != nil {
		return nil, err
	}
	if overrunVec, err = registerCollector(reg, overrunVec); err != nil {
		return nil, err
	}
	if commandErrorVec, err = registerCollector(reg, commandErrorVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if queueDepthVec, err = registerCollector(reg, queueDepthVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		cycleDurationSeconds:   cycleVec,
		commandDurationSeconds: commandVec,
		overrunTotal:           overrunVec,
		commandErrorTotal:      commandErrorVec,
		commandRejectedTotal:   rejectedVec,
		taskPanicTotal:         panicVec,
		queueDepth:             queueDepthVec,
	}, nil
}

// RecordCycleDuration records one update cycle's duration.
func (m *MetricsExporter) RecordCycleDuration(loopName string, duration time.Duration) {
	if m == nil {
		return
	}
	m.cycleDurationSeconds.WithLabelValues(normalizeLabel(loopName, "unknown")).Observe(duration.Seconds())
}

// RecordOverrun records an interval overrun.
func (m *MetricsExporter) RecordOverrun(loopName string, interval time.Duration) {
	if m == nil {
		return
	}
	m.overrunTotal.WithLabelValues(normalizeLabel(loopName, "unknown")).Inc()
}

// RecordCommandExecuted records a completed command's duration.
func (m *MetricsExporter) RecordCommandExecuted(loopName string, duration time.Duration) {
	if m == nil {
		return
	}
	m.commandDurationSeconds.WithLabelValues(normalizeLabel(loopName, "unknown")).Observe(duration.Seconds())
}

// RecordCommandError records a failed command.
func (m *MetricsExporter) RecordCommandError(loopName string) {
	if m == nil {
		return
	}
	m.commandErrorTotal.WithLabelValues(normalizeLabel(loopName, "unknown")).Inc()
}

// RecordCommandRejected records a rejected command submission.
func (m *MetricsExporter) RecordCommandRejected(loopName string, reason string) {
	if m == nil {
		return
	}
	m.commandRejectedTotal.WithLabelValues(normalizeLabel(loopName, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

// RecordQueueDepth records the command queue depth.
func (m *MetricsExporter) RecordQueueDepth(loopName string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(normalizeLabel(loopName, "unknown")).Set(float64(depth))
}

// RecordTaskPanic records a task panic.
func (m *MetricsExporter) RecordTaskPanic(loopName string, panicInfo any) {
	if m == nil {
		return
	}
	m.taskPanicTotal.WithLabelValues(normalizeLabel(loopName, "unknown")).Inc()
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
