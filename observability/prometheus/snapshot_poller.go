package prometheus

import (
	"context"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/Mo-to/go-async-gui/core"
)

// LoopSnapshotProvider provides current loop stats snapshots.
type LoopSnapshotProvider interface {
	Stats() core.LoopStats
}

// SnapshotPoller periodically exports Loop Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	loopsMu sync.RWMutex
	loops   map[string]LoopSnapshotProvider

	loopQueueDepth   *prom.GaugeVec
	loopRegistrySize *prom.GaugeVec
	loopCycles       *prom.GaugeVec
	loopOverruns     *prom.GaugeVec
	loopExecuted     *prom.GaugeVec
	loopFailed       *prom.GaugeVec
	loopRejected     *prom.GaugeVec
	loopRunning      *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	queueDepth := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "asyncgui",
		Name:      "loop_queue_depth",
		Help:      "Command queue depth per loop.",
	}, []string{"loop"})
	registrySize := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "asyncgui",
		Name:      "loop_registry_size",
		Help:      "Registered update funcs per loop.",
	}, []string{"loop"})
	cycles := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "asyncgui",
		Name:      "loop_cycles_total",
		Help:      "Completed update cycles snapshot.",
	}, []string{"loop"})
	overruns := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "asyncgui",
		Name:      "loop_overruns_total",
		Help:      "Overrun cycle count snapshot.",
	}, []string{"loop"})
	executed := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "asyncgui",
		Name:      "loop_commands_executed_total",
		Help:      "Completed command count snapshot.",
	}, []string{"loop"})
	failed := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "asyncgui",
		Name:      "loop_commands_failed_total",
		Help:      "Failed command count snapshot.",
	}, []string{"loop"})
	rejected := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "asyncgui",
		Name:      "loop_commands_rejected_total",
		Help:      "Rejected command count snapshot.",
	}, []string{"loop"})
	running := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "asyncgui",
		Name:      "loop_running",
		Help:      "Loop running state (1=running, 0=stopped).",
	}, []string{"loop"})

	var err error
	if queueDepth, err = registerCollector(reg, queueDepth); err != nil {
		return nil, err
	}
	if registrySize, err = registerCollector(reg, registrySize); err != nil {
		return nil, err
	}
	if cycles, err = registerCollector(reg, cycles); err != nil {
		return nil, err
	}
	if overruns, err = registerCollector(reg, overruns); err != nil {
		return nil, err
	}
	if executed, err = registerCollector(reg, executed); err != nil {
		return nil, err
	}
	if failed, err = registerCollector(reg, failed); err != nil {
		return nil, err
	}
	if rejected, err = registerCollector(reg, rejected); err != nil {
		return nil, err
	}
	if running, err = registerCollector(reg, running); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:         interval,
		loops:            make(map[string]LoopSnapshotProvider),
		loopQueueDepth:   queueDepth,
		loopRegistrySize: registrySize,
		loopCycles:       cycles,
		loopOverruns:     overruns,
		loopExecuted:     executed,
		loopFailed:       failed,
		loopRejected:     rejected,
		loopRunning:      running,
	}, nil
}

// AddLoop registers a loop for polling under the given name.
func (p *SnapshotPoller) AddLoop(name string, provider LoopSnapshotProvider) {
	p.loopsMu.Lock()
	defer p.loopsMu.Unlock()
	p.loops[name] = provider
}

// RemoveLoop stops polling the named loop.
func (p *SnapshotPoller) RemoveLoop(name string) {
	p.loopsMu.Lock()
	defer p.loopsMu.Unlock()
	delete(p.loops, name)
}

// Start begins polling in a background goroutine.
func (p *SnapshotPoller) Start(ctx context.Context) {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	if p.running {
		return
	}

	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go p.pollLoop(pollCtx)
}

// Stop halts polling and waits for the poll goroutine to exit.
func (p *SnapshotPoller) Stop() {
	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	cancel()
	<-done

	p.stateMu.Lock()
	p.running = false
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) pollLoop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.collect()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Collect exports one snapshot immediately. Also called on every tick.
func (p *SnapshotPoller) collect() {
	p.loopsMu.RLock()
	defer p.loopsMu.RUnlock()

	for name, provider := range p.loops {
		stats := provider.Stats()
		p.loopQueueDepth.WithLabelValues(name).Set(float64(stats.QueueDepth))
		p.loopRegistrySize.WithLabelValues(name).Set(float64(stats.RegistrySize))
		p.loopCycles.WithLabelValues(name).Set(float64(stats.CyclesRun))
		p.loopOverruns.WithLabelValues(name).Set(float64(stats.Overruns))
		p.loopExecuted.WithLabelValues(name).Set(float64(stats.CommandsExecuted))
		p.loopFailed.WithLabelValues(name).Set(float64(stats.CommandsFailed))
		p.loopRejected.WithLabelValues(name).Set(float64(stats.CommandsRejected))
		if stats.Running {
			p.loopRunning.WithLabelValues(name).Set(1)
		} else {
			p.loopRunning.WithLabelValues(name).Set(0)
		}
	}
}
