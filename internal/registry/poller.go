package registry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/argusproj/argus/internal/logging"
	"github.com/argusproj/argus/internal/recon"
	"github.com/argusproj/argus/internal/unified"
)

// CycleFunc is invoked after a cycle's results are installed in the store.
// It receives the cycle sequence and the merged collection that was
// installed. Cycles superseded by a newer completed cycle never reach it.
type CycleFunc func(cycle uint64, agents []unified.Agent)

// Poller drives the fetch cycle on a fixed cadence. A tick that fires while
// a cycle is still running is skipped: cycles never overlap from the
// poller's own timer, and a cycle that finishes late is discarded by the
// store's sequence check.
type Poller struct {
	registry *Registry
	store    *recon.Store
	interval time.Duration

	inFlight atomic.Bool
	seq      atomic.Uint64

	onCycle CycleFunc
}

// NewPoller creates a poller feeding the given store.
func NewPoller(registry *Registry, store *recon.Store, interval time.Duration, onCycle CycleFunc) *Poller {
	return &Poller{
		registry: registry,
		store:    store,
		interval: interval,
		onCycle:  onCycle,
	}
}

// Run polls until the context is cancelled. The first cycle fires
// immediately so a freshly started daemon is not blind for one interval.
func (p *Poller) Run(ctx context.Context) {
	p.RunOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce executes one fetch cycle unless one is already in flight, in
// which case it reports false and does nothing.
func (p *Poller) RunOnce(ctx context.Context) bool {
	if !p.inFlight.CompareAndSwap(false, true) {
		logging.Debug("fetch cycle still running, tick skipped")
		return false
	}
	defer p.inFlight.Store(false)

	cycle := p.seq.Add(1)
	p.store.SetLoading(true)
	started := time.Now()

	agents := p.registry.FetchAll(ctx)

	p.store.SetLoading(false)
	if !p.store.ReplaceAgents(cycle, agents) {
		logging.Debug("fetch cycle superseded", "cycle", cycle)
		return true
	}
	p.store.SetError(cycleError(p.registry, agents))

	logging.Debug("fetch cycle complete",
		"cycle", cycle,
		"agents", len(agents),
		"elapsed", time.Since(started))

	if p.onCycle != nil {
		p.onCycle(cycle, agents)
	}
	return true
}

// cycleError summarizes cycle health for the store's error flag: set only
// when every backend came back as an unreachable gateway.
func cycleError(r *Registry, agents []unified.Agent) string {
	errored := 0
	for _, a := range agents {
		if a.Status == unified.StatusError && a.Role == "gateway" {
			errored++
		}
	}
	if errored > 0 && errored == len(r.adapters) {
		return "all backends unreachable"
	}
	return ""
}
