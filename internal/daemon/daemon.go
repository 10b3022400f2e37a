// Package daemon implements the argusd background service: it owns the
// reconciliation loop and exposes the aggregated view over the control
// socket.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/argusproj/argus/internal/bridge"
	"github.com/argusproj/argus/internal/config"
	"github.com/argusproj/argus/internal/control"
	"github.com/argusproj/argus/internal/dispatch"
	"github.com/argusproj/argus/internal/logging"
	"github.com/argusproj/argus/internal/recon"
	"github.com/argusproj/argus/internal/registry"
	"github.com/argusproj/argus/internal/store"
	"github.com/argusproj/argus/internal/unified"
)

// ShutdownTimeout is how long to wait for graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Daemon wires the registry, store, bridge, and dispatcher into one
// reconciliation loop.
type Daemon struct {
	config     *config.Config
	version    string
	audit      *store.Store
	recon      *recon.Store
	registry   *registry.Registry
	bridge     *bridge.Bridge
	dispatcher *dispatch.Dispatcher
	server     *control.Server
	poller     *registry.Poller

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new daemon instance.
func New(cfg *config.Config, version string) (*Daemon, error) {
	audit, err := store.New(cfg.Daemon.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	reg, err := registry.New(cfg.Backends)
	if err != nil {
		audit.Close()
		return nil, fmt.Errorf("failed to build adapters: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{
		config:   cfg,
		version:  version,
		audit:    audit,
		recon:    recon.New(reg.Kinds()),
		registry: reg,
		bridge:   bridge.New(cfg.Poll.MoveBuffer),
		server:   control.NewServer(cfg.Daemon.Socket),
		ctx:      ctx,
		cancel:   cancel,
	}
	d.dispatcher = dispatch.New(d.recon, cfg.Control, cfg.Missions, &auditRecorder{store: audit})
	d.poller = registry.NewPoller(reg, d.recon, cfg.Poll.Interval, d.onCycle)

	d.registerHandlers()
	return d, nil
}

// Run starts the daemon and blocks until shutdown.
func (d *Daemon) Run() error {
	if err := d.server.Start(); err != nil {
		return fmt.Errorf("failed to start control server: %w", err)
	}

	logging.Info("argusd started",
		"version", d.version,
		"socket", d.config.Daemon.Socket,
		"backends", len(d.config.Backends),
		"interval", d.config.Poll.Interval)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.poller.Run(d.ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logging.Info("received signal, shutting down", "signal", sig)
	case <-d.ctx.Done():
	}

	return d.shutdown()
}

// Stop triggers a shutdown from outside the signal path.
func (d *Daemon) Stop() {
	d.cancel()
}

func (d *Daemon) shutdown() error {
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(ShutdownTimeout):
		logging.Warn("shutdown timed out waiting for fetch cycle")
	}

	d.server.Stop()
	if err := d.audit.Close(); err != nil {
		logging.Warn("failed to close audit store", "error", err)
	}
	logging.Info("argusd stopped")
	return nil
}

// onCycle runs after each installed fetch cycle: the bridge diffs the new
// collection and every detected move is pushed to connected clients.
func (d *Daemon) onCycle(cycle uint64, agents []unified.Agent) {
	moves := d.bridge.Observe(agents)
	for _, m := range moves {
		d.server.Broadcast(control.Event{Type: "flow_move", Payload: m})
	}
	if len(moves) > 0 {
		logging.Debug("transitions detected", "cycle", cycle, "moves", len(moves))
	}

	d.server.Broadcast(control.Event{
		Type: "cycle",
		Payload: map[string]any{
			"cycle":  cycle,
			"agents": len(agents),
			"moves":  len(moves),
		},
	})
}

// auditRecorder adapts the SQLite store to the dispatcher's audit hook.
// Audit failures are logged, never propagated: forensics must not block
// control flow.
type auditRecorder struct {
	store *store.Store
}

func (a *auditRecorder) RecordCommand(action string, backend unified.Backend, nativeID, outcome string) {
	if err := a.store.InsertCommand(action, string(backend), nativeID, outcome); err != nil {
		logging.Warn("failed to audit command", "action", action, "error", err)
	}
}

func (a *auditRecorder) RecordMissionCreate(title string, backend unified.Backend, remoteID, outcome string) {
	if err := a.store.InsertMissionAudit(title, string(backend), remoteID, outcome); err != nil {
		logging.Warn("failed to audit mission creation", "title", title, "error", err)
	}
}
