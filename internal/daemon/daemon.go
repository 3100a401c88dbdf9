package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"mvpnd/internal/core"
	"mvpnd/internal/effects/accountclient"
	"mvpnd/internal/effects/accounthistory"
	"mvpnd/internal/effects/dns"
	"mvpnd/internal/effects/firewall"
	"mvpnd/internal/effects/geoip"
	"mvpnd/internal/effects/management"
	"mvpnd/internal/effects/relay"
	"mvpnd/internal/effects/settingsstore"
	"mvpnd/internal/effects/tunnelproc"
	"mvpnd/internal/effects/versioninfo"
	"mvpnd/internal/supervisor"
	"mvpnd/internal/tunnel"
)

// relayRefreshInterval controls how often the cached relay list is
// re-fetched in the background.
const relayRefreshInterval = 1 * time.Hour

// Config carries the startup-time knobs a concrete deployment supplies;
// everything below it is constructed and wired here rather than left to
// the caller.
type Config struct {
	DataDir      string
	LogDir       string
	ResourceDir  string
	TunnelBinary string
	Version      string
}

// Daemon owns every subsystem's lifecycle for one run of the process.
type Daemon struct {
	cfg        Config
	supervisor *supervisor.Supervisor
	machine    *tunnel.Machine
	server     *management.Server
	relay      *relay.Selector
}

// New constructs every effect and wires the Supervisor and tunnel
// Machine together, loading persisted settings and recovering any
// dangling DNS override left by an unclean shutdown. It does not start
// anything yet — call Run.
func New(cfg Config) (*Daemon, error) {
	for _, dir := range []string{cfg.DataDir, cfg.LogDir, cfg.ResourceDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("daemon: create directory %s: %w", dir, err)
		}
	}

	store := settingsstore.New(cfg.DataDir)
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("daemon: load settings: %w", err)
	}

	backupDir := filepath.Join(cfg.DataDir, "dns-backup")
	recovered, err := dns.RecoverOnStartup(backupDir)
	if err != nil {
		core.Log.Errorf("Daemon", "dns recovery: %v", err)
	}

	relaySelector := relay.New("")
	if err := relaySelector.Refresh(context.Background()); err != nil {
		core.Log.Warnf("Daemon", "initial relay list fetch failed, will retry in background: %v", err)
	}

	broadcaster := management.NewBroadcaster()

	deps := supervisor.Deps{
		SettingsStore: store,
		Relay:         relaySelector,
		GeoIP:         geoip.New(nil),
		Account:       accountclient.New(),
		VersionInfo:   versioninfo.New(cfg.Version),
		History:       accounthistory.New(cfg.DataDir),
		Notifier:      broadcaster,
		LogDir:        cfg.LogDir,
		ResourceDir:   cfg.ResourceDir,
	}

	// sup is referenced by the Machine's onTransition callback below but
	// constructed after the Machine, since it needs the Machine's command
	// channel — declared up front so the closure can close over it.
	var sup *supervisor.Supervisor
	machine := tunnel.New(
		tunnelproc.New(cfg.TunnelBinary),
		firewall.New(),
		dns.New(backupDir),
		func(t tunnel.Transition) {
			sup.Events() <- supervisor.TunnelTransitionEvent(t)
		},
	)
	sup = supervisor.New(machine.Commands(), settings, deps)

	backend := management.NewBackend(sup.Events(), broadcaster)
	server := management.NewServer(backend, func() {
		core.Log.Warnf("Daemon", "management interface idle, no action taken")
	})

	d := &Daemon{cfg: cfg, supervisor: sup, machine: machine, server: server, relay: relaySelector}

	if recovered {
		core.Log.Warnf("Daemon", "starting in a blocked state after recovering from an unclean shutdown")
		machine.Commands() <- tunnel.Block(tunnel.BlockReason{Kind: tunnel.StartTunnelError, Message: "recovering from unclean shutdown"}, settings.AllowLan)
	}

	return d, nil
}

// Run starts every subsystem and blocks until a shutdown signal arrives
// and the tunnel confirms it reached Disconnected.
func (d *Daemon) Run(ctx context.Context) error {
	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tunnelCtx, cancelTunnel := context.WithCancel(context.Background())
	defer cancelTunnel()
	go d.machine.Run(tunnelCtx)

	relayCtx, cancelRelay := context.WithCancel(context.Background())
	defer cancelRelay()
	go d.relay.StartBackgroundRefresh(relayCtx, relayRefreshInterval)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- d.server.Start()
	}()

	// The Supervisor owns its own shutdown sequencing via events; it is
	// driven by a context that is only ever cancelled as a last-resort
	// unblock below, never as the primary shutdown signal — cancelling
	// it concurrently with a queued TriggerShutdownEvent would race
	// against orderly teardown in the Supervisor's own select.
	supervisorCtx, cancelSupervisor := context.WithCancel(context.Background())
	defer cancelSupervisor()
	supervisorDone := make(chan struct{})
	go func() {
		d.supervisor.Run(supervisorCtx)
		close(supervisorDone)
	}()

	select {
	case <-signalCtx.Done():
		core.Log.Infof("Daemon", "shutdown signal received")
		d.supervisor.Events() <- supervisor.TriggerShutdownEvent()
	case err := <-serverErr:
		core.Log.Errorf("Daemon", "management interface exited: %v", err)
		d.supervisor.Events() <- supervisor.ManagementInterfaceExitedEvent(err)
	case <-supervisorDone:
		// Shutdown was triggered by a management Shutdown command,
		// already in flight.
	}

	select {
	case <-d.supervisor.Stopped():
	case <-time.After(10 * time.Second):
		core.Log.Warnf("Daemon", "tunnel did not confirm disconnect in time, shutting down anyway")
	}

	d.server.Stop()
	cancelTunnel()
	cancelRelay()
	cancelSupervisor()
	<-supervisorDone
	return nil
}
