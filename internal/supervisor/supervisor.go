package supervisor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"mvpnd/internal/core"
	"mvpnd/internal/tunnel"
)

// authFailedRetryDelay is how long the Supervisor waits before
// automatically retrying a connection blocked by AuthFailed.
const authFailedRetryDelay = 60 * time.Second

// SettingsStore persists Settings to stable storage.
type SettingsStore interface {
	Load() (core.Settings, error)
	Save(core.Settings) error
}

// RelaySelector picks a concrete Endpoint satisfying RelaySettings
// constraints, or reports that none match.
type RelaySelector interface {
	Select(settings core.RelaySettings) (tunnel.Endpoint, error)
	List() core.RelayList
	Locate(host string) (core.GeoIPLocation, bool)
}

// GeoIPLookup resolves the caller's current apparent location.
type GeoIPLookup interface {
	Lookup(ctx context.Context) (core.GeoIPLocation, error)
}

// AccountClient fetches account metadata from the account server.
type AccountClient interface {
	GetAccountData(ctx context.Context, token string) (core.AccountData, error)
}

// VersionInfoProvider reports the running daemon's version and whether
// it is still supported upstream.
type VersionInfoProvider interface {
	Current() string
	Latest(ctx context.Context) (core.AppVersionInfo, error)
}

// AccountHistory records account tokens that have been used to log in.
// The Supervisor only appends to it; no management RPC reads it back.
type AccountHistory interface {
	Append(token string) error
	Clear() error
}

// Notifier broadcasts state changes to connected management subscribers.
type Notifier interface {
	NotifyNewState(t tunnel.Transition)
	NotifySettings(s core.Settings)
}

// Supervisor is the single goroutine that owns daemon-wide state: the
// user's target state, persisted Settings, and the most recently
// observed tunnel Transition. It reconciles target state against
// observed state by issuing Commands to the tunnel state machine, and
// answers management-interface Commands by reading or mutating that
// state directly — no locking, because only this goroutine ever touches
// it.
type Supervisor struct {
	events     chan Event
	tunnelCmds chan<- tunnel.Command

	settingsStore SettingsStore
	relay         RelaySelector
	geoip         GeoIPLookup
	account       AccountClient
	versionInfo   VersionInfoProvider
	history       AccountHistory
	notifier      Notifier

	logDir      string
	resourceDir string

	targetState    core.TargetState
	settings       core.Settings
	lastTransition tunnel.Transition

	reconnectTimer *time.Timer
	execState      core.ExecutionState
	stopped        chan struct{}
}

// Deps bundles the effect implementations a Supervisor is wired to. All
// fields are required.
type Deps struct {
	SettingsStore SettingsStore
	Relay         RelaySelector
	GeoIP         GeoIPLookup
	Account       AccountClient
	VersionInfo   VersionInfoProvider
	History       AccountHistory
	Notifier      Notifier
	LogDir        string
	ResourceDir   string
}

// New creates a Supervisor. tunnelCmds is the send side of the tunnel
// state machine's command channel; settings is the initial
// configuration loaded at startup.
func New(tunnelCmds chan<- tunnel.Command, settings core.Settings, deps Deps) *Supervisor {
	return &Supervisor{
		events:        make(chan Event, 16),
		tunnelCmds:    tunnelCmds,
		settingsStore: deps.SettingsStore,
		relay:         deps.Relay,
		geoip:         deps.GeoIP,
		account:       deps.Account,
		versionInfo:   deps.VersionInfo,
		history:       deps.History,
		notifier:      deps.Notifier,
		logDir:        deps.LogDir,
		resourceDir:   deps.ResourceDir,
		settings:      settings,
		targetState:   core.Unsecured,
		execState:     core.Running,
		stopped:       make(chan struct{}),
	}
}

// Events returns the send side of the Supervisor's event channel. The
// tunnel state machine's onTransition callback and the management
// interface both post here.
func (s *Supervisor) Events() chan<- Event {
	return s.events
}

// Run drives the Supervisor loop until a shutdown is triggered and the
// tunnel has confirmed it reached Disconnected. It does not itself
// cancel the tunnel machine's context or stop the management
// transport — the caller does that once Run returns.
func (s *Supervisor) Run(ctx context.Context) {
	if s.settings.AutoConnect && s.settings.HasAccountToken() {
		s.targetState = core.Secured
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			if s.handle(ev) {
				return
			}
		}
	}
}

// handle processes one Event and reports whether Run should return.
func (s *Supervisor) handle(ev Event) bool {
	switch ev.Kind {
	case EvTunnelTransition:
		s.onTransition(ev.Transition)
		if s.execState == core.Exiting && ev.Transition.IsDisconnected() {
			s.execState = core.Finished
			close(s.stopped)
			return true
		}
	case EvManagementCommand:
		s.onCommand(ev.Command)
	case EvManagementInterfaceExited:
		core.Log.Errorf("Supervisor", "management interface exited: %v", ev.Err)
		s.beginShutdown()
	case EvTriggerShutdown:
		s.beginShutdown()
	case EvReconnectTimer:
		if s.targetState == core.Secured {
			s.attemptConnect()
		}
	}
	// beginShutdown finishes at once when the tunnel is already
	// Disconnected; Run returns in that case too.
	return s.execState == core.Finished
}

func (s *Supervisor) onTransition(t tunnel.Transition) {
	s.cancelReconnect()

	switch {
	case t.Kind == tunnel.Blocked && t.Reason.Kind == tunnel.AuthFailed && s.targetState == core.Secured:
		s.scheduleReconnect()
	case t.IsDisconnected() && s.execState.IsRunning() && s.targetState == core.Secured:
		s.attemptConnect()
	}

	s.lastTransition = t
	if s.notifier != nil {
		s.notifier.NotifyNewState(t)
	}
}

func (s *Supervisor) scheduleReconnect() {
	s.reconnectTimer = time.AfterFunc(authFailedRetryDelay, func() {
		s.events <- ReconnectTimerEvent()
	})
}

func (s *Supervisor) cancelReconnect() {
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
		s.reconnectTimer = nil
	}
}

// attemptConnect resolves the current Settings to concrete Parameters
// and issues a Connect, or falls straight to Blocked(NoMatchingRelay)
// if no relay satisfies the current constraints.
func (s *Supervisor) attemptConnect() {
	params, err := s.buildParams()
	if err != nil {
		core.Log.Warnf("Supervisor", "select relay: %v", err)
		s.tunnelCmds <- tunnel.Block(tunnel.BlockReason{Kind: tunnel.NoMatchingRelay, Message: err.Error()}, s.settings.AllowLan)
		return
	}
	s.tunnelCmds <- tunnel.Connect(params)
}

func (s *Supervisor) buildParams() (tunnel.Parameters, error) {
	var endpoint tunnel.Endpoint
	if s.settings.Relay.IsCustom() {
		c := s.settings.Relay.Custom
		endpoint = tunnel.Endpoint{Host: c.Host, Port: c.Port, Protocol: c.Protocol}
	} else {
		var err error
		endpoint, err = s.relay.Select(s.settings.Relay)
		if err != nil {
			return tunnel.Parameters{}, err
		}
	}

	token := ""
	if s.settings.AccountToken != nil {
		token = *s.settings.AccountToken
	}

	return tunnel.Parameters{
		Endpoint:    endpoint,
		Options:     tunnel.Options{EnableIPv6: s.settings.EnableIPv6, OpenVPNMssfix: s.settings.OpenVPNMssfix},
		LogDir:      s.logDir,
		ResourceDir: s.resourceDir,
		Credential:  token,
		AllowLAN:    s.settings.AllowLan,
		AttemptID:   uuid.NewString(),
	}, nil
}

// persist durably writes the Supervisor's current Settings and only then
// notifies subscribers, so a subscriber never observes a change that
// didn't actually make it to disk. prev is the Settings as they stood
// before the mutation being persisted; on a failed Save, the in-memory
// mutation is rolled back to prev rather than left diverged from disk.
// Reports whether the write succeeded, so callers can skip any dependent
// effect (reconnecting, reconfiguring the firewall) that would otherwise
// apply a setting that was never actually durably committed.
func (s *Supervisor) persist(prev core.Settings) bool {
	if err := s.settingsStore.Save(s.settings); err != nil {
		core.Log.Errorf("Supervisor", "save settings: %v", err)
		s.settings = prev
		return false
	}
	if s.notifier != nil {
		s.notifier.NotifySettings(s.settings)
	}
	return true
}

func (s *Supervisor) beginShutdown() {
	if !s.execState.IsRunning() {
		return
	}
	s.execState = core.Exiting
	s.cancelReconnect()
	if s.lastTransition.IsDisconnected() {
		s.execState = core.Finished
		close(s.stopped)
		return
	}
	s.tunnelCmds <- tunnel.Disconnect()
}

// Stopped is closed once an orderly shutdown has completed and the
// tunnel has confirmed Disconnected.
func (s *Supervisor) Stopped() <-chan struct{} {
	return s.stopped
}
