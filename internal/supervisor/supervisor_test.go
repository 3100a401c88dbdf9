package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mvpnd/internal/core"
	"mvpnd/internal/tunnel"
)

var errNoRelay = errors.New("no matching relay")

type fakeSettingsStore struct {
	saved   core.Settings
	saveErr error
}

func (f *fakeSettingsStore) Load() (core.Settings, error) { return core.Default(), nil }
func (f *fakeSettingsStore) Save(s core.Settings) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = s
	return nil
}

type fakeRelaySelector struct {
	endpoint tunnel.Endpoint
	err      error
}

func (f *fakeRelaySelector) Select(core.RelaySettings) (tunnel.Endpoint, error) {
	return f.endpoint, f.err
}
func (f *fakeRelaySelector) List() core.RelayList { return core.RelayList{} }
func (f *fakeRelaySelector) Locate(string) (core.GeoIPLocation, bool) {
	return core.GeoIPLocation{}, false
}

type fakeGeoIP struct{}

func (fakeGeoIP) Lookup(ctx context.Context) (core.GeoIPLocation, error) {
	return core.GeoIPLocation{}, nil
}

type fakeAccountClient struct{}

func (fakeAccountClient) GetAccountData(ctx context.Context, token string) (core.AccountData, error) {
	return core.AccountData{}, nil
}

type fakeVersionInfo struct{}

func (fakeVersionInfo) Current() string { return "0.0.0-test" }
func (fakeVersionInfo) Latest(ctx context.Context) (core.AppVersionInfo, error) {
	return core.AppVersionInfo{CurrentIsSupported: true}, nil
}

type fakeHistory struct{ tokens []string }

func (f *fakeHistory) Append(token string) error { f.tokens = append(f.tokens, token); return nil }
func (f *fakeHistory) Clear() error              { f.tokens = nil; return nil }

type fakeNotifier struct {
	states   []tunnel.Transition
	settings []core.Settings
}

func (f *fakeNotifier) NotifyNewState(t tunnel.Transition) { f.states = append(f.states, t) }
func (f *fakeNotifier) NotifySettings(s core.Settings)     { f.settings = append(f.settings, s) }

func newTestSupervisor(t *testing.T) (*Supervisor, chan tunnel.Command, *fakeSettingsStore, *fakeNotifier) {
	t.Helper()
	cmds := make(chan tunnel.Command, 16)
	store := &fakeSettingsStore{}
	notifier := &fakeNotifier{}
	s := New(cmds, core.Default(), Deps{
		SettingsStore: store,
		Relay:         &fakeRelaySelector{endpoint: tunnel.Endpoint{Host: "relay-1", Port: 51820}},
		GeoIP:         fakeGeoIP{},
		Account:       fakeAccountClient{},
		VersionInfo:   fakeVersionInfo{},
		History:       &fakeHistory{},
		Notifier:      notifier,
		LogDir:        t.TempDir(),
		ResourceDir:   t.TempDir(),
	})
	return s, cmds, store, notifier
}

func TestSupervisor_SetTargetStateSecuredIssuesConnect(t *testing.T) {
	s, cmds, _, _ := newTestSupervisor(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	reply := make(chan Reply, 1)
	s.Events() <- ManagementCommandEvent(SetTargetState(core.Secured, reply))

	select {
	case cmd := <-cmds:
		require.Equal(t, tunnel.CmdConnect, cmd.Kind)
		require.Equal(t, "relay-1", cmd.Params.Endpoint.Host)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for connect command")
	}
	<-reply
}

func TestSupervisor_NoMatchingRelayBlocksInstead(t *testing.T) {
	s, cmds, _, _ := newTestSupervisor(t)
	s.relay = &fakeRelaySelector{err: errNoRelay}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	reply := make(chan Reply, 1)
	s.Events() <- ManagementCommandEvent(SetTargetState(core.Secured, reply))

	select {
	case cmd := <-cmds:
		require.Equal(t, tunnel.CmdBlock, cmd.Kind)
		require.Equal(t, tunnel.NoMatchingRelay, cmd.Reason.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for block command")
	}
	<-reply
}

func TestSupervisor_AuthFailedSchedulesReconnectWhileSecured(t *testing.T) {
	s, _, _, notifier := newTestSupervisor(t)
	s.targetState = core.Secured
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Events() <- TunnelTransitionEvent(tunnel.Transition{Kind: tunnel.Blocked, Reason: tunnel.BlockReason{Kind: tunnel.AuthFailed}})

	require.Eventually(t, func() bool {
		return len(notifier.states) == 1
	}, time.Second, 10*time.Millisecond)
	require.NotNil(t, s.reconnectTimer, "AuthFailed while Secured must arm the reconnect timer")
}

func TestSupervisor_ShutdownWaitsForDisconnected(t *testing.T) {
	s, cmds, _, _ := newTestSupervisor(t)
	s.lastTransition = tunnel.Transition{Kind: tunnel.Connected}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Events() <- TriggerShutdownEvent()

	select {
	case cmd := <-cmds:
		require.Equal(t, tunnel.CmdDisconnect, cmd.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for disconnect command")
	}

	select {
	case <-s.Stopped():
		t.Fatal("stopped before tunnel confirmed disconnected")
	default:
	}

	s.Events() <- TunnelTransitionEvent(tunnel.Transition{Kind: tunnel.Disconnected})

	select {
	case <-s.Stopped():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for shutdown completion")
	}
}

func TestSupervisor_SetTargetStateIgnoredAfterShutdownBegins(t *testing.T) {
	s, cmds, _, _ := newTestSupervisor(t)
	s.lastTransition = tunnel.Transition{Kind: tunnel.Connected}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Events() <- TriggerShutdownEvent()
	select {
	case cmd := <-cmds:
		require.Equal(t, tunnel.CmdDisconnect, cmd.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for disconnect command")
	}

	reply := make(chan Reply, 1)
	s.Events() <- ManagementCommandEvent(SetTargetState(core.Secured, reply))
	select {
	case <-reply:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reply")
	}

	select {
	case cmd := <-cmds:
		t.Fatalf("unexpected command issued after shutdown began: %v", cmd.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSupervisor_PersistFailureRollsBackInMemorySettings(t *testing.T) {
	s, _, store, notifier := newTestSupervisor(t)
	store.saveErr = errors.New("disk full")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	reply := make(chan Reply, 1)
	s.Events() <- ManagementCommandEvent(SetAllowLan(true, reply))
	<-reply

	require.Eventually(t, func() bool {
		r := make(chan Reply, 1)
		s.Events() <- ManagementCommandEvent(GetSettings(r))
		got := <-r
		return got.Settings.AllowLan == false
	}, time.Second, 10*time.Millisecond)
	require.Empty(t, notifier.settings, "subscribers must not be notified of a change that failed to persist")
}

func TestSupervisor_SetAccountReconnectsWhenTokenChangesWhileSecured(t *testing.T) {
	s, cmds, _, _ := newTestSupervisor(t)
	s.targetState = core.Secured
	s.lastTransition = tunnel.Transition{Kind: tunnel.Connected}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	token := "new-token"
	reply := make(chan Reply, 1)
	s.Events() <- ManagementCommandEvent(SetAccount(&token, reply))

	select {
	case cmd := <-cmds:
		require.Equal(t, tunnel.CmdConnect, cmd.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reconnect after account change")
	}
	<-reply
}
