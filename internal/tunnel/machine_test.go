package tunnel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errSpawnFailed = errors.New("spawn failed")

type fakeHandle struct {
	up      chan []string
	exited  chan ExitResult
	closeCh chan struct{}
	once    sync.Once
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{
		up:      make(chan []string, 1),
		exited:  make(chan ExitResult, 1),
		closeCh: make(chan struct{}, 1),
	}
}

func (h *fakeHandle) Up() <-chan []string        { return h.up }
func (h *fakeHandle) Exited() <-chan ExitResult  { return h.exited }
func (h *fakeHandle) Close() {
	h.once.Do(func() { close(h.closeCh) })
}

type fakeProcess struct {
	mu      sync.Mutex
	handles []*fakeHandle
	spawnErr error
}

func (p *fakeProcess) Spawn(ctx context.Context, params Parameters) (ProcessHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.spawnErr != nil {
		return nil, p.spawnErr
	}
	h := newFakeHandle()
	p.handles = append(p.handles, h)
	return h, nil
}

func (p *fakeProcess) last() *fakeHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handles[len(p.handles)-1]
}

type fakeFirewall struct {
	mu    sync.Mutex
	calls []FirewallMode
	err   error
}

func (f *fakeFirewall) Apply(mode FirewallMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, mode)
	return f.err
}

func (f *fakeFirewall) last() FirewallMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type fakeDNS struct {
	mu      sync.Mutex
	servers []string
	resets  int
}

func (d *fakeDNS) Set(servers []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.servers = servers
	return nil
}

func (d *fakeDNS) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resets++
	return nil
}

func waitForTransition(t *testing.T, transitions <-chan Transition, kind StateKind) Transition {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case tr := <-transitions:
			if tr.Kind == kind {
				return tr
			}
		case <-deadline:
			t.Fatalf("timed out waiting for transition %s", kind)
		}
	}
}

func newTestMachine() (*Machine, *fakeProcess, *fakeFirewall, *fakeDNS, chan Transition) {
	process := &fakeProcess{}
	firewall := &fakeFirewall{}
	dns := &fakeDNS{}
	transitions := make(chan Transition, 32)
	m := New(process, firewall, dns, func(tr Transition) { transitions <- tr })
	return m, process, firewall, dns, transitions
}

func TestMachine_ConnectReachesConnected(t *testing.T) {
	m, process, firewall, dns, transitions := newTestMachine()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	waitForTransition(t, transitions, Disconnected)

	m.Commands() <- Connect(Parameters{Endpoint: Endpoint{Host: "relay.example", Port: 51820}, AllowLAN: true})
	waitForTransition(t, transitions, Connecting)

	require.Equal(t, FirewallBlockAllExceptTunnel, firewall.last().Kind)
	require.True(t, firewall.last().AllowLAN)

	process.last().up <- []string{"10.0.0.1"}
	waitForTransition(t, transitions, Connected)
	require.Equal(t, []string{"10.0.0.1"}, dns.servers)
}

func TestMachine_DisconnectTearsDownFirewallAndDNS(t *testing.T) {
	m, process, firewall, dns, transitions := newTestMachine()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	waitForTransition(t, transitions, Disconnected)
	m.Commands() <- Connect(Parameters{Endpoint: Endpoint{Host: "relay.example", Port: 51820}})
	waitForTransition(t, transitions, Connecting)
	process.last().up <- nil
	waitForTransition(t, transitions, Connected)

	m.Commands() <- Disconnect()
	waitForTransition(t, transitions, Disconnecting)
	process.last().exited <- ExitResult{WasRequested: true}
	waitForTransition(t, transitions, Disconnected)

	require.Equal(t, FirewallOff, firewall.last().Kind)
	require.GreaterOrEqual(t, dns.resets, 1)
}

func TestMachine_ReconnectOverridesQueuedDisconnect(t *testing.T) {
	m, process, _, _, transitions := newTestMachine()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	waitForTransition(t, transitions, Disconnected)
	m.Commands() <- Connect(Parameters{Endpoint: Endpoint{Host: "relay-a"}})
	waitForTransition(t, transitions, Connecting)
	process.last().up <- nil
	waitForTransition(t, transitions, Connected)

	m.Commands() <- Disconnect()
	tr := waitForTransition(t, transitions, Disconnecting)
	require.Equal(t, ActionNothing, tr.After)

	// Reconnect overrides the queued Nothing before the old process exits.
	m.Commands() <- Connect(Parameters{Endpoint: Endpoint{Host: "relay-b"}})
	firstHandle := process.last()
	firstHandle.exited <- ExitResult{WasRequested: true}

	waitForTransition(t, transitions, Connecting)
	require.Len(t, process.handles, 2)
}

func TestMachine_SpawnFailureEntersBlocked(t *testing.T) {
	process := &fakeProcess{spawnErr: errSpawnFailed}
	firewall := &fakeFirewall{}
	dns := &fakeDNS{}
	transitions := make(chan Transition, 32)
	m := New(process, firewall, dns, func(tr Transition) { transitions <- tr })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	waitForTransition(t, transitions, Disconnected)
	m.Commands() <- Connect(Parameters{Endpoint: Endpoint{Host: "relay.example"}})
	tr := waitForTransition(t, transitions, Blocked)
	require.Equal(t, StartTunnelError, tr.Reason.Kind)
}
