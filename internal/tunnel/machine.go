// Package tunnel implements the tunnel state machine: a finite-state
// controller over the lifecycle of a VPN tunnel with strict invariants
// around network blocking, reconnection, and clean teardown.
//
// Each state lives in its own state_*.go file as a method that applies
// the state's effects (firewall, process, DNS) in the required order,
// reports the transition, then blocks on a select statement reacting to
// commands and whatever internal events that state cares about. The
// method returns a stepFunc continuation for whichever state comes
// next, mirroring the per-state-struct approach of a traditional
// tunnel-state-machine crate without a trait-object state enum.
package tunnel

import "context"

// stepFunc runs one state to completion and returns the continuation
// for the state that comes next. A nil return ends Run.
type stepFunc func(ctx context.Context) stepFunc

// Machine is the tunnel state machine. One Machine instance owns exactly
// one tunnel process at a time (data-model invariant #3); it must be
// driven from a single goroutine via Run. Apart from the one Block that
// daemon.New queues when recovering from an unclean shutdown, the
// Supervisor is the only writer to the command channel.
type Machine struct {
	commands chan Command
	emit     func(Transition)

	process  TunnelProcess
	firewall FirewallPolicy
	dns      DnsManager
}

// New creates a Machine. onTransition is called synchronously from the
// Machine's own goroutine every time a new state is entered — it must
// not block or call back into the Machine.
func New(process TunnelProcess, firewall FirewallPolicy, dns DnsManager, onTransition func(Transition)) *Machine {
	return &Machine{
		commands: make(chan Command, 8),
		emit:     onTransition,
		process:  process,
		firewall: firewall,
		dns:      dns,
	}
}

// Commands returns the send side of the command channel.
func (m *Machine) Commands() chan<- Command {
	return m.commands
}

// Run drives the state machine until ctx is cancelled. It starts in
// Disconnected — the only meaningful entry state. There is no terminal
// state; teardown of the Machine itself is external (cancel ctx).
func (m *Machine) Run(ctx context.Context) {
	step := m.disconnected
	for step != nil {
		step = step(ctx)
	}
}

func (m *Machine) report(t Transition) {
	if m.emit != nil {
		m.emit(t)
	}
}
