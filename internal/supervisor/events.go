package supervisor

import "mvpnd/internal/tunnel"

// EventKind identifies what woke the Supervisor's loop.
type EventKind int

const (
	// EvTunnelTransition carries a new Transition reported by the tunnel
	// state machine.
	EvTunnelTransition EventKind = iota
	// EvManagementCommand carries a Command from a connected management
	// client.
	EvManagementCommand
	// EvManagementInterfaceExited fires if the management transport itself
	// dies unexpectedly (listener error) — treated as fatal, same as
	// TriggerShutdown.
	EvManagementInterfaceExited
	// EvTriggerShutdown fires on SIGTERM/SIGINT, beginning orderly
	// teardown. An explicit Shutdown command starts the same teardown
	// directly rather than through this event.
	EvTriggerShutdown
	// EvReconnectTimer fires when the AuthFailed auto-reconnect timer
	// elapses.
	EvReconnectTimer
)

// Event is the single type flowing through the Supervisor's event
// channel. Only the field matching Kind is populated.
type Event struct {
	Kind EventKind

	Transition tunnel.Transition
	Command    Command
	Err        error
}

func TunnelTransitionEvent(t tunnel.Transition) Event {
	return Event{Kind: EvTunnelTransition, Transition: t}
}

func ManagementCommandEvent(c Command) Event {
	return Event{Kind: EvManagementCommand, Command: c}
}

func ManagementInterfaceExitedEvent(err error) Event {
	return Event{Kind: EvManagementInterfaceExited, Err: err}
}

func TriggerShutdownEvent() Event {
	return Event{Kind: EvTriggerShutdown}
}

func ReconnectTimerEvent() Event {
	return Event{Kind: EvReconnectTimer}
}
