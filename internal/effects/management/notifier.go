package management

import (
	"sync"

	"github.com/google/uuid"

	"mvpnd/internal/core"
	"mvpnd/internal/tunnel"
)

// Broadcaster fans out Supervisor state changes to every connected
// SubscribeStateChanges stream. It implements supervisor.Notifier.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[uuid.UUID]chan Event
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[uuid.UUID]chan Event)}
}

// Subscribe registers a new listener, tagged with a fresh UUID purely
// for log correlation, and returns its event channel and an unsubscribe
// function. The channel is buffered; a slow subscriber drops events
// rather than blocking NotifyNewState/NotifySettings.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := uuid.New()
	ch := make(chan Event, 16)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (b *Broadcaster) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			core.Log.Warnf("Management", "subscriber %s channel full, dropping event", id)
		}
	}
}

// NotifyNewState implements supervisor.Notifier.
func (b *Broadcaster) NotifyNewState(t tunnel.Transition) {
	state := transitionToWire(t)
	b.publish(Event{Kind: "new_state", State: &state})
}

// NotifySettings implements supervisor.Notifier.
func (b *Broadcaster) NotifySettings(s core.Settings) {
	settings := settingsToWire(s)
	b.publish(Event{Kind: "settings", Settings: &settings})
}
