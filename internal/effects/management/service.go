package management

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"mvpnd/internal/supervisor"
)

// Backend implements every RPC the management interface exposes by
// forwarding a supervisor.Command and waiting for its Reply. It never
// touches Supervisor state directly — the Supervisor goroutine remains
// the only writer.
type Backend struct {
	events      chan<- supervisor.Event
	broadcaster *Broadcaster
}

// NewBackend creates a Backend bound to a running Supervisor's event
// channel and the Broadcaster wired into that Supervisor as its Notifier.
func NewBackend(events chan<- supervisor.Event, broadcaster *Broadcaster) *Backend {
	return &Backend{events: events, broadcaster: broadcaster}
}

func (b *Backend) ask(build func(reply chan supervisor.Reply) supervisor.Command) supervisor.Reply {
	reply := make(chan supervisor.Reply, 1)
	b.events <- supervisor.ManagementCommandEvent(build(reply))
	return <-reply
}

func (b *Backend) SetTargetState(ctx context.Context, req *SetTargetStateRequest) (*Empty, error) {
	r := b.ask(func(reply chan supervisor.Reply) supervisor.Command {
		return supervisor.SetTargetState(targetStateFromWire(req.TargetState), reply)
	})
	return &Empty{}, r.Err
}

func (b *Backend) GetState(ctx context.Context, req *Empty) (*GetStateReply, error) {
	r := b.ask(func(reply chan supervisor.Reply) supervisor.Command {
		return supervisor.GetState(reply)
	})
	if r.Err != nil {
		return nil, r.Err
	}
	return &GetStateReply{State: transitionToWire(r.State)}, nil
}

func (b *Backend) GetCurrentLocation(ctx context.Context, req *Empty) (*GetCurrentLocationReply, error) {
	r := b.ask(func(reply chan supervisor.Reply) supervisor.Command {
		return supervisor.GetCurrentLocation(reply)
	})
	if r.Err != nil {
		return nil, r.Err
	}
	return &GetCurrentLocationReply{Location: locationToWire(*r.Location)}, nil
}

func (b *Backend) GetAccountData(ctx context.Context, req *Empty) (*GetAccountDataReply, error) {
	r := b.ask(func(reply chan supervisor.Reply) supervisor.Command {
		return supervisor.GetAccountData(reply)
	})
	if r.Err != nil {
		return nil, r.Err
	}
	return &GetAccountDataReply{Account: accountDataToWire(*r.AccountData)}, nil
}

func (b *Backend) GetRelayLocations(ctx context.Context, req *Empty) (*GetRelayLocationsReply, error) {
	r := b.ask(func(reply chan supervisor.Reply) supervisor.Command {
		return supervisor.GetRelayLocations(reply)
	})
	if r.Err != nil {
		return nil, r.Err
	}
	out := relayListToWire(*r.RelayList)
	return &out, nil
}

func (b *Backend) SetAccount(ctx context.Context, req *SetAccountRequest) (*Empty, error) {
	r := b.ask(func(reply chan supervisor.Reply) supervisor.Command {
		return supervisor.SetAccount(req.AccountToken, reply)
	})
	return &Empty{}, r.Err
}

func (b *Backend) UpdateRelaySettings(ctx context.Context, req *UpdateRelaySettingsRequest) (*Empty, error) {
	r := b.ask(func(reply chan supervisor.Reply) supervisor.Command {
		return supervisor.UpdateRelaySettings(relaySettingsFromWire(req.RelaySettings), reply)
	})
	return &Empty{}, r.Err
}

func (b *Backend) SetAllowLan(ctx context.Context, req *SetAllowLanRequest) (*Empty, error) {
	r := b.ask(func(reply chan supervisor.Reply) supervisor.Command {
		return supervisor.SetAllowLan(req.AllowLan, reply)
	})
	return &Empty{}, r.Err
}

func (b *Backend) SetAutoConnect(ctx context.Context, req *SetAutoConnectRequest) (*Empty, error) {
	r := b.ask(func(reply chan supervisor.Reply) supervisor.Command {
		return supervisor.SetAutoConnect(req.AutoConnect, reply)
	})
	return &Empty{}, r.Err
}

func (b *Backend) SetOpenVpnMssfix(ctx context.Context, req *SetOpenVpnMssfixRequest) (*Empty, error) {
	r := b.ask(func(reply chan supervisor.Reply) supervisor.Command {
		return supervisor.SetOpenVpnMssfix(req.Mssfix, reply)
	})
	return &Empty{}, r.Err
}

func (b *Backend) SetEnableIpv6(ctx context.Context, req *SetEnableIpv6Request) (*Empty, error) {
	r := b.ask(func(reply chan supervisor.Reply) supervisor.Command {
		return supervisor.SetEnableIpv6(req.EnableIpv6, reply)
	})
	return &Empty{}, r.Err
}

func (b *Backend) GetSettings(ctx context.Context, req *Empty) (*GetSettingsReply, error) {
	r := b.ask(func(reply chan supervisor.Reply) supervisor.Command {
		return supervisor.GetSettings(reply)
	})
	if r.Err != nil {
		return nil, r.Err
	}
	return &GetSettingsReply{Settings: settingsToWire(*r.Settings)}, nil
}

func (b *Backend) GetVersionInfo(ctx context.Context, req *Empty) (*GetVersionInfoReply, error) {
	r := b.ask(func(reply chan supervisor.Reply) supervisor.Command {
		return supervisor.GetVersionInfo(reply)
	})
	if r.Err != nil {
		return nil, r.Err
	}
	return &GetVersionInfoReply{VersionInfo: versionInfoToWire(*r.VersionInfo)}, nil
}

func (b *Backend) GetCurrentVersion(ctx context.Context, req *Empty) (*GetCurrentVersionReply, error) {
	r := b.ask(func(reply chan supervisor.Reply) supervisor.Command {
		return supervisor.GetCurrentVersion(reply)
	})
	return &GetCurrentVersionReply{Version: r.CurrentVersion}, r.Err
}

func (b *Backend) Shutdown(ctx context.Context, req *Empty) (*Empty, error) {
	r := b.ask(func(reply chan supervisor.Reply) supervisor.Command {
		return supervisor.Shutdown(reply)
	})
	return &Empty{}, r.Err
}

// SubscribeStateChanges streams Events for as long as the client stays
// connected. Implemented directly against grpc.ServerStream (rather
// than a generated typed stream) since there is no protoc-gen-go-grpc
// output here.
func (b *Backend) SubscribeStateChanges(req *Empty, stream grpc.ServerStream) error {
	ch, cancel := b.broadcaster.Subscribe()
	defer cancel()

	for {
		select {
		case <-stream.Context().Done():
			return stream.Context().Err()
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := stream.SendMsg(&ev); err != nil {
				return fmt.Errorf("management: send event: %w", err)
			}
		}
	}
}
