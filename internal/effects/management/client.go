package management

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const defaultDialTimeout = 5 * time.Second

// Client is a thin typed wrapper over a gRPC connection to the
// management interface, for use by a companion CLI or GUI.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the running daemon's management interface.
func Dial(ctx context.Context) (*Client, error) {
	return DialWithTimeout(ctx, defaultDialTimeout)
}

func DialWithTimeout(ctx context.Context, timeout time.Duration) (*Client, error) {
	conn, err := grpc.NewClient(
		dialTarget(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
		grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
			return dial(timeout)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("management: dial: %w", err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) invoke(ctx context.Context, method string, req, reply any) error {
	return c.conn.Invoke(ctx, "/"+serviceName+"/"+method, req, reply)
}

func (c *Client) SetTargetState(ctx context.Context, req *SetTargetStateRequest) (*Empty, error) {
	reply := new(Empty)
	return reply, c.invoke(ctx, "SetTargetState", req, reply)
}

func (c *Client) GetState(ctx context.Context) (*GetStateReply, error) {
	reply := new(GetStateReply)
	return reply, c.invoke(ctx, "GetState", &Empty{}, reply)
}

func (c *Client) GetSettings(ctx context.Context) (*GetSettingsReply, error) {
	reply := new(GetSettingsReply)
	return reply, c.invoke(ctx, "GetSettings", &Empty{}, reply)
}

func (c *Client) GetCurrentVersion(ctx context.Context) (*GetCurrentVersionReply, error) {
	reply := new(GetCurrentVersionReply)
	return reply, c.invoke(ctx, "GetCurrentVersion", &Empty{}, reply)
}

// SubscribeStateChanges opens the server-streaming RPC and returns a
// channel of decoded Events, closed when the stream ends.
func (c *Client) SubscribeStateChanges(ctx context.Context) (<-chan Event, error) {
	desc := &grpc.StreamDesc{StreamName: "SubscribeStateChanges", ServerStreams: true}
	stream, err := c.conn.NewStream(ctx, desc, "/"+serviceName+"/SubscribeStateChanges")
	if err != nil {
		return nil, fmt.Errorf("management: subscribe: %w", err)
	}
	if err := stream.SendMsg(&Empty{}); err != nil {
		return nil, fmt.Errorf("management: subscribe request: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, fmt.Errorf("management: close send: %w", err)
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		for {
			var ev Event
			if err := stream.RecvMsg(&ev); err != nil {
				return
			}
			events <- ev
		}
	}()
	return events, nil
}
