package management

import (
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"

	"mvpnd/internal/core"
)

const idleGracePeriod = 30 * time.Second

// Server wraps the gRPC server listening on the platform transport.
type Server struct {
	grpc     *grpc.Server
	tracker  *ConnTracker
	listener net.Listener
}

// NewServer builds a Server around backend, wiring the connection
// tracker's onIdle callback to onIdle (called once all clients have
// been gone for idleGracePeriod; the daemon's callback only logs).
func NewServer(backend *Backend, onIdle func()) *Server {
	tracker := NewConnTracker(idleGracePeriod, onIdle)
	gs := grpc.NewServer(
		grpc.ForceServerCodec(jsonCodec{}),
		grpc.ChainUnaryInterceptor(tracker.UnaryInterceptor()),
		grpc.ChainStreamInterceptor(tracker.StreamInterceptor()),
	)
	gs.RegisterService(&ServiceDesc, backend)
	return &Server{grpc: gs, tracker: tracker}
}

// Start opens the platform transport and serves until Stop is called.
func (s *Server) Start() error {
	ln, err := listen()
	if err != nil {
		return fmt.Errorf("management: listen: %w", err)
	}
	s.listener = ln
	core.Log.Infof("Management", "listening")
	return s.grpc.Serve(ln)
}

// Stop gracefully stops the server, falling back to a hard stop if
// active streams (in particular SubscribeStateChanges) don't close in
// time.
func (s *Server) Stop() {
	s.tracker.CancelGrace()
	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		s.grpc.Stop()
	}
}
