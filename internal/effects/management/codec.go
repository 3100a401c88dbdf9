// Package management implements the daemon's management interface: a
// gRPC server exposing the Supervisor's command surface to a local
// client over a platform-appropriate transport (named pipe on Windows,
// Unix domain socket elsewhere).
//
// protoc is not available in this environment, so instead of
// protobuf-generated message types this package drives grpc-go with a
// hand-written JSON codec and a hand-written grpc.ServiceDesc —
// mechanically the same shape protoc-gen-go-grpc would emit, just typed
// by hand. Every wire struct below carries the same snake_case JSON
// tags a protobuf-JSON mapping would produce.
package management

import (
	"encoding/json"
	"fmt"
)

// jsonCodec implements google.golang.org/grpc/encoding.Codec, replacing
// the default proto codec so unary and streaming messages are plain
// JSON on the wire.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("management: marshal %T: %w", v, err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("management: unmarshal %T: %w", v, err)
	}
	return nil
}

func (jsonCodec) Name() string { return "json" }
