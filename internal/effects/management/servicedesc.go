package management

import (
	"context"

	"google.golang.org/grpc"
)

// serviceName is the gRPC full-method prefix, matching what
// protoc-gen-go-grpc would derive from a "package mvpnd.management;
// service ManagementService" definition.
const serviceName = "mvpnd.management.ManagementService"

// unaryHandler adapts one Backend method to a grpc.MethodDesc.Handler.
// Every generated protoc-gen-go-grpc handler has exactly this shape;
// the only per-RPC variance is the concrete request type and the method
// invoked on srv.
func unaryHandler[Req any, Resp any](call func(*Backend, context.Context, *Req) (*Resp, error), method string) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		backend := srv.(*Backend)
		if interceptor == nil {
			return call(backend, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(backend, ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func subscribeStateChangesHandler(srv any, stream grpc.ServerStream) error {
	req := new(Empty)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(*Backend).SubscribeStateChanges(req, stream)
}

// ServiceDesc is registered with grpc.Server.RegisterService in place of
// the protoc-generated _ServiceDesc constant.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SetTargetState", Handler: toHandler(unaryHandler((*Backend).SetTargetState, "SetTargetState"))},
		{MethodName: "GetState", Handler: toHandler(unaryHandler((*Backend).GetState, "GetState"))},
		{MethodName: "GetCurrentLocation", Handler: toHandler(unaryHandler((*Backend).GetCurrentLocation, "GetCurrentLocation"))},
		{MethodName: "GetAccountData", Handler: toHandler(unaryHandler((*Backend).GetAccountData, "GetAccountData"))},
		{MethodName: "GetRelayLocations", Handler: toHandler(unaryHandler((*Backend).GetRelayLocations, "GetRelayLocations"))},
		{MethodName: "SetAccount", Handler: toHandler(unaryHandler((*Backend).SetAccount, "SetAccount"))},
		{MethodName: "UpdateRelaySettings", Handler: toHandler(unaryHandler((*Backend).UpdateRelaySettings, "UpdateRelaySettings"))},
		{MethodName: "SetAllowLan", Handler: toHandler(unaryHandler((*Backend).SetAllowLan, "SetAllowLan"))},
		{MethodName: "SetAutoConnect", Handler: toHandler(unaryHandler((*Backend).SetAutoConnect, "SetAutoConnect"))},
		{MethodName: "SetOpenVpnMssfix", Handler: toHandler(unaryHandler((*Backend).SetOpenVpnMssfix, "SetOpenVpnMssfix"))},
		{MethodName: "SetEnableIpv6", Handler: toHandler(unaryHandler((*Backend).SetEnableIpv6, "SetEnableIpv6"))},
		{MethodName: "GetSettings", Handler: toHandler(unaryHandler((*Backend).GetSettings, "GetSettings"))},
		{MethodName: "GetVersionInfo", Handler: toHandler(unaryHandler((*Backend).GetVersionInfo, "GetVersionInfo"))},
		{MethodName: "GetCurrentVersion", Handler: toHandler(unaryHandler((*Backend).GetCurrentVersion, "GetCurrentVersion"))},
		{MethodName: "Shutdown", Handler: toHandler(unaryHandler((*Backend).Shutdown, "Shutdown"))},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "SubscribeStateChanges",
			Handler:       subscribeStateChangesHandler,
			ServerStreams: true,
		},
	},
}

// toHandler exists only to give the generic instantiation above a
// concrete grpc.methodHandler-shaped value; grpc.MethodDesc.Handler's
// type is unexported so we can't name it directly.
func toHandler(h func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return h
}
