// Package grpc_control exposes a small operator control plane over gRPC. The
// service is described by hand with protobuf well-known types, so no generated
// code is needed on either side.
package grpc_control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "marketsync.v1.Control"

const (
	methodHealth = "/" + ServiceName + "/Health"
	methodModes  = "/" + ServiceName + "/Modes"
	methodTicker = "/" + ServiceName + "/Ticker"
)

// ControlServer is the server API for the Control service.
type ControlServer interface {
	Health(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Modes(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Ticker(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterControlServer registers srv with a gRPC server.
func RegisterControlServer(s grpc.ServiceRegistrar, srv ControlServer) {
	s.RegisterService(&ControlServiceDesc, srv)
}

// ControlServiceDesc is the grpc.ServiceDesc for the Control service.
var ControlServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Health", Handler: healthHandler},
		{MethodName: "Modes", Handler: modesHandler},
		{MethodName: "Ticker", Handler: tickerHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "marketsync/v1/control.proto",
}

// -----------------------------------------------------------------------------
// Server handlers
// -----------------------------------------------------------------------------

func healthHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Health(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodHealth}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlServer).Health(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func modesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Modes(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodModes}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlServer).Modes(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func tickerHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Ticker(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodTicker}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlServer).Ticker(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

type ControlClient struct {
	cc grpc.ClientConnInterface
}

func NewControlClient(cc grpc.ClientConnInterface) *ControlClient {
	return &ControlClient{cc: cc}
}

func (c *ControlClient) Health(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodHealth, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControlClient) Modes(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodModes, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControlClient) Ticker(ctx context.Context, symbols []string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	list := make([]interface{}, 0, len(symbols))
	for _, s := range symbols {
		list = append(list, s)
	}
	in, err := structpb.NewStruct(map[string]interface{}{"symbols": list})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodTicker, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
