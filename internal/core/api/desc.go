package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "estimator.intake.v1.IntakeService"

// Method names of the intake service.
const (
	MethodEvaluateRules  = "EvaluateRules"
	MethodResolveProfile = "ResolveProfile"
	MethodCreateProject  = "CreateProject"
	MethodCreateSnapshot = "CreateSnapshot"
	MethodListSnapshots  = "ListSnapshots"
)

// IntakeServer is the server side of the intake service. Every method takes
// and returns a google.protobuf.Struct holding a JSON object.
type IntakeServer interface {
	EvaluateRules(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResolveProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateProject(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSnapshots(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(IntakeServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(IntakeServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(IntakeServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// IntakeServiceDesc describes the intake service for grpc.Server.
var IntakeServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IntakeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodEvaluateRules, Handler: unaryHandler(MethodEvaluateRules, IntakeServer.EvaluateRules)},
		{MethodName: MethodResolveProfile, Handler: unaryHandler(MethodResolveProfile, IntakeServer.ResolveProfile)},
		{MethodName: MethodCreateProject, Handler: unaryHandler(MethodCreateProject, IntakeServer.CreateProject)},
		{MethodName: MethodCreateSnapshot, Handler: unaryHandler(MethodCreateSnapshot, IntakeServer.CreateSnapshot)},
		{MethodName: MethodListSnapshots, Handler: unaryHandler(MethodListSnapshots, IntakeServer.ListSnapshots)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "estimator/intake/v1/intake.proto",
}

// RegisterIntakeServer registers srv on s.
func RegisterIntakeServer(s grpc.ServiceRegistrar, srv IntakeServer) {
	s.RegisterService(&IntakeServiceDesc, srv)
}

// FullMethod returns the gRPC path of method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// IntakeClient calls the intake service.
type IntakeClient struct {
	cc grpc.ClientConnInterface
}

// NewIntakeClient creates a client over cc.
func NewIntakeClient(cc grpc.ClientConnInterface) *IntakeClient {
	return &IntakeClient{cc: cc}
}

func (c *IntakeClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *IntakeClient) EvaluateRules(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodEvaluateRules, in, opts)
}

func (c *IntakeClient) ResolveProfile(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodResolveProfile, in, opts)
}

func (c *IntakeClient) CreateProject(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodCreateProject, in, opts)
}

func (c *IntakeClient) CreateSnapshot(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodCreateSnapshot, in, opts)
}

func (c *IntakeClient) ListSnapshots(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodListSnapshots, in, opts)
}
