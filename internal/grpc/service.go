package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "dbstats.v1.StatsService"

// Full method names
const (
	SummarizeMethod    = "/" + ServiceName + "/Summarize"
	DistributionMethod = "/" + ServiceName + "/Distribution"
)

// StatsServiceServer answers statistics queries. Requests and responses are
// google.protobuf.Struct messages carrying the same fields as the HTTP API.
type StatsServiceServer interface {
	// Summarize takes {source, sep} and returns the summary object
	Summarize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Distribution takes {source, sep, name} and returns {name, source, entries, count}
	Distribution(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterStatsServiceServer registers srv with s
func RegisterStatsServiceServer(s grpc.ServiceRegistrar, srv StatsServiceServer) {
	s.RegisterService(&StatsServiceDesc, srv)
}

func summarizeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StatsServiceServer).Summarize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SummarizeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(StatsServiceServer).Summarize(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func distributionHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StatsServiceServer).Distribution(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DistributionMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(StatsServiceServer).Distribution(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// StatsServiceDesc describes the service for grpc.Server
var StatsServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StatsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Summarize", Handler: summarizeHandler},
		{MethodName: "Distribution", Handler: distributionHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dbstats/v1/stats.proto",
}
