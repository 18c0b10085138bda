// Package server exposes extraction over gRPC. Messages are the protobuf
// well-known Struct and Empty types, so the service needs no generated code.
package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "vehicleintake.v1.ExtractionService"

const (
	MethodExtract    = "/" + ServiceName + "/Extract"
	MethodDecodeVIN  = "/" + ServiceName + "/DecodeVIN"
	MethodCacheStats = "/" + ServiceName + "/CacheStats"
)

// ExtractionServer is the server API for vehicleintake.v1.ExtractionService.
type ExtractionServer interface {
	Extract(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DecodeVIN(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CacheStats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterExtractionServer registers srv on s.
func RegisterExtractionServer(s grpc.ServiceRegistrar, srv ExtractionServer) {
	s.RegisterService(&ExtractionServiceDesc, srv)
}

func extractHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExtractionServer).Extract(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodExtract}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ExtractionServer).Extract(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func decodeVINHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExtractionServer).DecodeVIN(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodDecodeVIN}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ExtractionServer).DecodeVIN(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func cacheStatsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExtractionServer).CacheStats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodCacheStats}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ExtractionServer).CacheStats(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// ExtractionServiceDesc is the grpc.ServiceDesc for ExtractionService.
var ExtractionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ExtractionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Extract", Handler: extractHandler},
		{MethodName: "DecodeVIN", Handler: decodeVINHandler},
		{MethodName: "CacheStats", Handler: cacheStatsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vehicleintake/v1/extraction.proto",
}
