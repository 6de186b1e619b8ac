package gen

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	MediaService_ListMedias_FullMethodName        = "/MediaService/ListMedias"
	MediaService_CreateStreamMedia_FullMethodName = "/MediaService/CreateStreamMedia"
	MediaService_GetStreamMedia_FullMethodName    = "/MediaService/GetStreamMedia"
	MediaService_DeleteMedia_FullMethodName       = "/MediaService/DeleteMedia"
)

// MediaServiceClient is the client API for MediaService.
type MediaServiceClient interface {
	ListMedias(ctx context.Context, in *ListMediaRequest, opts ...grpc.CallOption) (*ListMediaResponse, error)
	CreateStreamMedia(ctx context.Context, opts ...grpc.CallOption) (grpc.ClientStreamingClient[MediaChunk, CreateMediaResponse], error)
	GetStreamMedia(ctx context.Context, in *GetMediaRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[MediaChunk], error)
	DeleteMedia(ctx context.Context, in *DeleteMediaRequest, opts ...grpc.CallOption) (*DeleteMediaResponse, error)
}

type mediaServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMediaServiceClient(cc grpc.ClientConnInterface) MediaServiceClient {
	return &mediaServiceClient{cc}
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.StaticMethod(), grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *mediaServiceClient) ListMedias(ctx context.Context, in *ListMediaRequest, opts ...grpc.CallOption) (*ListMediaResponse, error) {
	out := new(ListMediaResponse)
	err := c.cc.Invoke(ctx, MediaService_ListMedias_FullMethodName, in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *mediaServiceClient) CreateStreamMedia(ctx context.Context, opts ...grpc.CallOption) (grpc.ClientStreamingClient[MediaChunk, CreateMediaResponse], error) {
	stream, err := c.cc.NewStream(ctx, &MediaService_ServiceDesc.Streams[0], MediaService_CreateStreamMedia_FullMethodName, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[MediaChunk, CreateMediaResponse]{ClientStream: stream}
	return x, nil
}

func (c *mediaServiceClient) GetStreamMedia(ctx context.Context, in *GetMediaRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[MediaChunk], error) {
	stream, err := c.cc.NewStream(ctx, &MediaService_ServiceDesc.Streams[1], MediaService_GetStreamMedia_FullMethodName, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[GetMediaRequest, MediaChunk]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *mediaServiceClient) DeleteMedia(ctx context.Context, in *DeleteMediaRequest, opts ...grpc.CallOption) (*DeleteMediaResponse, error) {
	out := new(DeleteMediaResponse)
	err := c.cc.Invoke(ctx, MediaService_DeleteMedia_FullMethodName, in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MediaServiceServer is the server API for MediaService.
// All implementations must embed UnimplementedMediaServiceServer.
type MediaServiceServer interface {
	ListMedias(context.Context, *ListMediaRequest) (*ListMediaResponse, error)
	CreateStreamMedia(grpc.ClientStreamingServer[MediaChunk, CreateMediaResponse]) error
	GetStreamMedia(*GetMediaRequest, grpc.ServerStreamingServer[MediaChunk]) error
	DeleteMedia(context.Context, *DeleteMediaRequest) (*DeleteMediaResponse, error)
	mustEmbedUnimplementedMediaServiceServer()
}

// UnimplementedMediaServiceServer must be embedded by value.
type UnimplementedMediaServiceServer struct{}

func (UnimplementedMediaServiceServer) ListMedias(context.Context, *ListMediaRequest) (*ListMediaResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListMedias not implemented")
}
func (UnimplementedMediaServiceServer) CreateStreamMedia(grpc.ClientStreamingServer[MediaChunk, CreateMediaResponse]) error {
	return status.Errorf(codes.Unimplemented, "method CreateStreamMedia not implemented")
}
func (UnimplementedMediaServiceServer) GetStreamMedia(*GetMediaRequest, grpc.ServerStreamingServer[MediaChunk]) error {
	return status.Errorf(codes.Unimplemented, "method GetStreamMedia not implemented")
}
func (UnimplementedMediaServiceServer) DeleteMedia(context.Context, *DeleteMediaRequest) (*DeleteMediaResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method DeleteMedia not implemented")
}
func (UnimplementedMediaServiceServer) mustEmbedUnimplementedMediaServiceServer() {}

func RegisterMediaServiceServer(s grpc.ServiceRegistrar, srv MediaServiceServer) {
	s.RegisterService(&MediaService_ServiceDesc, srv)
}

func _MediaService_ListMedias_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListMediaRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MediaServiceServer).ListMedias(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: MediaService_ListMedias_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MediaServiceServer).ListMedias(ctx, req.(*ListMediaRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _MediaService_CreateStreamMedia_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(MediaServiceServer).CreateStreamMedia(&grpc.GenericServerStream[MediaChunk, CreateMediaResponse]{ServerStream: stream})
}

func _MediaService_GetStreamMedia_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(GetMediaRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(MediaServiceServer).GetStreamMedia(m, &grpc.GenericServerStream[GetMediaRequest, MediaChunk]{ServerStream: stream})
}

func _MediaService_DeleteMedia_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DeleteMediaRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MediaServiceServer).DeleteMedia(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: MediaService_DeleteMedia_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MediaServiceServer).DeleteMedia(ctx, req.(*DeleteMediaRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// MediaService_ServiceDesc is the grpc.ServiceDesc for MediaService.
var MediaService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "MediaService",
	HandlerType: (*MediaServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListMedias",
			Handler:    _MediaService_ListMedias_Handler,
		},
		{
			MethodName: "DeleteMedia",
			Handler:    _MediaService_DeleteMedia_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "CreateStreamMedia",
			Handler:       _MediaService_CreateStreamMedia_Handler,
			ClientStreams: true,
		},
		{
			StreamName:    "GetStreamMedia",
			Handler:       _MediaService_GetStreamMedia_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "media-services.proto",
}
