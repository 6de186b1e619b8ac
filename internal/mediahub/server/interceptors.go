package server

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"mediahub/pkg/logger"
)

// UnaryTimingInterceptor logs the duration and resulting code of every
// unary call at debug level.
func UnaryTimingInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Debug("execution time",
			"operation", info.FullMethod,
			"duration", time.Since(start),
			"code", status.Code(err).String())
		return resp, err
	}
}

// StreamTimingInterceptor is the streaming counterpart of
// UnaryTimingInterceptor.
func StreamTimingInterceptor(log *logger.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		log.Debug("execution time",
			"operation", info.FullMethod,
			"duration", time.Since(start),
			"code", status.Code(err).String())
		return err
	}
}
