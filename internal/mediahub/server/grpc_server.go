package server

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	pb "mediahub/api/gen"
	"mediahub/internal/mediahub/core/catalog"
	"mediahub/internal/mediahub/core/transfer"
	"mediahub/pkg/config"
	"mediahub/pkg/logger"
)

// NewGRPCServer builds a server with the media service registered but does
// not listen.
func NewGRPCServer(cat catalog.Catalog, transfers transfer.Service, cfg *config.Config) *grpc.Server {
	serverLogger := logger.WithField("component", "grpc-server")

	grpcOptions := []grpc.ServerOption{
		grpc.ForceServerCodec(pb.Codec()),
		grpc.MaxRecvMsgSize(int(cfg.GRPC.MaxRecvMsgSize)),
		grpc.MaxSendMsgSize(int(cfg.GRPC.MaxSendMsgSize)),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    cfg.GRPC.KeepAliveTime,
			Timeout: cfg.GRPC.KeepAliveTimeout,
		}),
		grpc.ChainUnaryInterceptor(UnaryTimingInterceptor(serverLogger)),
		grpc.ChainStreamInterceptor(StreamTimingInterceptor(serverLogger)),
	}

	serverLogger.Debug("gRPC server options configured",
		"maxRecvMsgSize", cfg.GRPC.MaxRecvMsgSize,
		"maxSendMsgSize", cfg.GRPC.MaxSendMsgSize,
		"keepAliveTime", cfg.GRPC.KeepAliveTime,
		"keepAliveTimeout", cfg.GRPC.KeepAliveTimeout)

	grpcServer := grpc.NewServer(grpcOptions...)

	pb.RegisterMediaServiceServer(grpcServer, NewMediaServiceServer(cat, transfers))

	serverLogger.Info("media service registered successfully")

	return grpcServer
}

// StartGRPCServer listens on the configured address and serves in the
// background.
func StartGRPCServer(cat catalog.Catalog, transfers transfer.Service, cfg *config.Config) (*grpc.Server, error) {
	serverLogger := logger.WithField("component", "grpc-server")
	serverAddress := cfg.GetServerAddress()

	serverLogger.Info("initializing gRPC server", "address", serverAddress, "tlsEnabled", false)

	grpcServer := NewGRPCServer(cat, transfers, cfg)

	lis, err := net.Listen("tcp", serverAddress)
	if err != nil {
		serverLogger.Error("failed to create listener", "address", serverAddress, "error", err)
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	serverLogger.Info("TCP listener created successfully", "address", serverAddress, "network", "tcp")

	go func() {
		serverLogger.Info("starting gRPC server", "address", serverAddress, "ready", true)

		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			serverLogger.Error("gRPC server stopped with error", "error", serveErr)
		} else {
			serverLogger.Info("gRPC server stopped gracefully")
		}
	}()

	return grpcServer, nil
}
