package server

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "mediahub/api/gen"
	"mediahub/internal/mediahub/adapters"
	"mediahub/internal/mediahub/core/catalog"
	"mediahub/internal/mediahub/core/transfer"
	mediaerrors "mediahub/pkg/errors"
	"mediahub/pkg/logger"
)

type MediaServiceServer struct {
	pb.UnimplementedMediaServiceServer
	catalog   catalog.Catalog
	transfers transfer.Service
	logger    *logger.Logger
}

func NewMediaServiceServer(cat catalog.Catalog, transfers transfer.Service) *MediaServiceServer {
	return &MediaServiceServer{
		catalog:   cat,
		transfers: transfers,
		logger:    logger.WithField("component", "grpc-service"),
	}
}

func (s *MediaServiceServer) ListMedias(ctx context.Context, req *pb.ListMediaRequest) (*pb.ListMediaResponse, error) {
	log := s.logger.WithField("operation", "ListMedias")

	log.Debug("list media request received")

	medias, err := s.catalog.List(ctx)
	if err != nil {
		log.Error("failed to list media", "error", err)
		if errors.Is(err, mediaerrors.ErrCatalogUnavailable) {
			return nil, status.Errorf(codes.NotFound, "media list unavailable: %v", err)
		}
		return nil, toStatus(err)
	}

	log.Debug("media listed", "count", len(medias))

	return &pb.ListMediaResponse{Medias: adapters.DescriptorsToProto(medias)}, nil
}

func (s *MediaServiceServer) CreateStreamMedia(stream grpc.ClientStreamingServer[pb.MediaChunk, pb.CreateMediaResponse]) error {
	log := s.logger.WithField("operation", "CreateStreamMedia")

	log.Debug("upload stream opened")

	d, err := s.transfers.Upload(stream.Context(), adapters.NewUploadStreamAdapter(stream))
	if err != nil {
		if errors.Is(err, mediaerrors.ErrAlreadyExists) {
			log.Info("upload rejected", "error", err)
		} else {
			log.Error("upload failed", "error", err)
		}
		return toStatus(err)
	}

	log.Info("media stored", "name", d.Name, "hash", d.ContentHash, "size", d.SizeBytes)

	return stream.SendAndClose(&pb.CreateMediaResponse{Success: true})
}

func (s *MediaServiceServer) GetStreamMedia(req *pb.GetMediaRequest, stream grpc.ServerStreamingServer[pb.MediaChunk]) error {
	log := s.logger.WithFields("operation", "GetStreamMedia", "name", req.GetOriginalName())

	log.Debug("download request received")

	err := s.transfers.Download(stream.Context(), req.GetOriginalName(), adapters.NewDownloadStreamAdapter(stream))
	if err != nil {
		switch {
		case errors.Is(err, mediaerrors.ErrNotFound):
			log.Warn("media not found")
		case errors.Is(err, mediaerrors.ErrCancelled):
			log.Debug("download cancelled by client")
		default:
			log.Error("download failed", "error", err)
		}
		return toStatus(err)
	}

	log.Debug("download completed")
	return nil
}

func (s *MediaServiceServer) DeleteMedia(ctx context.Context, req *pb.DeleteMediaRequest) (*pb.DeleteMediaResponse, error) {
	log := s.logger.WithFields("operation", "DeleteMedia", "name", req.GetOriginalName())

	log.Debug("delete request received")

	if err := s.catalog.Delete(ctx, req.GetOriginalName()); err != nil {
		if errors.Is(err, mediaerrors.ErrNotFound) {
			log.Warn("media not found")
		} else {
			log.Error("delete failed", "error", err)
		}
		return nil, toStatus(err)
	}

	log.Info("media deleted")
	return &pb.DeleteMediaResponse{Success: true}, nil
}

// toStatus maps core errors to gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, mediaerrors.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, mediaerrors.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, mediaerrors.ErrCancelled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, mediaerrors.ErrStorageUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, mediaerrors.ErrInvalidName), errors.Is(err, mediaerrors.ErrEmptyUpload):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, mediaerrors.ErrSessionClosed):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Unknown, err.Error())
	}
}
