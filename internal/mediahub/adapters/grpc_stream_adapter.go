package adapters

import (
	"google.golang.org/grpc"

	pb "mediahub/api/gen"
	"mediahub/internal/mediahub/core/transfer"
	"mediahub/internal/mediahub/domain"
)

// UploadStreamAdapter adapts the client-streaming upload RPC to a
// transfer.ChunkSource.
type UploadStreamAdapter struct {
	stream grpc.ClientStreamingServer[pb.MediaChunk, pb.CreateMediaResponse]
}

func NewUploadStreamAdapter(stream grpc.ClientStreamingServer[pb.MediaChunk, pb.CreateMediaResponse]) transfer.ChunkSource {
	return &UploadStreamAdapter{stream: stream}
}

func (a *UploadStreamAdapter) Recv() (domain.Chunk, error) {
	msg, err := a.stream.Recv()
	if err != nil {
		return domain.Chunk{}, err
	}
	return ChunkFromProto(msg), nil
}

// DownloadStreamAdapter adapts the server-streaming download RPC to a
// transfer.ChunkSink.
type DownloadStreamAdapter struct {
	stream grpc.ServerStreamingServer[pb.MediaChunk]
}

func NewDownloadStreamAdapter(stream grpc.ServerStreamingServer[pb.MediaChunk]) transfer.ChunkSink {
	return &DownloadStreamAdapter{stream: stream}
}

func (a *DownloadStreamAdapter) Send(chunk domain.Chunk) error {
	return a.stream.Send(ChunkToProto(chunk))
}

func ChunkFromProto(msg *pb.MediaChunk) domain.Chunk {
	return domain.Chunk{
		Name:        msg.GetOriginalName(),
		ContentHash: msg.GetHash(),
		Payload:     msg.GetContent(),
		TotalSize:   uint64(msg.GetTotalSize()),
	}
}

func ChunkToProto(chunk domain.Chunk) *pb.MediaChunk {
	return &pb.MediaChunk{
		OriginalName: chunk.Name,
		Hash:         chunk.ContentHash,
		Content:      chunk.Payload,
		TotalSize:    int64(chunk.TotalSize),
	}
}

func DescriptorToProto(d domain.MediaDescriptor) *pb.Media {
	return &pb.Media{
		OriginalName: d.Name,
		Hash:         d.ContentHash,
		Size:         int64(d.SizeBytes),
	}
}

func DescriptorsToProto(ds []domain.MediaDescriptor) []*pb.Media {
	medias := make([]*pb.Media, 0, len(ds))
	for _, d := range ds {
		medias = append(medias, DescriptorToProto(d))
	}
	return medias
}
