package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	pb "mediahub/api/gen"
)

type MediaClient struct {
	client pb.MediaServiceClient
	conn   *grpc.ClientConn
}

func NewMediaClient(serverAddr string, opts ...grpc.DialOption) (*MediaClient, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.WaitForReady(true)),
	}, opts...)

	conn, err := grpc.NewClient(serverAddr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}

	return &MediaClient{
		client: pb.NewMediaServiceClient(conn),
		conn:   conn,
	}, nil
}

func (c *MediaClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *MediaClient) ListMedia(ctx context.Context) ([]*pb.Media, error) {
	resp, err := c.client.ListMedias(ctx, &pb.ListMediaRequest{})
	if err != nil {
		return nil, err
	}
	return resp.GetMedias(), nil
}

// UploadMedia streams r to the server in chunks of chunkSize bytes. Every
// chunk carries name and hash. An empty reader still sends one empty chunk
// so zero-length media can be stored.
func (c *MediaClient) UploadMedia(ctx context.Context, name, hash string, r io.Reader, chunkSize int) (uint64, error) {
	if chunkSize <= 0 {
		return 0, fmt.Errorf("invalid chunk size %d", chunkSize)
	}

	stream, err := c.client.CreateStreamMedia(ctx)
	if err != nil {
		return 0, err
	}

	buf := make([]byte, chunkSize)
	var sent uint64
	first := true
	for {
		n, readErr := io.ReadFull(r, buf)
		if n > 0 || first {
			msg := &pb.MediaChunk{OriginalName: name, Hash: hash, Content: buf[:n]}
			if err := stream.Send(msg); err != nil {
				// the server's status is only available from CloseAndRecv
				if errors.Is(err, io.EOF) {
					_, err = stream.CloseAndRecv()
				}
				return sent, err
			}
			sent += uint64(n)
			first = false
		}
		if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
			break
		}
		if readErr != nil {
			_ = stream.CloseSend()
			return sent, fmt.Errorf("read input: %w", readErr)
		}
	}

	resp, err := stream.CloseAndRecv()
	if err != nil {
		return sent, err
	}
	if !resp.GetSuccess() {
		return sent, fmt.Errorf("server did not confirm upload of %s", name)
	}
	return sent, nil
}

// DownloadMedia writes name's payload to w. progress, if set, is called after
// each chunk with the bytes received so far and the declared total.
func (c *MediaClient) DownloadMedia(ctx context.Context, name string, w io.Writer, progress func(received, total int64)) (int64, error) {
	stream, err := c.client.GetStreamMedia(ctx, &pb.GetMediaRequest{OriginalName: name})
	if err != nil {
		return 0, err
	}

	var received int64
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return received, nil
		}
		if err != nil {
			return received, err
		}

		n, err := w.Write(chunk.GetContent())
		received += int64(n)
		if err != nil {
			return received, fmt.Errorf("write output: %w", err)
		}
		if progress != nil {
			progress(received, chunk.GetTotalSize())
		}
	}
}

func (c *MediaClient) DeleteMedia(ctx context.Context, name string) error {
	_, err := c.client.DeleteMedia(ctx, &pb.DeleteMediaRequest{OriginalName: name})
	return err
}
