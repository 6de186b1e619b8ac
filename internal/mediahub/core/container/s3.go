package container

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"mediahub/internal/mediahub/domain"
	mediaerrors "mediahub/pkg/errors"
	"mediahub/pkg/logger"
)

const contentHashMetaKey = "Content-Hash"

var errUploadAborted = errors.New("upload aborted")

var _ Container = &S3Container{}

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Prefix    string
}

// S3Container stores each object under <prefix><name>. S3 has no
// create-if-absent, so two concurrent publishes of the same name leave the
// later one in place.
type S3Container struct {
	cl     *minio.Client
	bucket string
	prefix string
	logger *logger.Logger
}

func NewS3Container(ctx context.Context, cfg S3Config) (*S3Container, error) {
	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cl.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, unavailable("bucket exists", err)
	}
	if !exists {
		if err := cl.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, unavailable("make bucket", err)
		}
	}

	return &S3Container{
		cl:     cl,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger.WithFields("component", "s3-container", "bucket", cfg.Bucket),
	}, nil
}

// PublishesExclusively is false: a later PutObject replaces the object.
func (s *S3Container) PublishesExclusively() bool {
	return false
}

func (s *S3Container) Close() error {
	return nil
}

func (s *S3Container) key(name string) string {
	return s.prefix + name
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

func (s *S3Container) OpenForWrite(ctx context.Context, name, contentHash string) (WriteHandle, error) {
	pr, pw := io.Pipe()
	w := &s3Writer{
		pw:     pw,
		done:   make(chan error, 1),
		name:   name,
		logger: s.logger,
	}

	go func() {
		_, err := s.cl.PutObject(ctx, s.bucket, s.key(name), pr, -1, minio.PutObjectOptions{
			ContentType:  "application/octet-stream",
			UserMetadata: map[string]string{contentHashMetaKey: contentHash},
		})
		pr.CloseWithError(err)
		w.done <- err
	}()

	return w, nil
}

func (s *S3Container) OpenForRead(ctx context.Context, name string) (ReadHandle, uint64, error) {
	info, err := s.cl.StatObject(ctx, s.bucket, s.key(name), minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, 0, notFound(name)
		}
		return nil, 0, unavailable("stat object", err)
	}

	obj, err := s.cl.GetObject(ctx, s.bucket, s.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, unavailable("get object", err)
	}
	return newOnceCloser(obj, obj.Close), uint64(info.Size), nil
}

func (s *S3Container) Stat(ctx context.Context, name string) (domain.MediaDescriptor, error) {
	info, err := s.cl.StatObject(ctx, s.bucket, s.key(name), minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return domain.MediaDescriptor{}, notFound(name)
		}
		return domain.MediaDescriptor{}, unavailable("stat object", err)
	}
	return s.descriptor(name, info), nil
}

func (s *S3Container) descriptor(name string, info minio.ObjectInfo) domain.MediaDescriptor {
	return domain.MediaDescriptor{
		Name:        name,
		ContentHash: info.UserMetadata[contentHashMetaKey],
		SizeBytes:   uint64(info.Size),
	}
}

func (s *S3Container) List(ctx context.Context) ([]domain.MediaDescriptor, error) {
	var descriptors []domain.MediaDescriptor

	for obj := range s.cl.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, unavailable("list objects", obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, s.prefix)
		if domain.ValidateName(name) != nil {
			continue
		}
		// listings do not carry user metadata
		d, err := s.Stat(ctx, name)
		if err != nil {
			if errors.Is(err, mediaerrors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		descriptors = append(descriptors, d)
	}

	if descriptors == nil {
		descriptors = []domain.MediaDescriptor{}
	}
	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].Name < descriptors[j].Name })
	return descriptors, nil
}

func (s *S3Container) Remove(ctx context.Context, name string) error {
	if _, err := s.Stat(ctx, name); err != nil {
		return err
	}
	if err := s.cl.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{}); err != nil {
		return unavailable("remove object", err)
	}
	return nil
}

var _ WriteHandle = &s3Writer{}

// s3Writer feeds a PutObject running in the background through a pipe.
type s3Writer struct {
	handleState

	pw           *io.PipeWriter
	done         chan error
	name         string
	bytesWritten uint64
	logger       *logger.Logger
}

func (sw *s3Writer) Write(p []byte) (int, error) {
	n, err := sw.pw.Write(p)
	sw.bytesWritten += uint64(n)
	if err != nil {
		return n, unavailable("write", err)
	}
	return n, nil
}

func (sw *s3Writer) Close() error {
	if !sw.finish() {
		return nil
	}
	_ = sw.pw.Close()
	if err := <-sw.done; err != nil {
		return unavailable("put object", err)
	}
	return nil
}

func (sw *s3Writer) Abort() error {
	if !sw.finish() {
		return nil
	}
	_ = sw.pw.CloseWithError(errUploadAborted)
	if err := <-sw.done; err != nil && !errors.Is(err, errUploadAborted) {
		sw.logger.Debug("aborted upload finished with error", "name", sw.name, "error", err)
	}
	return nil
}

func (sw *s3Writer) BytesWritten() uint64 {
	return sw.bytesWritten
}
