package filestorage

import (
	"context"
	"time"

	"github.com/SeakMengs/AutoCard/internal/config"
	"github.com/SeakMengs/AutoCard/internal/util"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func NewMinioClient(cfg config.MinioConfig) (*minio.Client, error) {
	return minio.New(cfg.ENDPOINT, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.ACCESS_KEY, cfg.SECRET_KEY, ""),
		Secure: cfg.USE_SSL,
		Region: "us-east-1",
	})
}

// ArtifactStore keeps generated batch files and hands out download links.
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, directory string) (string, error)
	PresignedURL(ctx context.Context, objectName string) (string, error)
}

type MinioStore struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

func NewMinioStore(client *minio.Client, cfg config.MinioConfig) *MinioStore {
	return &MinioStore{client: client, bucket: cfg.BUCKET, expiry: cfg.PresignExpiry}
}

func (s *MinioStore) Upload(ctx context.Context, localPath, directory string) (string, error) {
	info, err := util.UploadFileToS3ByPath(ctx, localPath, &util.FileUploadOptions{
		DirectoryPath: directory,
		Bucket:        s.bucket,
		S3:            s.client,
	})
	if err != nil {
		return "", err
	}
	return info.Key, nil
}

func (s *MinioStore) PresignedURL(ctx context.Context, objectName string) (string, error) {
	return util.PresignedURL(ctx, s.client, s.bucket, objectName, s.expiry)
}
