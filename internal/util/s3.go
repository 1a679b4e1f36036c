package util

import (
	"context"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
)

func GetBatchDirectoryPath(batchId string) string {
	return fmt.Sprintf("batches/%s", batchId)
}

func createBucketIfNotExists(ctx context.Context, s3 *minio.Client, bucketName string) error {
	exists, err := s3.BucketExists(ctx, bucketName)
	if err != nil {
		return err
	}

	if !exists {
		err = s3.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return err
		}
	}

	return nil
}

type FileUploadOptions struct {
	// Add a prefix to the file name
	// For example, if the file name is "cards.zip" and the prefix is "batches/abc",
	// the resulting name will be "batches/abc/cards.zip"
	DirectoryPath string
	Bucket        string
	S3            *minio.Client
}

// uploads a file from a local path to S3
func UploadFileToS3ByPath(ctx context.Context, localPath string, fuo *FileUploadOptions) (minio.UploadInfo, error) {
	if err := createBucketIfNotExists(ctx, fuo.S3, fuo.Bucket); err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to create bucket: %w", err)
	}

	objectName := prepareObjectName(filepath.Base(localPath), fuo)

	contentType, err := detectContentType(localPath)
	if err != nil {
		return minio.UploadInfo{}, err
	}

	info, err := fuo.S3.FPutObject(
		ctx,
		fuo.Bucket,
		objectName,
		localPath,
		minio.PutObjectOptions{
			ContentType: contentType,
		},
	)
	if err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return info, nil
}

// PresignedURL returns a time limited download link for an uploaded object.
func PresignedURL(ctx context.Context, s3 *minio.Client, bucket, objectName string, expiry time.Duration) (string, error) {
	if bucket == "" || objectName == "" {
		return "", fmt.Errorf("bucket name and object name cannot be empty")
	}
	if expiry <= 0 {
		expiry = time.Hour
	}

	presignedURL, err := s3.PresignedGetObject(ctx, bucket, objectName, expiry, nil)
	if err != nil {
		return "", err
	}
	return presignedURL.String(), nil
}

// Generates the final object name under the directory prefix. Object keys always
// use forward slashes regardless of the host OS.
func prepareObjectName(originalName string, fuo *FileUploadOptions) string {
	if fuo != nil && fuo.DirectoryPath != "" {
		return path.Join(fuo.DirectoryPath, originalName)
	}
	return originalName
}

// Determines the content type of a file at the given path
func detectContentType(localPath string) (string, error) {
	// 1) Try extension-based lookup
	ext := filepath.Ext(localPath)
	contentType := mime.TypeByExtension(ext)
	if contentType != "" {
		return contentType, nil
	}

	// 2) Fall back to sniffing the file header
	mtype, err := mimetype.DetectFile(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to read file for content type detection: %w", err)
	}

	return mtype.String(), nil
}
