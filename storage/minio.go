package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"tunesmith/config"
	"tunesmith/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	minioClient *minio.Client
	bucketName  string
)

// InitMinio connects to the object store and makes sure the audio bucket
// exists.
func InitMinio(cfg *config.Config) error {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		})
		if err != nil {
			return fmt.Errorf("create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("created bucket", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	bucketName = cfg.MinioBucket
	logger.Info("minio connected",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))
	return nil
}

// GetMinioClient returns the shared client, nil before InitMinio.
func GetMinioClient() *minio.Client {
	return minioClient
}

// PresignedGetURL returns a time-limited download URL for an object. The
// audio bucket is private, so every download goes through here.
func PresignedGetURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	if minioClient == nil {
		return "", fmt.Errorf("storage not initialized")
	}
	u, err := minioClient.PresignedGetObject(ctx, bucketName, objectKey, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectKey, err)
	}
	return u.String(), nil
}

// RemoveObject deletes an object from the audio bucket. Missing objects are
// not an error.
func RemoveObject(ctx context.Context, objectKey string) error {
	if minioClient == nil {
		return fmt.Errorf("storage not initialized")
	}
	return minioClient.RemoveObject(ctx, bucketName, objectKey, minio.RemoveObjectOptions{})
}
