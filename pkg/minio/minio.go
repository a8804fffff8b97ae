package minio

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

const (
	EnvMinIOAccessKeyID     = "MINIO_ACCESS_KEY_ID"
	EnvMinIOSecretAccessKey = "MINIO_SECRET_ACCESS_KEY"
)

type MinIOService struct {
	client   *minio.Client
	log      loggerv2.Logger
	endpoint string
	useSSL   bool
}

func NewMinIOService(log loggerv2.Logger, endpoint string, useSSL bool) *MinIOService {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(os.Getenv(EnvMinIOAccessKeyID), os.Getenv(EnvMinIOSecretAccessKey), ""),
		Secure: useSSL,
	})
	if err != nil {
		log.Error("Failed to create MinIO client", logger.Error(err))
		return nil
	}

	return &MinIOService{
		client:   client,
		log:      log,
		endpoint: endpoint,
		useSSL:   useSSL,
	}
}

// GetObjectContent 读取对象全部内容, 用于拉取测试用例输入与期望输出
func (s *MinIOService) GetObjectContent(ctx context.Context, bucketName, objectKey string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s/%s: %w", bucketName, objectKey, err)
	}
	defer object.Close()

	content, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s/%s: %w", bucketName, objectKey, err)
	}
	return content, nil
}

// GetPresignedDownloadURL 获取预签名下载URL
func (s *MinIOService) GetPresignedDownloadURL(ctx context.Context, bucketName, objectKey string, durationSeconds int) (string, error) {
	expiration := time.Duration(durationSeconds) * time.Second

	presignedURL, err := s.client.PresignedGetObject(ctx, bucketName, objectKey, expiration, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}

	return presignedURL.String(), nil
}
