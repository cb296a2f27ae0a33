package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MediaService stores salon images (staff photos, service pictures) in
// object storage. Objects are namespaced by tenant so presigned URLs
// never cross tenants.
type MediaService interface {
	UploadImage(ctx context.Context, tenantID uuid.UUID, objectName string, reader io.Reader, objectSize int64, contentType string) (string, error)
	GetPresignedURL(ctx context.Context, tenantID uuid.UUID, objectName string, expiry time.Duration) (string, error)
	DeleteImage(ctx context.Context, tenantID uuid.UUID, objectName string) error
	EnsureBucketExists(ctx context.Context) error
}

type minioMediaService struct {
	client *minio.Client
	bucket string
}

func NewMinioMediaService(endpoint, accessKey, secretKey, bucket string, useSSL bool) (MediaService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioMediaService{client: client, bucket: bucket}, nil
}

func (m *minioMediaService) objectKey(tenantID uuid.UUID, objectName string) string {
	return fmt.Sprintf("%s/%s", tenantID.String(), objectName)
}

func (m *minioMediaService) UploadImage(ctx context.Context, tenantID uuid.UUID, objectName string, reader io.Reader, objectSize int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	key := m.objectKey(tenantID, objectName)
	_, err := m.client.PutObject(ctx, m.bucket, key, reader, objectSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (m *minioMediaService) GetPresignedURL(ctx context.Context, tenantID uuid.UUID, objectName string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, m.objectKey(tenantID, objectName), expiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (m *minioMediaService) DeleteImage(ctx context.Context, tenantID uuid.UUID, objectName string) error {
	return m.client.RemoveObject(ctx, m.bucket, m.objectKey(tenantID, objectName), minio.RemoveObjectOptions{})
}

func (m *minioMediaService) EnsureBucketExists(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	}
	return nil
}
