// Package storage stores item photos in S3 (or MinIO).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// maxPhotoSize caps item photo uploads at 10 MB.
const maxPhotoSize = 10 << 20

var allowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

type S3Service struct {
	client    *s3.Client
	uploader  *manager.Uploader
	presigner *s3.PresignClient
	bucket    string
}

type UploadResult struct {
	Key        string
	Bucket     string
	Size       int64
	MimeType   string
	UploadedAt time.Time
}

// NewS3Service creates an S3 service with MinIO support via
// AWS_ENDPOINT_URL.
func NewS3Service() (*S3Service, error) {
	bucket := os.Getenv("AWS_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("AWS_S3_BUCKET environment variable is required")
	}

	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		endpointURL := os.Getenv("AWS_ENDPOINT_URL")
		if endpointURL != "" {
			o.BaseEndpoint = aws.String(endpointURL)
			o.UsePathStyle = true // MinIO requires path-style addressing
		}
	})

	return &S3Service{
		client:    client,
		uploader:  manager.NewUploader(client),
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
	}, nil
}

// UploadItemPhoto validates and stores one item photo, returning the
// generated object key.
func (s *S3Service) UploadItemPhoto(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*UploadResult, error) {
	if header.Size > maxPhotoSize {
		return nil, fmt.Errorf("photo exceeds the %d MB limit", maxPhotoSize>>20)
	}

	mimeType := header.Header.Get("Content-Type")
	ext, ok := allowedPhotoTypes[strings.ToLower(mimeType)]
	if !ok {
		return nil, fmt.Errorf("unsupported photo type %q", mimeType)
	}

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	if len(data) > maxPhotoSize {
		return nil, fmt.Errorf("photo exceeds the %d MB limit", maxPhotoSize>>20)
	}

	key := fmt.Sprintf("item-photos/%s%s", uuid.New().String(), ext)

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload photo: %w", err)
	}

	return &UploadResult{
		Key:        key,
		Bucket:     s.bucket,
		Size:       int64(len(data)),
		MimeType:   mimeType,
		UploadedAt: time.Now().UTC(),
	}, nil
}

// PhotoURL returns a presigned GET URL for an item photo.
func (s *S3Service) PhotoURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign photo url: %w", err)
	}
	return req.URL, nil
}

// DeletePhoto removes an item photo object.
func (s *S3Service) DeletePhoto(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return nil
}
