package storage

import (
	"context"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hackdesk/hackdesk/internal/config"
)

type s3Storage struct {
	client     *s3.Client
	bucket     string
	pathPrefix string
}

// NewS3Storage creates storage backed by S3 compatible object store.
func NewS3Storage(options config.S3StorageOptions) (Storage, error) {
	secretAccessKey, err := options.SecretAccessKey.GetValue()
	if err != nil {
		return nil, err
	}
	cfg := aws.Config{
		Region: options.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			options.AccessKeyID, secretAccessKey, "",
		),
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = options.UsePathStyle
		if options.Endpoint != "" {
			o.EndpointResolver = s3.EndpointResolverFromURL(options.Endpoint)
		}
	})
	return &s3Storage{
		client:     client,
		bucket:     options.Bucket,
		pathPrefix: options.PathPrefix,
	}, nil
}

func (s *s3Storage) ReadFile(ctx context.Context, filePath string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(filePath)),
	})
	if err != nil {
		return nil, err
	}
	return object.Body, nil
}

func (s *s3Storage) WriteFile(ctx context.Context, filePath string, file io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(filePath)),
		Body:   file,
	})
	return err
}

func (s *s3Storage) DeleteFile(ctx context.Context, filePath string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(filePath)),
	})
	return err
}

func (s *s3Storage) objectKey(filePath string) string {
	return path.Join(s.pathPrefix, filePath)
}
