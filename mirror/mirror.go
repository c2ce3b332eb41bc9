// Package mirror copies uploaded images to object storage.
package mirror

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Mirror receives copies of public files, keyed by their public path.
type Mirror interface {
	Put(ctx context.Context, publicPath, contentType string, data []byte) error
	Delete(ctx context.Context, publicPath string) error
}

// Nop discards everything. It is used when no bucket is configured.
type Nop struct{}

func (Nop) Put(context.Context, string, string, []byte) error { return nil }
func (Nop) Delete(context.Context, string) error              { return nil }

// Client is the part of *s3.Client the mirror uses.
type Client interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 mirrors into a bucket under an optional key prefix.
type S3 struct {
	client Client
	bucket string
	prefix string
}

// NewS3 wraps an existing client.
func NewS3(client Client, bucket, prefix string) *S3 {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

// NewS3FromEnv builds a client from the default AWS credential chain.
func NewS3FromEnv(ctx context.Context, bucket, prefix string) (*S3, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// Key maps a public path such as /images/logos/a.jpg to its object key.
func (m *S3) Key(publicPath string) string {
	return m.prefix + strings.TrimLeft(publicPath, "/")
}

func (m *S3) Put(ctx context.Context, publicPath, contentType string, data []byte) error {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(m.Key(publicPath)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", m.Key(publicPath), err)
	}
	return nil
}

func (m *S3) Delete(ctx context.Context, publicPath string) error {
	_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.Key(publicPath)),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", m.Key(publicPath), err)
	}
	return nil
}
