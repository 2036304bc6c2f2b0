// Package archive keeps a copy of every chunk uploaded to the index in an
// S3-compatible bucket (AWS S3, MinIO). It is optional: with no bucket
// configured the index pipeline runs without it.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archiver stores one named payload.
type Archiver interface {
	Put(ctx context.Context, name string, data []byte) error
}

// Options configures S3Archiver. Endpoint and the static keys are optional;
// without keys the default AWS credential chain is used.
type Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		_, err := c.PutObject(ctx, in)
		return err
	}

	now = time.Now
)

// S3Archiver writes payloads under <prefix>/<run>/<name>.
type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3 builds the S3 client once. The endpoint, when set, switches the
// client to path-style addressing as MinIO expects.
func NewS3(ctx context.Context, o Options) (*S3Archiver, error) {
	if o.Bucket == "" {
		return nil, errors.New("archive bucket is empty")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(o.Region)}
	if o.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		}
	})

	return &S3Archiver{client: client, bucket: o.Bucket, prefix: o.Prefix}, nil
}

// Key returns the object key used for name in the current run directory.
func (a *S3Archiver) Key(run, name string) string {
	return path.Join(a.prefix, run, name)
}

// Put uploads data as a JSON object. Objects of one day share a directory.
func (a *S3Archiver) Put(ctx context.Context, name string, data []byte) error {
	key := a.Key(now().UTC().Format("2006-01-02"), name)
	err := putObject(a.client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive %s: %w", key, err)
	}
	return nil
}
