// Package downloads turns a product's stored file reference into a URL the
// buyer can fetch. Absolute http(s) URLs pass through; anything else is an
// object key in the configured bucket and gets a short-lived presigned GET.
package downloads

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
)

var (
	ErrNoFile          = errors.New("product has no file")
	ErrStorageDisabled = errors.New("object storage is not configured")
)

// Presigner is the part of the S3 presign client this package needs.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Client resolves download URLs
type Client struct {
	presigner Presigner
	bucket    string
	expiry    time.Duration
}

// NewClient creates a download client. A disabled config yields a client that
// only passes absolute URLs through.
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		log.Info("[Downloads] S3 disabled, serving direct file URLs only")
		return &Client{}, nil
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	log.Infof("[Downloads] presigning product files from bucket %s", cfg.BucketName)
	return NewClientWithPresigner(s3.NewPresignClient(s3Client), cfg.BucketName, cfg.URLExpiry), nil
}

// NewClientWithPresigner wires an explicit presigner, e.g. a fake in tests.
func NewClientWithPresigner(p Presigner, bucket string, expiry time.Duration) *Client {
	return &Client{presigner: p, bucket: bucket, expiry: expiry}
}

// URLFor returns the URL to hand to the buyer for fileURL.
func (c *Client) URLFor(ctx context.Context, fileURL string) (string, error) {
	fileURL = strings.TrimSpace(fileURL)
	if fileURL == "" {
		return "", ErrNoFile
	}
	lower := strings.ToLower(fileURL)
	if strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://") {
		return fileURL, nil
	}
	if c == nil || c.presigner == nil {
		return "", ErrStorageDisabled
	}

	key := strings.TrimPrefix(fileURL, "s3://"+c.bucket+"/")
	key = strings.TrimLeft(key, "/")
	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(c.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", path.Base(key))),
	}, s3.WithPresignExpires(c.expiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}
