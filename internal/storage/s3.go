// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage resolves category thumbnail keys to URLs on S3-compatible
// object storage. Uploads are handled elsewhere; this package only builds
// public links or presigned GET links. It wraps the AWS SDK v2 and uses
// path-style access (required by CEPH/Hetzner).
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"taxonomy/internal/catalog"
)

// DefaultPresignExpiry is how long a presigned thumbnail link stays valid.
const DefaultPresignExpiry = time.Hour

// Client resolves thumbnail keys in a single bucket.
type Client struct {
	presigner     *s3.PresignClient
	bucket        string
	endpoint      string
	publicURL     string // optional CDN/direct URL; presigned links are used when empty
	presignExpiry time.Duration
}

var _ catalog.ThumbnailResolver = (*Client)(nil)

// Config holds the S3 connection settings.
type Config struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicURL     string
	PresignExpiry time.Duration
}

// New creates a storage client with static credentials and path-style
// addressing. Returns (nil, nil) if endpoint or credentials are empty,
// allowing the app to start without storage.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, nil
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required when S3 is configured")
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}

	s3Client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		presigner:     s3.NewPresignClient(s3Client),
		bucket:        cfg.Bucket,
		endpoint:      endpoint,
		publicURL:     strings.TrimRight(cfg.PublicURL, "/"),
		presignExpiry: expiry,
	}, nil
}

// ThumbnailURL returns a link for the object stored under key. With a public
// URL configured the link is built directly; otherwise it is presigned.
func (c *Client) ThumbnailURL(ctx context.Context, key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if c.publicURL != "" {
		return c.publicURL + "/" + key, nil
	}
	return c.PresignedURL(ctx, key, c.presignExpiry)
}

// PresignedURL generates a pre-signed GET URL for an object in the bucket.
// The URL is valid for the specified duration (S3 caps presigned links at 7 days).
func (c *Client) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s/%s: %w", c.bucket, key, err)
	}
	return req.URL, nil
}

// Bucket returns the thumbnail bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}
