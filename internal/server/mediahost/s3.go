// Package mediahost stores uploaded video files on S3-compatible object
// storage (AWS S3, MinIO, R2) and produces URLs for them.
package mediahost

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Config describes the bucket and credentials of the media host.
type Config struct {
	Bucket       string
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	UsePathStyle bool
	// PublicURL, when set, is the base of the URLs returned by Put
	// (for example a CDN in front of the bucket).
	PublicURL string
}

type S3Host struct {
	cfg     Config
	client  *s3.Client
	presign *s3.PresignClient
}

// NewS3Host builds the S3 client with static credentials. No request is made.
func NewS3Host(ctx context.Context, cfg Config) (*S3Host, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Host{cfg: cfg, client: client, presign: newS3PresignClient(client)}, nil
}

// StorageKey returns a fresh object key for a file owned by ownerID.
func StorageKey(ownerID string, now time.Time) string {
	return fmt.Sprintf("users/%s/%d/%d/%d/%v", ownerID, now.Year(), now.Month(), now.Day(), uuid.New())
}

// Put uploads body under key and returns the object URL. body must be
// seekable so the request can be signed and retried by the SDK.
func (h *S3Host) Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) (string, error) {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(h.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	if _, err := putObject(h.client, ctx, in); err != nil {
		return "", err
	}

	return h.ObjectURL(key), nil
}

func (h *S3Host) Delete(ctx context.Context, key string) error {
	_, err := deleteObject(h.client, ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(h.cfg.Bucket),
		Key:    aws.String(key),
	})
	return err
}

// PresignGet returns a time-limited GET URL for key.
func (h *S3Host) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := presignGetObject(h.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(h.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// ObjectURL is the non-signed URL of key.
func (h *S3Host) ObjectURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()

	if h.cfg.PublicURL != "" {
		return strings.TrimRight(h.cfg.PublicURL, "/") + "/" + escaped
	}
	if h.cfg.BaseEndpoint != "" {
		return strings.TrimRight(h.cfg.BaseEndpoint, "/") + "/" + h.cfg.Bucket + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", h.cfg.Bucket, h.cfg.Region, escaped)
}
