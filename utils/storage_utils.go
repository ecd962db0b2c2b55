package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
}

// Uploader puts public objects into an S3-compatible bucket.
type Uploader struct {
	client    s3iface.S3API
	bucket    string
	publicURL string
}

func NewUploader(cfg S3Config) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}

	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKey, cfg.SecretKey, "",
		),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3 session: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		if cfg.Endpoint != "" {
			publicURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	return NewUploaderWithClient(s3.New(sess), cfg.Bucket, publicURL), nil
}

func NewUploaderWithClient(client s3iface.S3API, bucket, publicURL string) *Uploader {
	return &Uploader{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

// Upload stores file under folder/fileName and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, file []byte, fileName, folder, contentType string) (string, error) {
	key := strings.Trim(folder, "/") + "/" + fileName

	_, err := u.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(file),
		ContentLength: aws.Int64(int64(len(file))),
		ContentType:   aws.String(contentType),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("unable to upload file to S3: %w", err)
	}

	return u.publicURL + "/" + key, nil
}
