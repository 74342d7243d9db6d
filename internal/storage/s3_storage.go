package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/ikkim/bizmarket-backend/config"
	"github.com/ikkim/bizmarket-backend/pkg/logger"
)

const presignExpiry = 15 * time.Minute

var ErrContentTypeNotAllowed = errors.New("content type not allowed")

// ImageContentTypes are the uploads accepted for cover and work images.
var ImageContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type PresignedUpload struct {
	UploadURL string    `json:"upload_url"`
	FileURL   string    `json:"file_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Presigner is the part of the S3 client the upload flow needs.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)
}

type S3Storage struct {
	presigner Presigner
	bucket    string
	region    string
	baseURL   string
}

type s3Presigner struct {
	client *s3.PresignClient
	bucket string
}

func (p *s3Presigner) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	req, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// NewS3Storage builds the client from static keys when both are set and from
// the default credential chain otherwise.
func NewS3Storage(cfg config.S3Config) *S3Storage {
	var awsCfg aws.Config
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg = aws.Config{
			Region:      cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		}
	} else {
		loaded, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
		if err != nil {
			logger.Warn("Falling back to region-only AWS config", map[string]interface{}{
				"error": err.Error(),
			})
			loaded = aws.Config{Region: cfg.Region}
		}
		awsCfg = loaded
	}

	client := s3.NewFromConfig(awsCfg)
	return NewS3StorageWithPresigner(
		&s3Presigner{client: s3.NewPresignClient(client), bucket: cfg.Bucket},
		cfg.Bucket, cfg.Region, cfg.BaseURL,
	)
}

func NewS3StorageWithPresigner(p Presigner, bucket, region, baseURL string) *S3Storage {
	return &S3Storage{
		presigner: p,
		bucket:    bucket,
		region:    region,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
	}
}

// PublicBaseURL is the prefix every uploaded file URL starts with.
func (s *S3Storage) PublicBaseURL() string {
	if s.baseURL != "" {
		return s.baseURL
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.bucket, s.region)
}

// PresignImageUpload returns a PUT URL for an image under folder. The object
// key is random; only the extension of filename is kept.
func (s *S3Storage) PresignImageUpload(ctx context.Context, folder, filename, contentType string) (*PresignedUpload, error) {
	defaultExt, ok := ImageContentTypes[contentType]
	if !ok {
		return nil, ErrContentTypeNotAllowed
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = defaultExt
	}

	key := fmt.Sprintf("%s/%s%s", strings.Trim(folder, "/"), uuid.New().String(), ext)
	url, err := s.presigner.PresignPut(ctx, key, contentType, presignExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &PresignedUpload{
		UploadURL: url,
		FileURL:   fmt.Sprintf("%s/%s", s.PublicBaseURL(), key),
		Key:       key,
		ExpiresAt: time.Now().Add(presignExpiry),
	}, nil
}
