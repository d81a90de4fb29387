// Package objectstore uploads user images (group banners, event banners,
// profile photos) to S3 with public-read access.
package objectstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// ErrNoImageData is returned when the payload is empty or not base64.
var ErrNoImageData = errors.New("no image data provided")

// Provider is recorded on stored image references.
const Provider = "aws"

// Object describes an uploaded object.
type Object struct {
	Key      string
	Location string
}

// Store puts and deletes objects.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (Object, error)
	Delete(ctx context.Context, key string) error
}

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds the bucket settings.
type Config struct {
	Region    string
	Bucket    string
	PublicURL string // optional CDN or custom domain in front of the bucket
}

// S3 stores objects in a bucket.
type S3 struct {
	api       S3API
	bucket    string
	publicURL string
}

// NewS3 loads AWS credentials from the default chain and returns a store.
func NewS3(ctx context.Context, cfg Config) (*S3, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3WithClient(s3.NewFromConfig(awsCfg), cfg), nil
}

// NewS3WithClient wraps an existing client.
func NewS3WithClient(api S3API, cfg Config) *S3 {
	pub := strings.TrimRight(cfg.PublicURL, "/")
	if pub == "" {
		pub = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &S3{api: api, bucket: cfg.Bucket, publicURL: pub}
}

func (s *S3) Put(ctx context.Context, key string, body []byte, contentType string) (Object, error) {
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return Object{}, fmt.Errorf("put %s: %w", key, err)
	}
	return Object{Key: key, Location: s.publicURL + "/" + key}, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Memory keeps objects in process. Used when no bucket is configured and in
// tests.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	BaseURL string
}

func NewMemory(baseURL string) *Memory {
	return &Memory{objects: make(map[string][]byte), BaseURL: strings.TrimRight(baseURL, "/")}
}

func (m *Memory) Put(_ context.Context, key string, body []byte, _ string) (Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), body...)
	return Object{Key: key, Location: m.BaseURL + "/" + key}, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Has reports whether key is stored.
func (m *Memory) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

/*─────────────────────────────────────────────────────────────────────────────*
| Payload helpers                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// DecodeBase64Image accepts raw base64 or a data URL
// ("data:image/png;base64,...") and returns the bytes and content type.
func DecodeBase64Image(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, "", ErrNoImageData
	}
	declared := ""
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, "", ErrNoImageData
		}
		meta := s[len("data:"):comma]
		declared = strings.TrimSuffix(meta, ";base64")
		s = s[comma+1:]
	}
	body, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		if body, err = base64.RawStdEncoding.DecodeString(s); err != nil {
			return nil, "", ErrNoImageData
		}
	}
	if len(body) == 0 {
		return nil, "", ErrNoImageData
	}
	ctype := http.DetectContentType(body)
	if !strings.HasPrefix(ctype, "image/") && strings.HasPrefix(declared, "image/") {
		ctype = declared
	}
	return body, ctype, nil
}

// ProfilePhotoKey names a profile photo object: profile-photos/<id>-<millis>.jpg.
func ProfilePhotoKey(userID string, at time.Time) string {
	return fmt.Sprintf("profile-photos/%s-%d.jpg", userID, at.UnixMilli())
}

// BannerKey names a banner object under prefix, keeping fileName's extension.
func BannerKey(prefix, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	if ext == "" {
		ext = ".jpg"
	}
	return strings.TrimRight(prefix, "/") + "/" + uuid.NewString() + ext
}
