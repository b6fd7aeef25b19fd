package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dukerupert/shoplist/internal/model"
)

// s3Client is the subset of the S3 API the object backend needs.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Prefix    string `yaml:"prefix"`
}

// ObjectBackend stores each list as one JSON object in an S3-compatible
// bucket. Writes are serialized within the process only; across processes
// the last PutObject wins.
type ObjectBackend struct {
	client s3Client
	bucket string
	prefix string
	mu     sync.Mutex
}

func NewObjectBackend(cfg S3Config) (*ObjectBackend, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	return newObjectBackend(newS3Client(cfg), cfg.Bucket, cfg.Prefix), nil
}

func newObjectBackend(client s3Client, bucket, prefix string) *ObjectBackend {
	if prefix == "" {
		prefix = "lists/"
	}
	return &ObjectBackend{client: client, bucket: bucket, prefix: prefix}
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: true,
	}
	if cfg.AccessKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (b *ObjectBackend) key(listID string) string {
	return b.prefix + listID + ".json"
}

func (b *ObjectBackend) Create(ctx context.Context, list *model.List) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.put(ctx, list)
}

func (b *ObjectBackend) Load(ctx context.Context, listID string) (*model.List, error) {
	return b.get(ctx, listID)
}

func (b *ObjectBackend) Update(ctx context.Context, listID string, fn func(*model.List) error) (*model.List, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list, err := b.get(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := fn(list); err != nil {
		return nil, err
	}
	if err := b.put(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (b *ObjectBackend) Delete(ctx context.Context, listID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// DeleteObject succeeds for missing keys, so probe first.
	if _, err := b.get(ctx, listID); err != nil {
		return err
	}
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(listID)),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (b *ObjectBackend) get(ctx context.Context, listID string) (*model.List, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(listID)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrListNotFound
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	var list model.List
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode list %s: %w", listID, err)
	}
	if list.Items == nil {
		list.Items = []model.Item{}
	}
	return &list, nil
}

func (b *ObjectBackend) put(ctx context.Context, list *model.List) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode list: %w", err)
	}
	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.key(list.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}
