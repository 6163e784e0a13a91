// Package s3 stores uploaded images in an S3 bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type uploader interface {
	Upload(ctx context.Context, input *awss3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type deleter interface {
	DeleteObject(ctx context.Context, params *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
}

type Store struct {
	uploader   uploader
	deleter    deleter
	bucket     string
	prefix     string
	publicRead bool
}

var _ storage.ImageStore = (*Store)(nil)

// New loads AWS credentials from the default chain (env, shared config, IAM role).
func New(ctx context.Context, cfg config.S3Config, logg *logger.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := awss3.NewFromConfig(awsCfg)

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"bucket": cfg.Bucket, "region": cfg.Region}), "s3 image store initialized")
	}
	return newStore(manager.NewUploader(client), client, cfg), nil
}

func newStore(up uploader, del deleter, cfg config.S3Config) *Store {
	return &Store{
		uploader:   up,
		deleter:    del,
		bucket:     cfg.Bucket,
		prefix:     cfg.ObjectPrefix,
		publicRead: cfg.PublicRead,
	}
}

func (s *Store) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	input := &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(storage.JoinKey(s.prefix, name)),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if s.publicRead {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	out, err := s.uploader.Upload(ctx, input)
	if err != nil {
		return "", fmt.Errorf("s3 upload %s: %w", aws.ToString(input.Key), err)
	}
	return out.Location, nil
}

func (s *Store) Delete(ctx context.Context, publicURL string) error {
	name, err := storage.NameFromURL(publicURL)
	if err != nil {
		return err
	}
	key := storage.JoinKey(s.prefix, name)
	if _, err := s.deleter.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}
