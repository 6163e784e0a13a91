package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	put       *awss3.PutObjectInput
	body      string
	deleted   *awss3.DeleteObjectInput
	uploadErr error
}

func (f *fakeS3) Upload(ctx context.Context, input *awss3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.put = input
	b, _ := io.ReadAll(input.Body)
	f.body = string(b)
	return &manager.UploadOutput{Location: "https://shop.s3.amazonaws.com/" + aws.ToString(input.Key)}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
	f.deleted = params
	return &awss3.DeleteObjectOutput{}, nil
}

func TestUploadSetsKeyACLAndContentType(t *testing.T) {
	fake := &fakeS3{}
	store := newStore(fake, fake, config.S3Config{Bucket: "shop", ObjectPrefix: "images", PublicRead: true})

	loc, err := store.Upload(context.Background(), "banner-1.jpg", "image/jpeg", strings.NewReader("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "https://shop.s3.amazonaws.com/images/banner-1.jpg", loc)
	assert.Equal(t, "shop", aws.ToString(fake.put.Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(fake.put.ContentType))
	assert.Equal(t, types.ObjectCannedACLPublicRead, fake.put.ACL)
	assert.Equal(t, "jpeg", fake.body)
}

func TestUploadWithoutPublicRead(t *testing.T) {
	fake := &fakeS3{}
	store := newStore(fake, fake, config.S3Config{Bucket: "shop"})
	_, err := store.Upload(context.Background(), "a.png", "image/png", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Empty(t, fake.put.ACL)
	assert.Equal(t, "a.png", aws.ToString(fake.put.Key))
}

func TestUploadWrapsErrors(t *testing.T) {
	fake := &fakeS3{uploadErr: errors.New("throttled")}
	store := newStore(fake, fake, config.S3Config{Bucket: "shop"})
	_, err := store.Upload(context.Background(), "a.png", "image/png", strings.NewReader("x"))
	assert.ErrorContains(t, err, "throttled")
}

func TestDeleteDerivesKeyFromURL(t *testing.T) {
	fake := &fakeS3{}
	store := newStore(fake, fake, config.S3Config{Bucket: "shop", ObjectPrefix: "images"})
	require.NoError(t, store.Delete(context.Background(), "https://shop.s3.amazonaws.com/images/product-9.png"))
	assert.Equal(t, "images/product-9.png", aws.ToString(fake.deleted.Key))
	assert.Equal(t, "shop", aws.ToString(fake.deleted.Bucket))
}
