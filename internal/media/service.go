package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/storage"
	"go.uber.org/multierr"
)

const defaultMaxUploadBytes = 10 * 1024 * 1024

// File is one uploaded image as read from a multipart form.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Service uploads images to the configured store and removes them again.
type Service interface {
	Upload(ctx context.Context, kind enums.MediaKind, files []File) ([]string, error)
	Delete(ctx context.Context, publicURL string) error
	DeleteAll(ctx context.Context, urls []string) error
}

// ServiceParams groups dependencies for the media service.
type ServiceParams struct {
	Store          storage.ImageStore
	MaxUploadBytes int64
	Logger         *logger.Logger
}

type service struct {
	store    storage.ImageStore
	maxBytes int64
	logg     *logger.Logger
}

// NewService builds a media service over the provided image store.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("image store required")
	}
	maxBytes := params.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{store: params.Store, maxBytes: maxBytes, logg: logg}, nil
}

// Upload stores every file and returns the public URLs in input order. Files
// already stored are removed again when a later one fails.
func (s *service) Upload(ctx context.Context, kind enums.MediaKind, files []File) ([]string, error) {
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid media kind")
	}
	if len(files) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one image is required")
	}
	checked := make([]checkedFile, 0, len(files))
	for i, file := range files {
		c, err := s.check(file)
		if err != nil {
			return nil, err.WithDetails(map[string]any{"index": i, "file": file.Name})
		}
		checked = append(checked, c)
	}

	urls := make([]string, 0, len(checked))
	for _, file := range checked {
		url, err := s.store.Upload(ctx, storage.ObjectName(kind.String(), file.name), file.mimeType, file.body)
		if err != nil {
			if cleanupErr := s.DeleteAll(ctx, urls); cleanupErr != nil {
				s.logg.Error(ctx, "media.upload.rollback_failed", cleanupErr)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload image")
		}
		urls = append(urls, url)
	}
	return urls, nil
}

type checkedFile struct {
	name     string
	mimeType string
	body     io.Reader
}

func (s *service) check(file File) (checkedFile, *pkgerrors.Error) {
	if strings.TrimSpace(file.Name) == "" {
		return checkedFile{}, pkgerrors.New(pkgerrors.CodeValidation, "file name is required")
	}
	if file.Body == nil || file.Size == 0 {
		return checkedFile{}, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if file.Size > s.maxBytes {
		return checkedFile{}, pkgerrors.Newf(pkgerrors.CodeValidation, "file must be at most %d bytes", s.maxBytes)
	}
	mimeType, body, err := imageType(file.ContentType, file.Body)
	switch {
	case errors.Is(err, errNotAnImage):
		return checkedFile{}, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	case err != nil:
		return checkedFile{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid content type")
	}
	return checkedFile{name: file.Name, mimeType: mimeType, body: body}, nil
}

// Delete removes a single image by its public URL.
func (s *service) Delete(ctx context.Context, publicURL string) error {
	if strings.TrimSpace(publicURL) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "image url is required")
	}
	if _, err := storage.NameFromURL(publicURL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid image url")
	}
	if err := s.store.Delete(ctx, publicURL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete image")
	}
	return nil
}

// DeleteAll attempts every deletion and returns the combined failures.
func (s *service) DeleteAll(ctx context.Context, urls []string) error {
	var errs error
	for _, url := range urls {
		if strings.TrimSpace(url) == "" {
			continue
		}
		if err := s.store.Delete(ctx, url); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", url, err))
		}
	}
	return errs
}
