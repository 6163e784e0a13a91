package banners

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/media"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service interface {
	List(ctx context.Context) ([]BannerDTO, error)
	ListActive(ctx context.Context) ([]BannerDTO, error)
	Create(ctx context.Context, input CreateInput) (*BannerDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*BannerDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ServiceParams struct {
	Repo   *Repository
	Media  media.Service
	Logger *logger.Logger
}

type service struct {
	repo  *Repository
	media media.Service
	logg  *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("banner repository required")
	}
	if params.Media == nil {
		return nil, fmt.Errorf("media service required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: params.Repo, media: params.Media, logg: logg}, nil
}

func (s *service) List(ctx context.Context) ([]BannerDTO, error) {
	return s.list(ctx, nil)
}

func (s *service) ListActive(ctx context.Context) ([]BannerDTO, error) {
	active := enums.VisibilityActive
	return s.list(ctx, &active)
}

func (s *service) list(ctx context.Context, status *enums.VisibilityStatus) ([]BannerDTO, error) {
	rows, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list banners")
	}
	out := make([]BannerDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewBannerDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*BannerDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Title is required")
	}
	if input.Upload == nil && strings.TrimSpace(input.Image) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Image is required")
	}
	status := input.Status
	if status == "" {
		status = enums.VisibilityActive
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be active or inactive")
	}

	image := strings.TrimSpace(input.Image)
	uploaded := ""
	if input.Upload != nil {
		url, err := s.uploadImage(ctx, *input.Upload)
		if err != nil {
			return nil, err
		}
		image, uploaded = url, url
	}

	banner := &models.Banner{
		Title:     title,
		Image:     image,
		Link:      strings.TrimSpace(input.Link),
		Status:    status,
		SortOrder: input.Order,
	}
	if err := s.repo.Create(ctx, banner); err != nil {
		s.discard(ctx, uploaded)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create banner")
	}
	dto := NewBannerDTO(banner)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*BannerDTO, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	updates := map[string]any{}
	if input.Title != nil {
		if title := strings.TrimSpace(*input.Title); title != "" {
			updates["title"] = title
		}
	}
	if input.Link != nil {
		updates["link"] = strings.TrimSpace(*input.Link)
	}
	if input.Status != nil && *input.Status != "" {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be active or inactive")
		}
		updates["status"] = *input.Status
	}
	if input.Order != nil {
		updates["sort_order"] = *input.Order
	}
	if input.Image != nil && strings.TrimSpace(*input.Image) != "" {
		updates["image"] = strings.TrimSpace(*input.Image)
	}
	uploaded := ""
	if input.Upload != nil {
		url, err := s.uploadImage(ctx, *input.Upload)
		if err != nil {
			return nil, err
		}
		updates["image"] = url
		uploaded = url
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			s.discard(ctx, uploaded)
			return nil, mapRepoError(err)
		}
	}
	if next, ok := updates["image"].(string); ok && existing.Image != next {
		s.discard(ctx, existing.Image)
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	dto := NewBannerDTO(updated)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapRepoError(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err)
	}
	s.discard(ctx, existing.Image)
	return nil
}

func (s *service) uploadImage(ctx context.Context, file media.File) (string, error) {
	urls, err := s.media.Upload(ctx, enums.MediaKindBanner, []media.File{file})
	if err != nil {
		return "", err
	}
	return urls[0], nil
}

func (s *service) discard(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.media.Delete(ctx, url); err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"url": url, "error": err.Error()}), "banners.image.delete_failed")
	}
}

func mapRepoError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "Banner not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "banner query")
}
