package blogs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/media"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/slug"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service interface {
	List(ctx context.Context) ([]BlogDTO, error)
	Get(ctx context.Context, idOrSlug string) (*BlogDTO, error)
	Create(ctx context.Context, input CreateInput) (*BlogDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*BlogDTO, error)
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
	now   func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("blog repository required")
	}
	if params.Media == nil {
		return nil, fmt.Errorf("media service required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: params.Repo, media: params.Media, logg: logg, now: time.Now}, nil
}

func (s *service) List(ctx context.Context) ([]BlogDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list blogs")
	}
	out := make([]BlogDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewBlogDTO(&rows[i]))
	}
	return out, nil
}

// Get accepts either the post id or its slug.
func (s *service) Get(ctx context.Context, idOrSlug string) (*BlogDTO, error) {
	key := strings.TrimSpace(idOrSlug)
	var (
		blog *models.Blog
		err  error
	)
	if id, parseErr := uuid.Parse(key); parseErr == nil {
		blog, err = s.repo.FindByID(ctx, id)
	} else {
		blog, err = s.repo.FindBySlug(ctx, key)
	}
	if err != nil {
		return nil, mapRepoError(err)
	}
	dto := NewBlogDTO(blog)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*BlogDTO, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Title and description are required")
	}

	catImg := strings.TrimSpace(input.CatImg)
	uploaded := ""
	if input.Image != nil {
		url, err := s.uploadImage(ctx, *input.Image)
		if err != nil {
			return nil, err
		}
		catImg, uploaded = url, url
	}

	blog := &models.Blog{
		Title:       title,
		Slug:        slug.Timestamped(title, s.now()),
		Description: description,
		Content:     input.Content,
		CatImg:      catImg,
		Images:      datatypes.JSONSlice[string](nonNil(input.Images)),
		Category:    orDefault(input.Category, defaultCategory),
		Author:      orDefault(input.Author, defaultAuthor),
	}
	if err := s.repo.Create(ctx, blog); err != nil {
		s.discard(ctx, uploaded)
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Conflict("slug", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create blog")
	}
	dto := NewBlogDTO(blog)
	return &dto, nil
}

// Update re-slugs when the title changes. A replaced cover image is removed
// from storage best effort.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*BlogDTO, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	updates := map[string]any{}
	if input.Title != nil {
		if title := strings.TrimSpace(*input.Title); title != "" {
			updates["title"] = title
			updates["slug"] = slug.Timestamped(title, s.now())
		}
	}
	if input.Description != nil {
		if description := strings.TrimSpace(*input.Description); description != "" {
			updates["description"] = description
		}
	}
	if input.Content != nil {
		updates["content"] = *input.Content
	}
	if input.Category != nil {
		updates["category"] = strings.TrimSpace(*input.Category)
	}
	if input.CatImg != nil {
		updates["cat_img"] = strings.TrimSpace(*input.CatImg)
	}
	uploaded := ""
	if input.Image != nil {
		url, err := s.uploadImage(ctx, *input.Image)
		if err != nil {
			return nil, err
		}
		updates["cat_img"] = url
		uploaded = url
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			s.discard(ctx, uploaded)
			if db.IsUniqueViolation(err) {
				return nil, pkgerrors.Conflict("slug", err)
			}
			return nil, mapRepoError(err)
		}
	}
	if next, ok := updates["cat_img"].(string); ok && existing.CatImg != "" && existing.CatImg != next {
		s.discard(ctx, existing.CatImg)
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	dto := NewBlogDTO(updated)
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
	s.discard(ctx, existing.CatImg)
	return nil
}

func (s *service) uploadImage(ctx context.Context, file media.File) (string, error) {
	urls, err := s.media.Upload(ctx, enums.MediaKindBlog, []media.File{file})
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
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"url": url, "error": err.Error()}), "blogs.image.delete_failed")
	}
}

func orDefault(v, fallback string) string {
	if trimmed := strings.TrimSpace(v); trimmed != "" {
		return trimmed
	}
	return fallback
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func mapRepoError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "Blog not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "blog query")
}
