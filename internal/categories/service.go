package categories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/media"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/slug"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// MaxLevel is the deepest level a category may sit at.
	MaxLevel = 3

	defaultRootName = "Electronics"
	treeCacheTTL    = 5 * time.Minute
)

// TreeCache stores the assembled tree between writes. *redis.Client satisfies it.
type TreeCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// Service exposes category business rules.
type Service interface {
	Tree(ctx context.Context) ([]*CategoryDTO, error)
	Create(ctx context.Context, input CreateInput) (*CategoryDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*CategoryDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*CategoryDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByLevel(ctx context.Context, level int) ([]*CategoryDTO, error)
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]*CategoryDTO, error)
	UploadImages(ctx context.Context, files []media.File) ([]string, error)
}

// ServiceParams groups dependencies for the category service. Cache and
// Media are optional.
type ServiceParams struct {
	Repo   *Repository
	Media  media.Service
	Cache  TreeCache
	Logger *logger.Logger
}

type service struct {
	repo  *Repository
	media media.Service
	cache TreeCache
	logg  *logger.Logger
}

// NewService builds a category service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category repo is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:  params.Repo,
		media: params.Media,
		cache: params.Cache,
		logg:  logg,
	}, nil
}

// Tree returns the category forest. An empty catalog is seeded with a single
// default root so storefront menus always have something to render.
func (s *service) Tree(ctx context.Context) ([]*CategoryDTO, error) {
	if cached, ok := s.cachedTree(ctx); ok {
		return cached, nil
	}

	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	if len(rows) == 0 {
		root := &models.Category{
			Name:   defaultRootName,
			Slug:   slug.Make(defaultRootName),
			Images: []string{},
			Level:  1,
			Status: enums.VisibilityActive,
		}
		if err := s.repo.Create(ctx, root); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create default category")
		}
		s.logg.Info(ctx, "categories.tree.bootstrapped")
		rows = []models.Category{*root}
	}

	tree := Assemble(rows)
	s.storeTree(ctx, tree)
	return tree, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	status, err := enums.ParseVisibilityStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}

	level, err := s.levelUnder(ctx, input.ParentID)
	if err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:          name,
		Slug:          slug.Make(name),
		Images:        nonNil(input.Images),
		ParentID:      input.ParentID,
		ParentCatName: input.ParentCatName,
		Level:         level,
		Status:        status,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	s.invalidateTree(ctx)
	return NewCategoryDTO(category), nil
}

// levelUnder returns the level a child of parentID gets. A parent that does
// not exist counts as no parent.
func (s *service) levelUnder(ctx context.Context, parentID *uuid.UUID) (int, error) {
	if parentID == nil || *parentID == uuid.Nil {
		return 1, nil
	}
	parent, err := s.repo.FindByID(ctx, *parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 1, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parent category")
	}
	if parent.Level >= MaxLevel {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "categories cannot be nested deeper than three levels").
			WithDetails(map[string]any{"parentId": parent.ID, "parentLevel": parent.Level})
	}
	return parent.Level + 1, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CategoryDTO, error) {
	category, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewCategoryDTO(category), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*CategoryDTO, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		updates["name"] = name
		updates["slug"] = slug.Make(name)
	}
	if input.Status != nil {
		status, err := enums.ParseVisibilityStatus(*input.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		updates["status"] = status
	}
	if input.Images != nil {
		updates["images"] = datatypes.JSONSlice[string](input.Images)
	}
	if input.ParentCatName != nil {
		updates["parent_cat_name"] = *input.ParentCatName
	}

	var moved map[uuid.UUID]int
	if input.ParentID != nil {
		rows, err := s.repo.ListAll(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
		}
		moved, err = relevel(rows, id, input.ParentID)
		if err != nil {
			return nil, err
		}
		if *input.ParentID == uuid.Nil {
			updates["parent_id"] = nil
		} else {
			updates["parent_id"] = *input.ParentID
		}
		updates["level"] = moved[id]
	}

	// The moved node and its subtree change level together.
	err := s.repo.Transaction(ctx, func(tx *Repository) error {
		if err := tx.Update(ctx, id, updates); err != nil {
			return err
		}
		for descendant, level := range moved {
			if descendant == id {
				continue
			}
			if err := tx.Update(ctx, descendant, map[string]any{"level": level}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err, "update category")
	}
	s.invalidateTree(ctx)
	return s.Get(ctx, id)
}

// Delete refuses to orphan subcategories. Category images are removed from
// storage best effort.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	category, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	children, err := s.repo.CountChildren(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count subcategories")
	}
	if children > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Cannot delete category with subcategories. Delete subcategories first.").
			WithDetails(map[string]any{"subcategories": children})
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "delete category")
	}
	s.invalidateTree(ctx)

	if s.media != nil && len(category.Images) > 0 {
		if err := s.media.DeleteAll(ctx, category.Images); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "category_id", id.String()), "categories.delete.image_cleanup_failed", err)
		}
	}
	return nil
}

func (s *service) ListByLevel(ctx context.Context, level int) ([]*CategoryDTO, error) {
	if level < 1 || level > MaxLevel {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "level must be between 1 and 3")
	}
	rows, err := s.repo.ListByLevel(ctx, level)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories by level")
	}
	return newCategoryDTOs(rows), nil
}

func (s *service) ListChildren(ctx context.Context, parentID uuid.UUID) ([]*CategoryDTO, error) {
	rows, err := s.repo.ListChildren(ctx, parentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subcategories")
	}
	return newCategoryDTOs(rows), nil
}

// UploadImages stores the files and hands the URLs back to the caller, who
// passes them to Create or Update.
func (s *service) UploadImages(ctx context.Context, files []media.File) ([]string, error) {
	if s.media == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "image storage unavailable")
	}
	return s.media.Upload(ctx, enums.MediaKindCategory, files)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "load category")
	}
	return category, nil
}

func (s *service) cachedTree(ctx context.Context) ([]*CategoryDTO, bool) {
	if s.cache == nil {
		return nil, false
	}
	var tree []*CategoryDTO
	ok, err := s.cache.GetJSON(ctx, s.cache.CacheKey("categories", "tree"), &tree)
	if err != nil {
		s.logg.Warn(ctx, "categories.tree.cache_read_failed")
		return nil, false
	}
	return tree, ok && len(tree) > 0
}

func (s *service) storeTree(ctx context.Context, tree []*CategoryDTO) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, s.cache.CacheKey("categories", "tree"), tree, treeCacheTTL); err != nil {
		s.logg.Warn(ctx, "categories.tree.cache_write_failed")
	}
}

func (s *service) invalidateTree(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.CacheKey("categories", "tree")); err != nil {
		s.logg.Warn(ctx, "categories.tree.cache_invalidate_failed")
	}
}

func mapRepoError(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "category not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
