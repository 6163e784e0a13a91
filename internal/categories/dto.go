package categories

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

// CategoryDTO is the client representation of a category. Children is only
// populated by the tree endpoint.
type CategoryDTO struct {
	ID            uuid.UUID              `json:"id"`
	Name          string                 `json:"name"`
	Slug          string                 `json:"slug"`
	Images        []string               `json:"images"`
	ParentID      *uuid.UUID             `json:"parentId"`
	ParentCatName *string                `json:"parentCatName"`
	Level         int                    `json:"level"`
	Status        enums.VisibilityStatus `json:"status"`
	Children      []*CategoryDTO         `json:"children,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

func NewCategoryDTO(c *models.Category) *CategoryDTO {
	images := append([]string{}, c.Images...)
	return &CategoryDTO{
		ID:            c.ID,
		Name:          c.Name,
		Slug:          c.Slug,
		Images:        images,
		ParentID:      c.ParentID,
		ParentCatName: c.ParentCatName,
		Level:         c.Level,
		Status:        c.Status,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func newCategoryDTOs(rows []models.Category) []*CategoryDTO {
	out := make([]*CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewCategoryDTO(&rows[i]))
	}
	return out
}

// CreateInput carries the fields accepted when creating a category.
type CreateInput struct {
	Name          string     `json:"name" validate:"required"`
	ParentID      *uuid.UUID `json:"parentId"`
	ParentCatName *string    `json:"parentCatName"`
	Images        []string   `json:"images" validate:"omitempty,dive,url"`
	Status        string     `json:"status" validate:"omitempty,oneof=active inactive"`
}

// UpdateInput is a patch: nil fields are left unchanged.
type UpdateInput struct {
	Name          *string    `json:"name" validate:"omitempty,min=1"`
	ParentID      *uuid.UUID `json:"parentId"`
	ParentCatName *string    `json:"parentCatName"`
	Images        []string   `json:"images" validate:"omitempty,dive,url"`
	Status        *string    `json:"status" validate:"omitempty,oneof=active inactive"`
}
