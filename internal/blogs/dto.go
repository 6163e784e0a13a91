package blogs

import (
	"time"

	"github.com/angelmondragon/storefront-backend/internal/media"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
)

const (
	defaultCategory = "General"
	defaultAuthor   = "Admin"
)

type BlogDTO struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	CatImg      string    `json:"catImg"`
	Images      []string  `json:"images"`
	Category    string    `json:"category"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewBlogDTO(b *models.Blog) BlogDTO {
	images := []string(b.Images)
	if images == nil {
		images = []string{}
	}
	return BlogDTO{
		ID:          b.ID,
		Title:       b.Title,
		Slug:        b.Slug,
		Description: b.Description,
		Content:     b.Content,
		CatImg:      b.CatImg,
		Images:      images,
		Category:    b.Category,
		Author:      b.Author,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// CreateInput carries either an already hosted CatImg URL or an uploaded
// Image; the upload wins when both are present.
type CreateInput struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Content     string      `json:"content"`
	Category    string      `json:"category"`
	Author      string      `json:"author"`
	CatImg      string      `json:"catImg" validate:"omitempty,url"`
	Images      []string    `json:"images" validate:"omitempty,dive,url"`
	Image       *media.File `json:"-"`
}

type UpdateInput struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Content     *string     `json:"content"`
	Category    *string     `json:"category"`
	CatImg      *string     `json:"catImg" validate:"omitempty,url"`
	Image       *media.File `json:"-"`
}
