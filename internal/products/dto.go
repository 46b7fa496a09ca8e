package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/urbancart/urbancart-backend/internal/media"
	"github.com/urbancart/urbancart-backend/pkg/db/models"
	"github.com/urbancart/urbancart-backend/pkg/enums"
)

// ProductSummary is the catalog list shape.
type ProductSummary struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Slug               string    `json:"slug"`
	Thumbnail          string    `json:"thumbnail"`
	Description        *string   `json:"description"`
	Category           string    `json:"category"`
	Gender             string    `json:"gender"`
	Ratings            float64   `json:"ratings"`
	OriginalPrice      int64     `json:"original_price"`
	DiscountPrice      int64     `json:"discount_price"`
	DiscountPercentage int       `json:"discount_percentage"`
	DiscountAmount     int64     `json:"discount_amount"`
}

// ProductDetail adds the gallery and sizes to the summary.
type ProductDetail struct {
	ProductSummary
	Images    []ImageDTO `json:"images"`
	Sizes     []SizeDTO  `json:"sizes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ImageDTO is one gallery image.
type ImageDTO struct {
	ID       uuid.UUID `json:"id"`
	URL      string    `json:"url"`
	Position int       `json:"position"`
}

// SizeDTO is a size from the vocabulary.
type SizeDTO struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
}

// CreateSizeRequest is the admin payload adding a size label.
type CreateSizeRequest struct {
	Label string `json:"label" validate:"required,max=20"`
}

// CreateProductInput is a parsed admin create form.
type CreateProductInput struct {
	Name               string
	Description        *string
	Category           enums.ProductCategory
	Gender             enums.Gender
	OriginalPrice      int64
	DiscountPercentage int
	Ratings            float64
	SizeIDs            []uuid.UUID
	Thumbnail          *media.Upload
	Images             []media.Upload
}

// UpdateProductInput is a partial edit; nil fields stay untouched. A non-empty
// Images replaces the whole gallery.
type UpdateProductInput struct {
	Name               *string
	Description        *string
	Category           *enums.ProductCategory
	Gender             *enums.Gender
	OriginalPrice      *int64
	DiscountPercentage *int
	Ratings            *float64
	SizeIDs            *[]uuid.UUID
	Thumbnail          *media.Upload
	Images             []media.Upload
}

// CreatedProduct is returned after an admin create.
type CreatedProduct struct {
	Message   string    `json:"message"`
	ProductID uuid.UUID `json:"product_id"`
	Slug      string    `json:"slug"`
}

func toSummary(p *models.Product) ProductSummary {
	return ProductSummary{
		ID:                 p.ID,
		Name:               p.Name,
		Slug:               p.Slug,
		Thumbnail:          p.ThumbnailURL,
		Description:        p.Description,
		Category:           p.Category.String(),
		Gender:             p.Gender.String(),
		Ratings:            p.Ratings,
		OriginalPrice:      p.OriginalPrice,
		DiscountPrice:      p.DiscountPrice,
		DiscountPercentage: p.DiscountPercentage,
		DiscountAmount:     p.OriginalPrice - p.DiscountPrice,
	}
}

func toDetail(p *models.Product) *ProductDetail {
	detail := &ProductDetail{
		ProductSummary: toSummary(p),
		Images:         make([]ImageDTO, 0, len(p.Images)),
		Sizes:          make([]SizeDTO, 0, len(p.Sizes)),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	for _, img := range p.Images {
		detail.Images = append(detail.Images, ImageDTO{ID: img.ID, URL: img.URL, Position: img.Position})
	}
	for _, ps := range p.Sizes {
		detail.Sizes = append(detail.Sizes, SizeDTO{ID: ps.SizeID, Label: ps.Size.Label})
	}
	return detail
}
