package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/urbancart/urbancart-backend/pkg/enums"
	"gorm.io/gorm"
)

// Product is a sellable catalog entry. DiscountPrice is derived from
// OriginalPrice and DiscountPercentage on every write.
type Product struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Name               string                `gorm:"column:name;not null"`
	Slug               string                `gorm:"column:slug;not null;uniqueIndex"`
	Description        *string               `gorm:"column:description"`
	Category           enums.ProductCategory `gorm:"column:category;type:text;not null;index"`
	Gender             enums.Gender          `gorm:"column:gender;type:text;not null;default:'unisex'"`
	ThumbnailKey       string                `gorm:"column:thumbnail_key;not null"`
	ThumbnailURL       string                `gorm:"column:thumbnail_url;not null"`
	Ratings            float64               `gorm:"column:ratings;not null;default:0"`
	OriginalPrice      int64                 `gorm:"column:original_price;not null;default:0"`
	DiscountPercentage int                   `gorm:"column:discount_percentage;not null;default:0"`
	DiscountPrice      int64                 `gorm:"column:discount_price;not null;default:0"`
	Images             []ProductImage        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Sizes              []ProductSize         `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ProductImage is one gallery image of a product.
type ProductImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	ObjectKey string    `gorm:"column:object_key;not null"`
	URL       string    `gorm:"column:url;not null"`
	Position  int       `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (i *ProductImage) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
