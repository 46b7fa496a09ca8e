package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Size is an entry in the global size vocabulary (S, M, L, UK-8 ...).
type Size struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Label     string    `gorm:"column:label;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (s *Size) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// ProductSize associates a size with a product.
type ProductSize struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:product_sizes_product_size_key"`
	SizeID    uuid.UUID `gorm:"column:size_id;type:uuid;not null;uniqueIndex:product_sizes_product_size_key"`
	Size      Size      `gorm:"foreignKey:SizeID;constraint:OnDelete:CASCADE"`
}

func (ps *ProductSize) BeforeCreate(*gorm.DB) error {
	ensureID(&ps.ID)
	return nil
}
