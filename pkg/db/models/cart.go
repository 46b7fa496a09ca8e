package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart is the per-user singleton cart.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	User      *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CartItem is a (product, optional size, quantity) line.
type CartItem struct {
	ID            uuid.UUID    `gorm:"column:id;type:uuid;primaryKey"`
	CartID        uuid.UUID    `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID     uuid.UUID    `gorm:"column:product_id;type:uuid;not null"`
	Product       Product      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	ProductSizeID *uuid.UUID   `gorm:"column:product_size_id;type:uuid"`
	ProductSize   *ProductSize `gorm:"foreignKey:ProductSizeID;constraint:OnDelete:CASCADE"`
	Quantity      int          `gorm:"column:quantity;not null;default:1"`
	CreatedAt     time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
