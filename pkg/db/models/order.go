package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/urbancart/urbancart-backend/pkg/enums"
	"gorm.io/gorm"
)

// Order is an immutable purchase record. OrderCode is the public identifier.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderCode         string              `gorm:"column:order_id;not null;uniqueIndex"`
	UserID            uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	User              *User               `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Status            enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentMethod     enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	RazorpayOrderID   *string             `gorm:"column:razorpay_order_id;index"`
	RazorpayPaymentID *string             `gorm:"column:razorpay_payment_id;uniqueIndex"`
	RazorpaySignature *string             `gorm:"column:razorpay_signature"`
	TotalAmount       decimal.Decimal     `gorm:"column:total_amount;type:numeric(10,2);not null;default:0"`
	ShippingName      string              `gorm:"column:shipping_name;not null"`
	ShippingPhone     string              `gorm:"column:shipping_phone;not null"`
	ShippingStreet    string              `gorm:"column:shipping_street;not null"`
	ShippingCity      string              `gorm:"column:shipping_city;not null"`
	ShippingState     string              `gorm:"column:shipping_state;not null"`
	ShippingPincode   string              `gorm:"column:shipping_pincode;not null"`
	Items             []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	OrderDate         time.Time           `gorm:"column:order_date;autoCreateTime;index"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem snapshots a cart line at purchase time.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	ProductName string          `gorm:"column:product_name;not null"`
	Thumbnail   string          `gorm:"column:thumbnail;not null;default:''"`
	SizeLabel   *string         `gorm:"column:size_label"`
	Quantity    int             `gorm:"column:quantity;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// LineTotal is Price × Quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
