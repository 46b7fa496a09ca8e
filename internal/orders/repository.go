package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/urbancart/urbancart-backend/pkg/db/models"
	"github.com/urbancart/urbancart-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists orders and answers the buyer and admin order queries.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC").Order("id ASC")
	})
}

// Create inserts the order together with its items.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("User").Create(order).Error
}

// PaymentRecorded reports whether an order already carries paymentID.
func (r *Repository) PaymentRecorded(ctx context.Context, paymentID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("razorpay_payment_id = ?", paymentID).
		Count(&n).Error
	return n > 0, err
}

// FindForUser loads the user's order whose public code or gateway order id
// equals ref.
func (r *Repository) FindForUser(ctx context.Context, userID uuid.UUID, ref string) (*models.Order, error) {
	var order models.Order
	err := withItems(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Where("order_id = ? OR razorpay_order_id = ?", ref, ref).
		Order("order_date DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListForUser returns the user's orders, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := withItems(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("order_date DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// ListAll returns every order with its buyer, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]models.Order, error) {
	var rows []models.Order
	err := withItems(r.db.WithContext(ctx)).
		Preload("User").
		Order("order_date DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// FindByCodeForUpdate loads an order by public code with its buyer, locking
// the row where the dialect supports it.
func (r *Repository) FindByCodeForUpdate(ctx context.Context, code string) (*models.Order, error) {
	var order models.Order
	q := withItems(r.db.WithContext(ctx)).Preload("User")
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: clause.CurrentTable}})
	}
	if err := q.Where("order_id = ?", code).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus sets the fulfilment status of the order.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Stats are the admin dashboard aggregates.
type Stats struct {
	TotalOrders int64
	TotalSales  decimal.Decimal
	ByStatus    map[enums.OrderStatus]int64
}

// Stats counts orders per status and sums total_amount over all orders.
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	db := r.db.WithContext(ctx)
	stats := &Stats{TotalSales: decimal.Zero, ByStatus: map[enums.OrderStatus]int64{}}

	var rows []struct {
		Status enums.OrderStatus
		Count  int64
	}
	if err := db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.TotalOrders += row.Count
	}

	var total decimal.NullDecimal
	row := db.Model(&models.Order{}).Select("SUM(total_amount)").Row()
	if err := row.Scan(&total); err != nil {
		return nil, err
	}
	if total.Valid {
		stats.TotalSales = total.Decimal
	}
	return stats, nil
}
