package admin

import (
	"encoding/json"

	"github.com/urbancart/urbancart-backend/internal/notifications"
	"github.com/urbancart/urbancart-backend/internal/orders"
	"github.com/urbancart/urbancart-backend/pkg/db/models"
)

const MsgStatusUpdated = "Order status updated successfully"

// UpdateStatusRequest is the payload for POST /admin/updateOrderStatus/.
type UpdateStatusRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	Status  string `json:"status" validate:"required"`
}

// OrderRow is one entry of the admin order list.
type OrderRow struct {
	OrderID       string            `json:"order_id"`
	Username      string            `json:"username"`
	Email         string            `json:"email"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	PaymentMethod string            `json:"payment_method"`
	Items         []orders.ItemView `json:"items"`
	TotalAmount   string            `json:"total_amount"`
	Date          string            `json:"date"`
}

// DashboardStats are the counts shown on the admin dashboard.
type DashboardStats struct {
	TotalOrders int64       `json:"total_orders"`
	TotalSales  json.Number `json:"total_sales"`
	Pending     int64       `json:"pending"`
	Shipped     int64       `json:"shipped"`
	Delivered   int64       `json:"delivered"`
	Cancelled   int64       `json:"cancelled"`
}

func toRow(o *models.Order) OrderRow {
	row := OrderRow{
		OrderID:       o.OrderCode,
		Status:        o.Status.String(),
		PaymentStatus: o.PaymentStatus.String(),
		PaymentMethod: o.PaymentMethod.String(),
		Items:         orders.ToItemViews(o.Items),
		TotalAmount:   o.TotalAmount.StringFixed(2),
		Date:          notifications.FormatDate(o.OrderDate),
	}
	if o.User != nil {
		row.Username = o.User.Username
		row.Email = o.User.Email
	}
	return row
}
