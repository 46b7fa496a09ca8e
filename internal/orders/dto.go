package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/urbancart/urbancart-backend/internal/notifications"
	"github.com/urbancart/urbancart-backend/pkg/db/models"
)

const (
	MsgOrderPlaced       = "Order placed"
	MsgPaymentSuccessful = "Payment Successful"
)

// VerifyPaymentRequest is the payload for POST /payment/verify/.
type VerifyPaymentRequest struct {
	ShippingInput
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// Placed is returned after a cash-on-delivery checkout.
type Placed struct {
	Message string `json:"message"`
	OrderID string `json:"order_id"`
}

// PaymentResult is returned after a verified gateway payment.
type PaymentResult struct {
	Message           string `json:"message"`
	OrderID           string `json:"order_id"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
}

// GatewayOrder is what the client needs to open the payment popup.
type GatewayOrder struct {
	RazorpayOrderID string        `json:"razorpay_order_id"`
	Amount          int64         `json:"amount"`
	AmountPaise     int64         `json:"amount_paise"`
	Currency        string        `json:"currency"`
	Status          string        `json:"status"`
	Key             string        `json:"key"`
	Email           string        `json:"email"`
	Name            string        `json:"name"`
	Shipping        ShippingInput `json:"shipping"`
}

// OrderView is the buyer-facing order.
type OrderView struct {
	OrderID           string        `json:"order_id"`
	Status            string        `json:"status"`
	PaymentStatus     string        `json:"payment_status"`
	PaymentMethod     string        `json:"payment_method"`
	RazorpayOrderID   *string       `json:"razorpay_order_id"`
	RazorpayPaymentID *string       `json:"razorpay_payment_id"`
	TotalAmount       string        `json:"total_amount"`
	OrderDate         time.Time     `json:"order_date"`
	Date              string        `json:"date"`
	Shipping          ShippingInput `json:"shipping"`
	Items             []ItemView    `json:"items"`
}

// ItemView is one purchased line.
type ItemView struct {
	ProductID   *uuid.UUID `json:"product_id"`
	ProductName string     `json:"product_name"`
	Thumbnail   string     `json:"thumbnail"`
	Size        *string    `json:"size"`
	Quantity    int        `json:"quantity"`
	Price       string     `json:"price"`
	LineTotal   string     `json:"line_total"`
}

// ToItemViews maps order items for responses.
func ToItemViews(items []models.OrderItem) []ItemView {
	out := make([]ItemView, 0, len(items))
	for _, item := range items {
		out = append(out, ItemView{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Thumbnail:   item.Thumbnail,
			Size:        item.SizeLabel,
			Quantity:    item.Quantity,
			Price:       item.Price.StringFixed(2),
			LineTotal:   item.LineTotal().StringFixed(2),
		})
	}
	return out
}

func toView(o *models.Order) OrderView {
	return OrderView{
		OrderID:           o.OrderCode,
		Status:            o.Status.String(),
		PaymentStatus:     o.PaymentStatus.String(),
		PaymentMethod:     o.PaymentMethod.String(),
		RazorpayOrderID:   o.RazorpayOrderID,
		RazorpayPaymentID: o.RazorpayPaymentID,
		TotalAmount:       o.TotalAmount.StringFixed(2),
		OrderDate:         o.OrderDate,
		Date:              notifications.FormatDate(o.OrderDate),
		Shipping: ShippingInput{
			Name:    o.ShippingName,
			Phone:   o.ShippingPhone,
			Street:  o.ShippingStreet,
			City:    o.ShippingCity,
			State:   o.ShippingState,
			Pincode: o.ShippingPincode,
		},
		Items: ToItemViews(o.Items),
	}
}
