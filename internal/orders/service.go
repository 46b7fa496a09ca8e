package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/urbancart/urbancart-backend/internal/cart"
	"github.com/urbancart/urbancart-backend/pkg/db"
	"github.com/urbancart/urbancart-backend/pkg/db/models"
	"github.com/urbancart/urbancart-backend/pkg/enums"
	pkgerrors "github.com/urbancart/urbancart-backend/pkg/errors"
	"github.com/urbancart/urbancart-backend/pkg/events"
	"github.com/urbancart/urbancart-backend/pkg/logger"
	"github.com/urbancart/urbancart-backend/pkg/metrics"
	"github.com/urbancart/urbancart-backend/pkg/razorpay"
	"gorm.io/gorm"
)

var (
	errCartEmpty     = pkgerrors.New(pkgerrors.CodeValidation, "Cart is empty")
	errOrderNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
	errReplay        = pkgerrors.New(pkgerrors.CodeStateConflict, "payment already processed")
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type orderNotifier interface {
	OrderPlaced(ctx context.Context, user *models.User, order *models.Order) error
}

// Service converts carts into orders and serves the buyer's order history.
type Service interface {
	PlaceCOD(ctx context.Context, userID uuid.UUID, shipping ShippingInput) (*Placed, error)
	CreateGatewayOrder(ctx context.Context, userID uuid.UUID, shipping ShippingInput) (*GatewayOrder, error)
	VerifyPayment(ctx context.Context, userID uuid.UUID, req VerifyPaymentRequest) (*PaymentResult, error)
	Detail(ctx context.Context, userID uuid.UUID, ref string) (*OrderView, error)
	List(ctx context.Context, userID uuid.UUID) ([]OrderView, error)
}

// ServiceParams groups the order service collaborators.
type ServiceParams struct {
	Repo        *Repository
	Carts       *cart.Repository
	Users       userLoader
	Tx          txRunner
	Gateway     razorpay.Gateway
	Notifier    orderNotifier
	Publisher   events.Publisher
	Metrics     *metrics.Metrics
	Logger      *logger.Logger
	Currency    string
	DeliveryFee int64
}

type service struct {
	repo        *Repository
	carts       *cart.Repository
	users       userLoader
	tx          txRunner
	gateway     razorpay.Gateway
	notifier    orderNotifier
	publisher   events.Publisher
	metrics     *metrics.Metrics
	logg        *logger.Logger
	currency    string
	deliveryFee int64
}

// NewService builds the order service.
func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if p.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if p.Users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if p.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if p.Publisher == nil {
		p.Publisher = events.Noop{}
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Currency == "" {
		p.Currency = "INR"
	}
	if p.DeliveryFee < 0 {
		return nil, fmt.Errorf("delivery fee must not be negative")
	}
	return &service{
		repo:        p.Repo,
		carts:       p.Carts,
		users:       p.Users,
		tx:          p.Tx,
		gateway:     p.Gateway,
		notifier:    p.Notifier,
		publisher:   p.Publisher,
		metrics:     p.Metrics,
		logg:        p.Logger,
		currency:    p.Currency,
		deliveryFee: p.DeliveryFee,
	}, nil
}

// PaymentVariant carries what differs between the two checkout paths.
type PaymentVariant struct {
	Method            enums.PaymentMethod
	Status            enums.PaymentStatus
	DeliveryFee       int64
	RazorpayOrderID   *string
	RazorpayPaymentID *string
	RazorpaySignature *string
}

func (s *service) PlaceCOD(ctx context.Context, userID uuid.UUID, shipping ShippingInput) (*Placed, error) {
	if _, err := s.cartTotals(ctx, userID); err != nil {
		return nil, err
	}
	if err := shipping.Validate(); err != nil {
		return nil, err
	}
	order, err := s.placeOrder(ctx, userID, shipping, PaymentVariant{
		Method: enums.PaymentMethodCOD,
		Status: enums.PaymentStatusPending,
	})
	if err != nil {
		return nil, err
	}
	if err := s.afterPlacement(ctx, userID, order); err != nil {
		return nil, err
	}
	return &Placed{Message: MsgOrderPlaced, OrderID: order.OrderCode}, nil
}

func (s *service) CreateGatewayOrder(ctx context.Context, userID uuid.UUID, shipping ShippingInput) (*GatewayOrder, error) {
	totals, err := s.cartTotals(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := shipping.Validate(); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	amount := totals.Price + s.deliveryFee
	receipt := "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
	remote, err := s.gateway.CreateOrder(ctx, amount*100, s.currency, receipt)
	if err != nil {
		s.logg.Error(ctx, "payment.create_order_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not create payment order")
	}

	return &GatewayOrder{
		RazorpayOrderID: remote.ID,
		Amount:          amount,
		AmountPaise:     amount * 100,
		Currency:        s.currency,
		Status:          remote.Status,
		Key:             s.gateway.KeyID(),
		Email:           user.Email,
		Name:            user.Username,
		Shipping:        shipping,
	}, nil
}

// VerifyPayment checks the gateway signature and, when valid, records the paid
// order. Nothing is written for an invalid signature.
func (s *service) VerifyPayment(ctx context.Context, userID uuid.UUID, req VerifyPaymentRequest) (*PaymentResult, error) {
	if err := req.ShippingInput.Missing(); err != nil {
		return nil, err
	}
	orderID := strings.TrimSpace(req.RazorpayOrderID)
	paymentID := strings.TrimSpace(req.RazorpayPaymentID)
	signature := strings.TrimSpace(req.RazorpaySignature)
	for _, f := range []struct{ name, value string }{
		{"razorpay_order_id", orderID},
		{"razorpay_payment_id", paymentID},
		{"razorpay_signature", signature},
	} {
		if f.value == "" {
			return nil, requiredError(f.name)
		}
	}

	check := s.gateway.VerifySignature(orderID, paymentID, signature)
	if !check.Valid {
		s.metrics.IncPaymentVerification("invalid")
		logCtx := s.logg.WithField(ctx, "razorpay_order_id", orderID)
		s.logg.Warn(logCtx, "payment.verify_failed")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Payment Verification Failed").WithDetails(map[string]string{
			"razorpay_order_id":   orderID,
			"razorpay_payment_id": paymentID,
			"signature":           signature,
			"generated_signature": check.Generated,
		})
	}
	s.metrics.IncPaymentVerification("valid")

	recorded, err := s.repo.PaymentRecorded(ctx, paymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check payment")
	}
	if recorded {
		return nil, errReplay
	}
	if err := req.ShippingInput.Validate(); err != nil {
		return nil, err
	}

	order, err := s.placeOrder(ctx, userID, req.ShippingInput, PaymentVariant{
		Method:            enums.PaymentMethodRazorpay,
		Status:            enums.PaymentStatusPaid,
		DeliveryFee:       s.deliveryFee,
		RazorpayOrderID:   &orderID,
		RazorpayPaymentID: &paymentID,
		RazorpaySignature: &signature,
	})
	if err != nil {
		return nil, err
	}
	if err := s.afterPlacement(ctx, userID, order); err != nil {
		return nil, err
	}
	return &PaymentResult{
		Message:           MsgPaymentSuccessful,
		OrderID:           order.OrderCode,
		RazorpayOrderID:   orderID,
		RazorpayPaymentID: paymentID,
	}, nil
}

// placeOrder snapshots the cart into an order, then empties the cart, all in
// one transaction.
func (s *service) placeOrder(ctx context.Context, userID uuid.UUID, shipping ShippingInput, variant PaymentVariant) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		c, err := carts.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		lines, err := carts.Items(ctx, c.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return errCartEmpty
		}

		order = &models.Order{
			OrderCode:         NewOrderCode(),
			UserID:            userID,
			Status:            enums.OrderStatusPending,
			PaymentStatus:     variant.Status,
			PaymentMethod:     variant.Method,
			RazorpayOrderID:   variant.RazorpayOrderID,
			RazorpayPaymentID: variant.RazorpayPaymentID,
			RazorpaySignature: variant.RazorpaySignature,
			ShippingName:      shipping.Name,
			ShippingPhone:     shipping.Phone,
			ShippingStreet:    shipping.Street,
			ShippingCity:      shipping.City,
			ShippingState:     shipping.State,
			ShippingPincode:   shipping.Pincode,
			Items:             make([]models.OrderItem, 0, len(lines)),
		}
		total := decimal.NewFromInt(variant.DeliveryFee)
		for _, line := range lines {
			productID := line.ProductID
			item := models.OrderItem{
				ProductID:   &productID,
				ProductName: line.Product.Name,
				Thumbnail:   line.Product.ThumbnailURL,
				SizeLabel:   cart.SizeLabel(line),
				Quantity:    line.Quantity,
				Price:       decimal.NewFromInt(line.Product.DiscountPrice),
			}
			total = total.Add(item.LineTotal())
			order.Items = append(order.Items, item)
		}
		order.TotalAmount = total

		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		return carts.Clear(ctx, c.ID)
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		if variant.RazorpayPaymentID != nil && db.IsUniqueViolation(err, "") && strings.Contains(err.Error(), "razorpay_payment_id") {
			return nil, errReplay
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "place order")
	}
	return order, nil
}

// afterPlacement runs the post-commit side effects. Only the confirmation
// email can fail the request; the order stays in place either way.
func (s *service) afterPlacement(ctx context.Context, userID uuid.UUID, order *models.Order) error {
	s.metrics.IncOrderPlaced(order.PaymentMethod.String())
	logCtx := s.logg.WithOrderID(s.logg.WithUserID(ctx, userID.String()), order.OrderCode)
	s.logg.Info(logCtx, "order.placed")

	err := s.publisher.Publish(ctx, order.OrderCode, events.TypeOrderPlaced, events.OrderPlaced{
		OrderID:       order.OrderCode,
		UserID:        userID.String(),
		PaymentMethod: order.PaymentMethod.String(),
		PaymentStatus: order.PaymentStatus.String(),
		TotalAmount:   order.TotalAmount.StringFixed(2),
		ItemCount:     len(order.Items),
	})
	if err != nil {
		s.logg.Error(logCtx, "events.publish_failed", err)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err == nil {
		err = s.notifier.OrderPlaced(ctx, user, order)
	}
	if err != nil {
		s.logg.Error(logCtx, "email.send_failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order placed but confirmation email failed").
			WithDetails(map[string]string{"order_id": order.OrderCode})
	}
	return nil
}

func (s *service) cartTotals(ctx context.Context, userID uuid.UUID) (cart.Totals, error) {
	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return cart.Totals{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	lines, err := s.carts.Items(ctx, c.ID)
	if err != nil {
		return cart.Totals{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
	}
	if len(lines) == 0 {
		return cart.Totals{}, errCartEmpty
	}
	return cart.ComputeTotals(lines), nil
}

func (s *service) Detail(ctx context.Context, userID uuid.UUID, ref string) (*OrderView, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errOrderNotFound
	}
	order, err := s.repo.FindForUser(ctx, userID, ref)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, errOrderNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	view := toView(order)
	return &view, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]OrderView, error) {
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	out := make([]OrderView, 0, len(rows))
	for i := range rows {
		out = append(out, toView(&rows[i]))
	}
	return out, nil
}
