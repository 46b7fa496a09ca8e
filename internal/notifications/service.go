// Package notifications composes and sends the transactional emails.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/urbancart/urbancart-backend/pkg/db/models"
	"github.com/urbancart/urbancart-backend/pkg/enums"
	"github.com/urbancart/urbancart-backend/pkg/logger"
	"github.com/urbancart/urbancart-backend/pkg/mailer"
	"github.com/urbancart/urbancart-backend/pkg/metrics"
)

const (
	SubjectOrderPlaced   = "Order placed successfully, Thank you."
	SubjectOrderStatus   = "Order Status"
	SubjectPasswordReset = "Reset your Urbancart password"

	// DateLayout renders order dates as dd-mm-yyyy hh:mm AM/PM.
	DateLayout = "02-01-2006 03:04 PM"
)

var ist = time.FixedZone("IST", 5*60*60+30*60)

// FormatDate renders t in Indian Standard Time.
func FormatDate(t time.Time) string {
	return t.In(ist).Format(DateLayout)
}

// Notifier sends the order and account emails.
type Notifier interface {
	OrderPlaced(ctx context.Context, user *models.User, order *models.Order) error
	OrderStatusChanged(ctx context.Context, user *models.User, order *models.Order, old enums.OrderStatus) error
	PasswordReset(ctx context.Context, user *models.User, link string, ttl time.Duration) error
}

type service struct {
	sender  mailer.Sender
	metrics *metrics.Metrics
	logg    *logger.Logger
	siteURL string
}

// NewService wires a notifier around sender.
func NewService(sender mailer.Sender, m *metrics.Metrics, logg *logger.Logger, siteURL string) (Notifier, error) {
	if sender == nil {
		return nil, errors.New("mail sender is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		sender:  sender,
		metrics: m,
		logg:    logg,
		siteURL: strings.TrimRight(siteURL, "/"),
	}, nil
}

func (s *service) OrderPlaced(ctx context.Context, user *models.User, order *models.Order) error {
	return s.send(ctx, user, mailer.TemplateOrderConfirmation, SubjectOrderPlaced, map[string]string{
		"USER_NAME":        html.EscapeString(user.Username),
		"ORDER_ID":         order.OrderCode,
		"ORDER_DATE":       FormatDate(order.OrderDate),
		"PAYMENT_METHOD":   order.PaymentMethod.String(),
		"TOTAL_AMOUNT":     order.TotalAmount.StringFixed(2),
		"ORDER_ITEMS_LOOP": itemsHTML(order.Items),
	})
}

func (s *service) OrderStatusChanged(ctx context.Context, user *models.User, order *models.Order, old enums.OrderStatus) error {
	return s.send(ctx, user, mailer.TemplateOrderStatus, SubjectOrderStatus, map[string]string{
		"USER_NAME":    html.EscapeString(user.Username),
		"ORDER_ID":     order.OrderCode,
		"OLD_STATUS":   old.String(),
		"NEW_STATUS":   order.Status.String(),
		"ORDER_DATE":   FormatDate(order.OrderDate),
		"TRACKING_URL": s.TrackingURL(order.OrderCode),
	})
}

func (s *service) PasswordReset(ctx context.Context, user *models.User, link string, ttl time.Duration) error {
	return s.send(ctx, user, mailer.TemplatePasswordReset, SubjectPasswordReset, map[string]string{
		"USER_NAME":      html.EscapeString(user.Username),
		"RESET_LINK":     link,
		"EXPIRY_MINUTES": strconv.Itoa(int(ttl.Minutes())),
	})
}

// TrackingURL is the customer-facing tracking page of an order.
func (s *service) TrackingURL(orderCode string) string {
	return fmt.Sprintf("%s/track/%s", s.siteURL, orderCode)
}

func (s *service) send(ctx context.Context, user *models.User, template, subject string, tokens map[string]string) error {
	body, err := mailer.Render(template, tokens)
	if err != nil {
		s.metrics.IncEmail(template, err)
		return err
	}
	err = s.sender.Send(ctx, mailer.Message{To: user.Email, Subject: subject, HTML: body})
	s.metrics.IncEmail(template, err)
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "template", template), "email.send_failed", err)
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "template", template), "email.sent")
	return nil
}

func itemsHTML(items []models.OrderItem) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, `
<table width="100%%" cellpadding="0" cellspacing="0" style="margin-top:15px;">
  <tr>
    <td width="90" valign="top" style="padding:0 10px 10px 0;">
      <img src="%s" width="80" height="80" style="border-radius:8px; object-fit:cover; display:block;">
    </td>
    <td valign="top" style="padding-bottom:10px;">
      <p style="margin:0; font-size:15px; font-weight:600; color:#222;">%s</p>
      <p style="margin:4px 0 0; font-size:14px; color:#555;">
        Qty: %d<br>
        Price: &#8377;%s<br>
        <strong>Line Total:</strong> &#8377;%s
      </p>
    </td>
  </tr>
  <tr><td colspan="2" style="border-bottom:1px solid #eee; padding-top:8px;"></td></tr>
</table>`,
			html.EscapeString(item.Thumbnail),
			html.EscapeString(item.ProductName),
			item.Quantity,
			item.Price.StringFixed(2),
			item.LineTotal().StringFixed(2),
		)
	}
	return b.String()
}
