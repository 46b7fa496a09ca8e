package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urbancart/urbancart-backend/internal/orders"
	"github.com/urbancart/urbancart-backend/pkg/db"
	"github.com/urbancart/urbancart-backend/pkg/db/models"
	"github.com/urbancart/urbancart-backend/pkg/enums"
	pkgerrors "github.com/urbancart/urbancart-backend/pkg/errors"
	"github.com/urbancart/urbancart-backend/pkg/events"
	"github.com/urbancart/urbancart-backend/pkg/logger"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type statusNotifier interface {
	OrderStatusChanged(ctx context.Context, user *models.User, order *models.Order, old enums.OrderStatus) error
}

// Service exposes the superuser order operations.
type Service interface {
	ListOrders(ctx context.Context) ([]OrderRow, error)
	UpdateStatus(ctx context.Context, orderCode, status string) error
	Stats(ctx context.Context) (*DashboardStats, error)
	Export(ctx context.Context, w io.Writer) error
}

type service struct {
	repo      *orders.Repository
	tx        txRunner
	notifier  statusNotifier
	publisher events.Publisher
	logg      *logger.Logger
}

// NewService builds the admin service.
func NewService(repo *orders.Repository, tx txRunner, notifier statusNotifier, publisher events.Publisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, notifier: notifier, publisher: publisher, logg: logg}, nil
}

func (s *service) ListOrders(ctx context.Context) ([]OrderRow, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	out := make([]OrderRow, 0, len(rows))
	for i := range rows {
		out = append(out, toRow(&rows[i]))
	}
	return out, nil
}

// UpdateStatus moves an order to status and emails the buyer. A failed email
// is reported but the new status is kept.
func (s *service) UpdateStatus(ctx context.Context, orderCode, status string) error {
	next, err := enums.ParseOrderStatus(strings.TrimSpace(status))
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "Invalid status")
	}
	orderCode = strings.TrimSpace(orderCode)

	var (
		order *models.Order
		prev  enums.OrderStatus
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.FindByCodeForUpdate(ctx, orderCode)
		if err != nil {
			return err
		}
		prev = found.Status
		if err := repo.UpdateStatus(ctx, found.ID, next); err != nil {
			return err
		}
		found.Status = next
		order = found
		return nil
	})
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}

	logCtx := s.logg.WithOrderID(ctx, order.OrderCode)
	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{"old_status": prev.String(), "new_status": next.String()}), "order.status_changed")

	err = s.publisher.Publish(ctx, order.OrderCode, events.TypeOrderStatusChanged, events.OrderStatusChanged{
		OrderID:   order.OrderCode,
		OldStatus: prev.String(),
		NewStatus: next.String(),
	})
	if err != nil {
		s.logg.Error(logCtx, "events.publish_failed", err)
	}

	if order.User == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "order has no buyer")
	}
	if err := s.notifier.OrderStatusChanged(ctx, order.User, order, prev); err != nil {
		s.logg.Error(logCtx, "email.send_failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "status updated but notification email failed")
	}
	return nil
}

func (s *service) Stats(ctx context.Context) (*DashboardStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load dashboard stats")
	}
	return &DashboardStats{
		TotalOrders: stats.TotalOrders,
		TotalSales:  json.Number(stats.TotalSales.StringFixed(2)),
		Pending:     stats.ByStatus[enums.OrderStatusPending],
		Shipped:     stats.ByStatus[enums.OrderStatusShipped],
		Delivered:   stats.ByStatus[enums.OrderStatusDelivered],
		Cancelled:   stats.ByStatus[enums.OrderStatusCancelled],
	}, nil
}
