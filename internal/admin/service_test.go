package admin

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"github.com/urbancart/urbancart-backend/internal/orders"
	"github.com/urbancart/urbancart-backend/pkg/db"
	"github.com/urbancart/urbancart-backend/pkg/db/dbtest"
	"github.com/urbancart/urbancart-backend/pkg/db/models"
	"github.com/urbancart/urbancart-backend/pkg/enums"
	pkgerrors "github.com/urbancart/urbancart-backend/pkg/errors"
	"github.com/urbancart/urbancart-backend/pkg/events"
)

type statusCall struct {
	order string
	old   enums.OrderStatus
	next  enums.OrderStatus
}

type fakeNotifier struct {
	calls []statusCall
	err   error
}

func (n *fakeNotifier) OrderStatusChanged(_ context.Context, _ *models.User, order *models.Order, old enums.OrderStatus) error {
	n.calls = append(n.calls, statusCall{order: order.OrderCode, old: old, next: order.Status})
	return n.err
}

type recordingPublisher struct {
	payloads []any
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, _ events.Type, payload any) error {
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func setup(t *testing.T) (Service, *db.Client, *fakeNotifier, *recordingPublisher) {
	t.Helper()
	client := dbtest.New(t)
	notifier := &fakeNotifier{}
	publisher := &recordingPublisher{}
	svc, err := NewService(orders.NewRepository(client.DB()), client, notifier, publisher, nil)
	require.NoError(t, err)
	return svc, client, notifier, publisher
}

func seedOrder(t *testing.T, client *db.Client, user *models.User, code string, status enums.OrderStatus, total int64) *models.Order {
	t.Helper()
	size := "M"
	o := &models.Order{
		OrderCode: code, UserID: user.ID, Status: status,
		PaymentStatus: enums.PaymentStatusPending, PaymentMethod: enums.PaymentMethodCOD,
		TotalAmount: decimal.NewFromInt(total),
		ShippingName: "Asha Rao", ShippingPhone: "9876543210", ShippingStreet: "12 MG Road",
		ShippingCity: "Pune", ShippingState: "Maharashtra", ShippingPincode: "411001",
		Items: []models.OrderItem{
			{ProductName: "Linen Shirt", Thumbnail: "https://cdn.example.com/a.png", SizeLabel: &size, Quantity: 2, Price: decimal.NewFromInt(total / 2)},
		},
	}
	require.NoError(t, client.DB().Omit("User").Create(o).Error)
	return o
}

func seedUser(t *testing.T, client *db.Client) *models.User {
	t.Helper()
	u := &models.User{Username: "asha", Email: "asha@example.com", PasswordHash: "x"}
	require.NoError(t, client.DB().Create(u).Error)
	return u
}

func TestUpdateStatus(t *testing.T) {
	svc, client, notifier, publisher := setup(t)
	ctx := context.Background()
	user := seedUser(t, client)
	seedOrder(t, client, user, "UC0000000001", enums.OrderStatusPending, 1800)

	t.Run("invalid status", func(t *testing.T) {
		err := svc.UpdateStatus(ctx, "UC0000000001", "lost")
		require.Error(t, err)
		assert.Equal(t, "Invalid status", pkgerrors.As(err).Message())
	})

	t.Run("unknown order", func(t *testing.T) {
		err := svc.UpdateStatus(ctx, "UC9999999999", "shipped")
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	})

	t.Run("shipped", func(t *testing.T) {
		require.NoError(t, svc.UpdateStatus(ctx, "UC0000000001", "shipped"))
		require.Len(t, notifier.calls, 1)
		assert.Equal(t, statusCall{order: "UC0000000001", old: enums.OrderStatusPending, next: enums.OrderStatusShipped}, notifier.calls[0])
		require.Len(t, publisher.payloads, 1)
		assert.Equal(t, events.OrderStatusChanged{OrderID: "UC0000000001", OldStatus: "pending", NewStatus: "shipped"}, publisher.payloads[0])
	})

	t.Run("email failure keeps status", func(t *testing.T) {
		notifier.err = errors.New("smtp down")
		err := svc.UpdateStatus(ctx, "UC0000000001", "delivered")
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

		var stored models.Order
		require.NoError(t, client.DB().First(&stored, "order_id = ?", "UC0000000001").Error)
		assert.Equal(t, enums.OrderStatusDelivered, stored.Status)
	})
}

func TestStats(t *testing.T) {
	svc, client, _, _ := setup(t)
	ctx := context.Background()

	empty, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, DashboardStats{TotalSales: "0.00"}, *empty)

	user := seedUser(t, client)
	seedOrder(t, client, user, "UC0000000001", enums.OrderStatusPending, 1800)
	seedOrder(t, client, user, "UC0000000002", enums.OrderStatusPending, 900)
	seedOrder(t, client, user, "UC0000000003", enums.OrderStatusDelivered, 1846)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalOrders)
	assert.Equal(t, "4546.00", stats.TotalSales.String())
	assert.Equal(t, int64(2), stats.Pending)
	assert.Equal(t, int64(1), stats.Delivered)
	assert.Zero(t, stats.Shipped)
	assert.Zero(t, stats.Cancelled)
}

func TestListOrders(t *testing.T) {
	svc, client, _, _ := setup(t)
	user := seedUser(t, client)
	seedOrder(t, client, user, "UC0000000001", enums.OrderStatusPending, 1800)

	rows, err := svc.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "asha", row.Username)
	assert.Equal(t, "asha@example.com", row.Email)
	assert.Equal(t, "1800.00", row.TotalAmount)
	require.Len(t, row.Items, 1)
	assert.Equal(t, "900.00", row.Items[0].Price)
	assert.Equal(t, "1800.00", row.Items[0].LineTotal)
	assert.Regexp(t, `^\d{2}-\d{2}-\d{4} \d{2}:\d{2} (AM|PM)$`, row.Date)
}

func TestExport(t *testing.T) {
	svc, client, _, _ := setup(t)
	user := seedUser(t, client)
	seedOrder(t, client, user, "UC0000000001", enums.OrderStatusPending, 1800)
	seedOrder(t, client, user, "UC0000000002", enums.OrderStatusShipped, 600)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), &buf))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	sheet := file.Sheets[0]
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "Order ID", sheet.Rows[0].Cells[0].Value)

	codes := []string{sheet.Rows[1].Cells[0].Value, sheet.Rows[2].Cells[0].Value}
	assert.ElementsMatch(t, []string{"UC0000000001", "UC0000000002"}, codes)
	assert.Equal(t, "Linen Shirt", sheet.Rows[1].Cells[7].Value)
	assert.Equal(t, "M", sheet.Rows[1].Cells[8].Value)
}
