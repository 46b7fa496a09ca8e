package admin

import (
	"context"
	"io"

	"github.com/tealeg/xlsx"
	"github.com/urbancart/urbancart-backend/internal/notifications"
	"github.com/urbancart/urbancart-backend/pkg/db/models"
	pkgerrors "github.com/urbancart/urbancart-backend/pkg/errors"
)

const (
	ExportFileName    = "orders.xlsx"
	ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var exportHeaders = []string{
	"Order ID", "Date", "Username", "Email", "Status", "Payment Status", "Payment Method",
	"Product", "Size", "Quantity", "Price", "Line Total", "Order Total",
	"Ship To", "Phone", "Street", "City", "State", "Pincode",
}

// Export writes every order line to an .xlsx workbook, newest order first.
func (s *service) Export(ctx context.Context, w io.Writer) error {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	file, err := buildWorkbook(rows)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build workbook")
	}
	if err := file.Write(w); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write workbook")
	}
	return nil
}

func buildWorkbook(rows []models.Order) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, err
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetString(h)
	}

	for i := range rows {
		o := &rows[i]
		var username, email string
		if o.User != nil {
			username, email = o.User.Username, o.User.Email
		}
		for _, item := range o.Items {
			row := sheet.AddRow()
			row.AddCell().SetString(o.OrderCode)
			row.AddCell().SetString(notifications.FormatDate(o.OrderDate))
			row.AddCell().SetString(username)
			row.AddCell().SetString(email)
			row.AddCell().SetString(o.Status.String())
			row.AddCell().SetString(o.PaymentStatus.String())
			row.AddCell().SetString(o.PaymentMethod.String())
			row.AddCell().SetString(item.ProductName)
			size := ""
			if item.SizeLabel != nil {
				size = *item.SizeLabel
			}
			row.AddCell().SetString(size)
			row.AddCell().SetInt(item.Quantity)
			row.AddCell().SetString(item.Price.StringFixed(2))
			row.AddCell().SetString(item.LineTotal().StringFixed(2))
			row.AddCell().SetString(o.TotalAmount.StringFixed(2))
			row.AddCell().SetString(o.ShippingName)
			row.AddCell().SetString(o.ShippingPhone)
			row.AddCell().SetString(o.ShippingStreet)
			row.AddCell().SetString(o.ShippingCity)
			row.AddCell().SetString(o.ShippingState)
			row.AddCell().SetString(o.ShippingPincode)
		}
	}
	return file, nil
}
