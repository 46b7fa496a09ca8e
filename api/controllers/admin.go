package controllers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/urbancart/urbancart-backend/api/responses"
	"github.com/urbancart/urbancart-backend/internal/admin"
	"github.com/urbancart/urbancart-backend/internal/products"
	"github.com/urbancart/urbancart-backend/pkg/logger"
)

const productNotFound = "Product not found"

type productUpdated struct {
	Message string                  `json:"message"`
	Product *products.ProductDetail `json:"product"`
}

type orderList struct {
	Orders []admin.OrderRow `json:"orders"`
}

// The dashboard nests its counters under "message".
type dashboardStats struct {
	Message *admin.DashboardStats `json:"message"`
}

// AdminCreateProduct handles the multipart product form.
func AdminCreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, http.StatusCreated, "product", svc != nil, func(r *http.Request) (any, error) {
		form, err := parseProductForm(r)
		if err != nil {
			return nil, err
		}
		defer form.Close()
		return svc.Create(r.Context(), form.createInput())
	})
}

// AdminEditProduct only touches the fields and files present in the form.
func AdminEditProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, http.StatusOK, "product", svc != nil, func(r *http.Request) (any, error) {
		id, err := uuidParam(r, "productID", productNotFound)
		if err != nil {
			return nil, err
		}
		form, err := parseProductForm(r)
		if err != nil {
			return nil, err
		}
		defer form.Close()

		product, err := svc.Update(r.Context(), id, form.updateInput())
		if err != nil {
			return nil, err
		}
		return productUpdated{Message: products.MsgProductUpdated, Product: product}, nil
	})
}

func AdminDeleteProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, http.StatusOK, "product", svc != nil, func(r *http.Request) (any, error) {
		id, err := uuidParam(r, "productID", productNotFound)
		if err != nil {
			return nil, err
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			return nil, err
		}
		return message(products.MsgProductDeleted), nil
	})
}

func AdminCreateSize(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, http.StatusCreated, "product", svc != nil, func(r *http.Request) (any, error) {
		body, err := decodeBody[products.CreateSizeRequest](r)
		if err != nil {
			return nil, err
		}
		return svc.CreateSize(r.Context(), body.Label)
	})
}

func AdminOrderList(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, http.StatusOK, "admin", svc != nil, func(r *http.Request) (any, error) {
		rows, err := svc.ListOrders(r.Context())
		if err != nil {
			return nil, err
		}
		return orderList{Orders: rows}, nil
	})
}

// AdminOrderExport sends the orders workbook as an attachment. It is
// buffered first so a failure can still be reported as JSON.
func AdminOrderExport(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("admin"))
			return
		}

		var buf bytes.Buffer
		if err := svc.Export(r.Context(), &buf); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		h := w.Header()
		h.Set("Content-Type", admin.ExportContentType)
		h.Set("Content-Disposition", `attachment; filename="`+admin.ExportFileName+`"`)
		h.Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil && logg != nil {
			logg.Error(r.Context(), "admin.export_write_failed", err)
		}
	}
}

// AdminUpdateOrderStatus reports a failed buyer email as an error even
// though the new status has been saved.
func AdminUpdateOrderStatus(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, http.StatusOK, "admin", svc != nil, func(r *http.Request) (any, error) {
		body, err := decodeBody[admin.UpdateStatusRequest](r)
		if err != nil {
			return nil, err
		}
		if err := svc.UpdateStatus(r.Context(), body.OrderID, body.Status); err != nil {
			return nil, err
		}
		return message(admin.MsgStatusUpdated), nil
	})
}

func AdminDashboardStats(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, http.StatusOK, "admin", svc != nil, func(r *http.Request) (any, error) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			return nil, err
		}
		return dashboardStats{Message: stats}, nil
	})
}
