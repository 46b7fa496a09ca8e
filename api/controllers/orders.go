package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/urbancart/urbancart-backend/internal/orders"
	"github.com/urbancart/urbancart-backend/pkg/logger"
)

// OrderPlace checks out the caller's cart as a cash-on-delivery order.
func OrderPlace(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return serveCaller(logg, http.StatusCreated, "order", svc != nil, func(r *http.Request, userID uuid.UUID) (any, error) {
		shipping, err := decodeBody[orders.ShippingInput](r)
		if err != nil {
			return nil, err
		}
		return svc.PlaceCOD(r.Context(), userID, shipping)
	})
}

// PaymentCreateOrder opens a Razorpay order for the cart total plus the
// delivery fee. Nothing is written locally until the payment is verified.
func PaymentCreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return serveCaller(logg, http.StatusOK, "order", svc != nil, func(r *http.Request, userID uuid.UUID) (any, error) {
		shipping, err := decodeBody[orders.ShippingInput](r)
		if err != nil {
			return nil, err
		}
		return svc.CreateGatewayOrder(r.Context(), userID, shipping)
	})
}

func PaymentVerify(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return serveCaller(logg, http.StatusOK, "order", svc != nil, func(r *http.Request, userID uuid.UUID) (any, error) {
		req, err := decodeBody[orders.VerifyPaymentRequest](r)
		if err != nil {
			return nil, err
		}
		return svc.VerifyPayment(r.Context(), userID, req)
	})
}

// OrderDetail resolves {orderID} as either the order code or the Razorpay
// order id.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return serveCaller(logg, http.StatusOK, "order", svc != nil, func(r *http.Request, userID uuid.UUID) (any, error) {
		return svc.Detail(r.Context(), userID, pathParam(r, "orderID"))
	})
}

func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return serveCaller(logg, http.StatusOK, "order", svc != nil, func(r *http.Request, userID uuid.UUID) (any, error) {
		return svc.List(r.Context(), userID)
	})
}
