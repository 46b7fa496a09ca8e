package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/urbancart/urbancart-backend/internal/cart"
	"github.com/urbancart/urbancart-backend/pkg/logger"
)

const itemNotFound = "Item not found"

// CartAdd adds a product line, or bumps the quantity of a matching one.
func CartAdd(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return serveCaller(logg, http.StatusOK, "cart", svc != nil, func(r *http.Request, userID uuid.UUID) (any, error) {
		body, err := decodeBody[cart.AddItemRequest](r)
		if err != nil {
			return nil, err
		}
		if err := svc.AddItem(r.Context(), userID, body.Input()); err != nil {
			return nil, err
		}
		return message(cart.MsgAdded), nil
	})
}

func CartView(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return serveCaller(logg, http.StatusOK, "cart", svc != nil, func(r *http.Request, userID uuid.UUID) (any, error) {
		return svc.View(r.Context(), userID)
	})
}

func CartUpdateQuantity(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return serveCaller(logg, http.StatusOK, "cart", svc != nil, func(r *http.Request, userID uuid.UUID) (any, error) {
		itemID, err := uuidParam(r, "itemID", itemNotFound)
		if err != nil {
			return nil, err
		}
		body, err := decodeBody[cart.UpdateQuantityRequest](r)
		if err != nil {
			return nil, err
		}
		if err := svc.UpdateQuantity(r.Context(), userID, itemID, body.Quantity); err != nil {
			return nil, err
		}
		return message(cart.MsgQuantityUpdated), nil
	})
}

func CartRemove(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return serveCaller(logg, http.StatusOK, "cart", svc != nil, func(r *http.Request, userID uuid.UUID) (any, error) {
		itemID, err := uuidParam(r, "itemID", itemNotFound)
		if err != nil {
			return nil, err
		}
		if err := svc.RemoveItem(r.Context(), userID, itemID); err != nil {
			return nil, err
		}
		return message(cart.MsgRemoved), nil
	})
}

func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return serveCaller(logg, http.StatusOK, "cart", svc != nil, func(r *http.Request, userID uuid.UUID) (any, error) {
		if err := svc.Clear(r.Context(), userID); err != nil {
			return nil, err
		}
		return message(cart.MsgCleared), nil
	})
}
