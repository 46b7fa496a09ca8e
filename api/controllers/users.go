package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/urbancart/urbancart-backend/internal/users"
	"github.com/urbancart/urbancart-backend/pkg/logger"
)

// CurrentUser returns the caller's profile.
func CurrentUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return serveCaller(logg, http.StatusOK, "users", svc != nil, func(r *http.Request, userID uuid.UUID) (any, error) {
		return svc.Get(r.Context(), userID)
	})
}

// EditProfile applies the fields present in the body and returns the
// updated profile.
func EditProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return serveCaller(logg, http.StatusOK, "users", svc != nil, func(r *http.Request, userID uuid.UUID) (any, error) {
		patch, err := decodeBody[users.ProfilePatch](r)
		if err != nil {
			return nil, err
		}
		return svc.Edit(r.Context(), userID, patch)
	})
}
