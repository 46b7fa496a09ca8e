package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/urbancart/urbancart-backend/api/middleware"
	"github.com/urbancart/urbancart-backend/api/responses"
	"github.com/urbancart/urbancart-backend/api/validators"
	pkgerrors "github.com/urbancart/urbancart-backend/pkg/errors"
	"github.com/urbancart/urbancart-backend/pkg/logger"
)

// endpoint produces the payload of a success envelope.
type endpoint func(r *http.Request) (any, error)

// callerEndpoint is an endpoint acting for the signed-in user.
type callerEndpoint func(r *http.Request, userID uuid.UUID) (any, error)

// serve adapts fn to a handler answering with status on success. ready is
// false when the backing service was not wired.
func serve(logg *logger.Logger, status int, service string, ready bool, fn endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ready {
			responses.WriteError(r.Context(), logg, w, unavailable(service))
			return
		}
		data, err := fn(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, data)
	}
}

func serveCaller(logg *logger.Logger, status int, service string, ready bool, fn callerEndpoint) http.HandlerFunc {
	return serve(logg, status, service, ready, func(r *http.Request) (any, error) {
		userID, err := requireUser(r)
		if err != nil {
			return nil, err
		}
		return fn(r, userID)
	})
}

func decodeBody[T any](r *http.Request) (T, error) {
	var body T
	err := validators.DecodeJSONBody(r, &body)
	return body, err
}

func message(text string) responses.Message {
	return responses.Message{Message: text}
}

func requireUser(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return id, nil
}

// uuidParam treats a malformed id like a missing row.
func uuidParam(r *http.Request, name, notFound string) (uuid.UUID, error) {
	id, err := uuid.Parse(pathParam(r, name))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return id, nil
}

func pathParam(r *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(r, name))
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}
