package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkgerrors "github.com/urbancart/urbancart-backend/pkg/errors"
)

type addItemBody struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1"`
}

func TestDecodeJSONBody(t *testing.T) {
	decode := func(body string) error {
		req := httptest.NewRequest(http.MethodPost, "/cart/add/", strings.NewReader(body))
		var dest addItemBody
		return DecodeJSONBody(req, &dest)
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, decode(`{"product_id":"3f6c1d2e-8a4b-4c1d-9e2f-0a1b2c3d4e5f","quantity":2}`))
	})

	t.Run("unknown field", func(t *testing.T) {
		err := decode(`{"product_id":"3f6c1d2e-8a4b-4c1d-9e2f-0a1b2c3d4e5f","colour":"red"}`)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	})

	t.Run("field details use json names", func(t *testing.T) {
		err := decode(`{"product_id":"nope","quantity":0}`)
		require.Error(t, err)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		details, ok := typed.Details().(map[string]string)
		require.True(t, ok)
		assert.Equal(t, "must be a valid id", details["product_id"])
	})

	t.Run("missing required", func(t *testing.T) {
		err := decode(`{}`)
		details := pkgerrors.As(err).Details().(map[string]string)
		assert.Equal(t, "is required", details["product_id"])
	})

	t.Run("message names the first field", func(t *testing.T) {
		err := decode(`{"product_id":"nope","quantity":0}`)
		assert.Equal(t, "product_id must be a valid id", pkgerrors.As(err).Message())
	})

	t.Run("empty body", func(t *testing.T) {
		err := decode(``)
		assert.Equal(t, "request body is required", pkgerrors.As(err).Message())
	})

	t.Run("trailing data", func(t *testing.T) {
		err := decode(`{"product_id":"3f6c1d2e-8a4b-4c1d-9e2f-0a1b2c3d4e5f"} {}`)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	})

	t.Run("wrong type", func(t *testing.T) {
		err := decode(`{"product_id":"3f6c1d2e-8a4b-4c1d-9e2f-0a1b2c3d4e5f","quantity":"two"}`)
		assert.Equal(t, "quantity must be of type int", pkgerrors.As(err).Message())
	})

	t.Run("oversized", func(t *testing.T) {
		err := decode(`{"product_id":"` + strings.Repeat("a", int(MaxBodyBytes)) + `"}`)
		assert.Contains(t, pkgerrors.As(err).Message(), "exceeds")
	})
}

func TestDecodeOptionalJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh/", nil)
	dest := addItemBody{Quantity: 3}
	require.NoError(t, DecodeOptionalJSONBody(req, &dest))
	assert.Equal(t, 3, dest.Quantity)
}
