package razorpay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbancart/urbancart-backend/pkg/config"
)

type fakeOrders struct {
	got  map[string]interface{}
	resp map[string]interface{}
	err  error
}

func (f *fakeOrders) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	f.got = data
	return f.resp, f.err
}

func TestVerifySignatureUsesSDK(t *testing.T) {
	c := New(config.RazorpayConfig{KeyID: "rzp_test", KeySecret: "shh"}, nil)

	sig := Sign("shh", "order_1", "pay_1")
	res := c.VerifySignature("order_1", "pay_1", sig)
	assert.True(t, res.Valid)
	assert.Equal(t, sig, res.Generated)

	res = c.VerifySignature("order_1", "pay_1", "deadbeef")
	assert.False(t, res.Valid)
	assert.Equal(t, sig, res.Generated)
}

func TestVerifySignatureFallsBackWhenSDKPanics(t *testing.T) {
	c := New(config.RazorpayConfig{KeySecret: "shh"}, nil)
	c.verify = func(map[string]interface{}, string, string) bool { panic("boom") }

	assert.True(t, c.VerifySignature("o", "p", Sign("shh", "o", "p")).Valid)
	assert.False(t, c.VerifySignature("o", "p", "nope").Valid)
}

func TestVerifySignatureWithoutSecret(t *testing.T) {
	c := New(config.RazorpayConfig{}, nil)
	assert.False(t, c.VerifySignature("o", "p", Sign("", "o", "p")).Valid)
}

func TestCreateOrder(t *testing.T) {
	fake := &fakeOrders{resp: map[string]interface{}{
		"id":       "order_abc",
		"amount":   float64(184500),
		"currency": "INR",
		"receipt":  "rcpt_1",
		"status":   "created",
	}}
	c := New(config.RazorpayConfig{}, nil)
	c.orders = fake

	order, err := c.CreateOrder(context.Background(), 184500, "INR", "rcpt_1")
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.EqualValues(t, 184500, order.Amount)
	assert.Equal(t, "created", order.Status)
	assert.EqualValues(t, 184500, fake.got["amount"])
	assert.Equal(t, "rcpt_1", fake.got["receipt"])
}

func TestCreateOrderErrors(t *testing.T) {
	c := New(config.RazorpayConfig{}, nil)
	_, err := c.CreateOrder(context.Background(), 100, "INR", "r")
	assert.ErrorIs(t, err, ErrNotConfigured)

	c.orders = &fakeOrders{err: errors.New("bad request")}
	_, err = c.CreateOrder(context.Background(), 100, "INR", "r")
	assert.Error(t, err)

	c.orders = &fakeOrders{resp: map[string]interface{}{}}
	_, err = c.CreateOrder(context.Background(), 100, "INR", "r")
	assert.Error(t, err)

	_, err = c.CreateOrder(context.Background(), 0, "INR", "r")
	assert.Error(t, err)
}
