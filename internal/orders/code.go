package orders

import (
	"crypto/rand"
	"math/big"
)

const (
	orderCodePrefix   = "UC"
	orderCodeLength   = 10
	orderCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewOrderCode returns a public order identifier: "UC" followed by ten
// uppercase alphanumerics.
func NewOrderCode() string {
	buf := make([]byte, orderCodeLength)
	max := big.NewInt(int64(len(orderCodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("orders: crypto/rand unavailable: " + err.Error())
		}
		buf[i] = orderCodeAlphabet[n.Int64()]
	}
	return orderCodePrefix + string(buf)
}
