package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeString(t *testing.T) {
	cases := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "trims", in: "  Linen Shirt \n", max: 0, want: "Linen Shirt"},
		{name: "drops control characters", in: "Linen\x00 Shirt\x1b", max: 0, want: "Linen Shirt"},
		{name: "truncates", in: "abcdef", max: 3, want: "abc"},
		{name: "keeps whole runes", in: "kurtā", max: 5, want: "kurt"},
		{name: "short input untouched", in: "ok", max: 10, want: "ok"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeString(tc.in, tc.max))
		})
	}
}
