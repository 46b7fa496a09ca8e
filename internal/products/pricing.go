package products

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ComputeDiscountPrice applies percentage to original and truncates the
// resulting price to whole rupees. Percentages outside 0..100 are clamped.
func ComputeDiscountPrice(original int64, percentage int) int64 {
	if percentage <= 0 {
		return original
	}
	if percentage > 100 {
		percentage = 100
	}
	return original * int64(100-percentage) / 100
}

// Slugify folds name to ASCII, drops punctuation and joins the remaining
// words with hyphens: "Men's Café Tee" becomes "mens-cafe-tee".
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range norm.NFKD.String(strings.ToLower(name)) {
		switch {
		case r > unicode.MaxASCII:
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingDash = true
		}
	}
	return strings.Trim(b.String(), "-_")
}

// nextFreeSlug returns base when unused, otherwise the first base-N not in taken.
func nextFreeSlug(base string, taken map[string]struct{}) string {
	if _, ok := taken[base]; !ok {
		return base
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}
