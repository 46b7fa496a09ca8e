package orders

import (
	"regexp"
	"strings"

	pkgerrors "github.com/urbancart/urbancart-backend/pkg/errors"
)

// ShippingInput is the delivery address posted with every checkout call.
type ShippingInput struct {
	Name    string `json:"shipping_name"`
	Phone   string `json:"shipping_phone"`
	Street  string `json:"shipping_street"`
	City    string `json:"shipping_city"`
	State   string `json:"shipping_state"`
	Pincode string `json:"shipping_pincode"`
}

type shippingRule struct {
	value   func(*ShippingInput) *string
	pattern *regexp.Regexp
	message string
}

// Checked in order; the first failure wins.
var shippingRules = []shippingRule{
	{func(s *ShippingInput) *string { return &s.Name }, regexp.MustCompile(`^[A-Za-z\s]{3,50}$`), "Invalid name format"},
	{func(s *ShippingInput) *string { return &s.Phone }, regexp.MustCompile(`^[0-9]\d{9}$`), "Phone must be 10 digits"},
	{func(s *ShippingInput) *string { return &s.Street }, regexp.MustCompile(`^[A-Za-z0-9\s,./:\-]{5,100}$`), "Invalid street address"},
	{func(s *ShippingInput) *string { return &s.City }, regexp.MustCompile(`^[A-Za-z\s]{2,50}$`), "Invalid city name"},
	{func(s *ShippingInput) *string { return &s.State }, regexp.MustCompile(`^[A-Za-z\s]{2,50}$`), "Invalid state name"},
	{func(s *ShippingInput) *string { return &s.Pincode }, regexp.MustCompile(`^\d{6}$`), "Pincode must be 6 digits"},
}

// Normalize trims every field in place.
func (s *ShippingInput) Normalize() {
	for _, rule := range shippingRules {
		v := rule.value(s)
		*v = strings.TrimSpace(*v)
	}
}

// Validate trims the fields and applies the format rules.
func (s *ShippingInput) Validate() error {
	s.Normalize()
	for _, rule := range shippingRules {
		if !rule.pattern.MatchString(*rule.value(s)) {
			return pkgerrors.New(pkgerrors.CodeValidation, rule.message)
		}
	}
	return nil
}

// Missing names the first empty shipping field as "<Field> is required".
func (s *ShippingInput) Missing() error {
	fields := []struct {
		name  string
		value string
	}{
		{"name", s.Name},
		{"phone", s.Phone},
		{"street", s.Street},
		{"city", s.City},
		{"state", s.State},
		{"pincode", s.Pincode},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return requiredError(f.name)
		}
	}
	return nil
}

func requiredError(field string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, strings.ToUpper(field[:1])+field[1:]+" is required")
}
