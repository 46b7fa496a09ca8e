package cart

import (
	"github.com/google/uuid"
	"github.com/urbancart/urbancart-backend/pkg/db/models"
)

// AddItemRequest is the payload for POST /cart/add/.
type AddItemRequest struct {
	ProductID    string  `json:"product_id" validate:"required,uuid"`
	Quantity     *int    `json:"quantity" validate:"omitempty,min=1"`
	SelectedSize *string `json:"selected_size" validate:"omitempty,uuid"`
}

// UpdateQuantityRequest is the payload for POST /cart/update/{item_id}/.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// AddItemInput is the parsed form of AddItemRequest.
type AddItemInput struct {
	ProductID    uuid.UUID
	Quantity     int
	SelectedSize *uuid.UUID
}

// Input converts a validated request. Quantity stays zero when omitted and
// the service defaults it.
func (r AddItemRequest) Input() AddItemInput {
	in := AddItemInput{ProductID: uuid.MustParse(r.ProductID)}
	if r.Quantity != nil {
		in.Quantity = *r.Quantity
	}
	if r.SelectedSize != nil {
		size := uuid.MustParse(*r.SelectedSize)
		in.SelectedSize = &size
	}
	return in
}

// View is the cart with its derived totals.
type View struct {
	Items         []ItemView `json:"items"`
	TotalItems    int        `json:"total_items"`
	TotalMRP      int64      `json:"total_mrp"`
	TotalDiscount int64      `json:"total_discount"`
	TotalPrice    int64      `json:"total_price"`
}

// ItemView is one cart line.
type ItemView struct {
	ID        uuid.UUID    `json:"id"`
	Product   ProductBrief `json:"product"`
	Size      *SizeBrief   `json:"size"`
	Quantity  int          `json:"quantity"`
	LineTotal int64        `json:"line_total"`
}

// ProductBrief is the product summary shown on a cart line.
type ProductBrief struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Slug               string    `json:"slug"`
	Thumbnail          string    `json:"thumbnail"`
	Category           string    `json:"category"`
	OriginalPrice      int64     `json:"original_price"`
	DiscountPrice      int64     `json:"discount_price"`
	DiscountPercentage int       `json:"discount_percentage"`
}

// SizeBrief names the selected size.
type SizeBrief struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
}

// Totals are the cart aggregates in whole rupees.
type Totals struct {
	Items    int
	MRP      int64
	Discount int64
	Price    int64
}

// ComputeTotals sums quantities and prices over lines whose Product is loaded.
func ComputeTotals(items []models.CartItem) Totals {
	var t Totals
	for _, item := range items {
		qty := int64(item.Quantity)
		t.Items += item.Quantity
		t.MRP += qty * item.Product.OriginalPrice
		t.Price += qty * item.Product.DiscountPrice
	}
	t.Discount = t.MRP - t.Price
	return t
}

// SizeLabel returns the label of the line's selected size, if any.
func SizeLabel(item models.CartItem) *string {
	if item.ProductSize == nil || item.ProductSize.Size.Label == "" {
		return nil
	}
	label := item.ProductSize.Size.Label
	return &label
}

func toView(items []models.CartItem) *View {
	totals := ComputeTotals(items)
	view := &View{
		Items:         make([]ItemView, 0, len(items)),
		TotalItems:    totals.Items,
		TotalMRP:      totals.MRP,
		TotalDiscount: totals.Discount,
		TotalPrice:    totals.Price,
	}
	for _, item := range items {
		line := ItemView{
			ID: item.ID,
			Product: ProductBrief{
				ID:                 item.Product.ID,
				Name:               item.Product.Name,
				Slug:               item.Product.Slug,
				Thumbnail:          item.Product.ThumbnailURL,
				Category:           item.Product.Category.String(),
				OriginalPrice:      item.Product.OriginalPrice,
				DiscountPrice:      item.Product.DiscountPrice,
				DiscountPercentage: item.Product.DiscountPercentage,
			},
			Quantity:  item.Quantity,
			LineTotal: int64(item.Quantity) * item.Product.DiscountPrice,
		}
		if label := SizeLabel(item); label != nil {
			line.Size = &SizeBrief{ID: item.ProductSize.SizeID, Label: *label}
		}
		view.Items = append(view.Items, line)
	}
	return view
}
