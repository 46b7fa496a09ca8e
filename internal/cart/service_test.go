package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbancart/urbancart-backend/pkg/db"
	"github.com/urbancart/urbancart-backend/pkg/db/dbtest"
	"github.com/urbancart/urbancart-backend/pkg/db/models"
	"github.com/urbancart/urbancart-backend/pkg/enums"
	pkgerrors "github.com/urbancart/urbancart-backend/pkg/errors"
)

type fixture struct {
	svc    Service
	client *db.Client
	user   *models.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.New(t)
	svc, err := NewService(NewRepository(client.DB()), client, nil)
	require.NoError(t, err)

	user := &models.User{Username: "ravi", Email: "ravi@example.com", PasswordHash: "x"}
	require.NoError(t, client.DB().Create(user).Error)
	return fixture{svc: svc, client: client, user: user}
}

func (f fixture) product(t *testing.T, slug string, original, discounted int64, sizes ...*models.Size) *models.Product {
	t.Helper()
	p := &models.Product{
		Name: slug, Slug: slug, Category: enums.CategoryJeans, Gender: enums.GenderMale,
		ThumbnailKey: "k", ThumbnailURL: "https://cdn.example.com/" + slug,
		OriginalPrice: original, DiscountPrice: discounted,
	}
	require.NoError(t, f.client.DB().Omit("Images", "Sizes").Create(p).Error)
	for _, size := range sizes {
		require.NoError(t, f.client.DB().Omit("Size").Create(&models.ProductSize{ProductID: p.ID, SizeID: size.ID}).Error)
	}
	return p
}

func (f fixture) size(t *testing.T, label string) *models.Size {
	t.Helper()
	s := &models.Size{Label: label}
	require.NoError(t, f.client.DB().Create(s).Error)
	return s
}

func TestAddItemAndViewTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	jeans := f.product(t, "jeans", 1000, 900)
	tee := f.product(t, "tee", 500, 500)

	require.NoError(t, f.svc.AddItem(ctx, f.user.ID, AddItemInput{ProductID: jeans.ID, Quantity: 2}))
	require.NoError(t, f.svc.AddItem(ctx, f.user.ID, AddItemInput{ProductID: tee.ID}))

	view, err := f.svc.View(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.Equal(t, 3, view.TotalItems)
	assert.Equal(t, int64(2500), view.TotalMRP)
	assert.Equal(t, int64(2300), view.TotalPrice)
	assert.Equal(t, int64(200), view.TotalDiscount)
	assert.Equal(t, view.TotalMRP-view.TotalDiscount, view.TotalPrice)
	assert.Equal(t, int64(1800), view.Items[0].LineTotal)
	assert.Nil(t, view.Items[0].Size)
}

func TestAddDuplicateLineIncrementsByOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "jeans", 1000, 900)

	require.NoError(t, f.svc.AddItem(ctx, f.user.ID, AddItemInput{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, f.svc.AddItem(ctx, f.user.ID, AddItemInput{ProductID: p.ID, Quantity: 5}))

	view, err := f.svc.View(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)

	var carts int64
	require.NoError(t, f.client.DB().Model(&models.Cart{}).Count(&carts).Error)
	assert.Equal(t, int64(1), carts)
}

func TestAddItemSizes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m := f.size(t, "M")
	l := f.size(t, "L")
	xl := f.size(t, "XL")
	shirt := f.product(t, "shirt", 800, 800, m, l)

	cases := []struct {
		name    string
		size    *uuid.UUID
		message string
	}{
		{name: "missing", size: nil, message: "Size is required"},
		{name: "not offered", size: &xl.ID, message: "Invalid size for this product"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.svc.AddItem(ctx, f.user.ID, AddItemInput{ProductID: shirt.ID, SelectedSize: tc.size})
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
			assert.Equal(t, tc.message, pkgerrors.As(err).Message())
		})
	}

	require.NoError(t, f.svc.AddItem(ctx, f.user.ID, AddItemInput{ProductID: shirt.ID, SelectedSize: &m.ID}))
	require.NoError(t, f.svc.AddItem(ctx, f.user.ID, AddItemInput{ProductID: shirt.ID, SelectedSize: &l.ID}))

	view, err := f.svc.View(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2, "different sizes are separate lines")
	require.NotNil(t, view.Items[0].Size)
	assert.Equal(t, "M", view.Items[0].Size.Label)
	assert.Equal(t, m.ID, view.Items[0].Size.ID)
}

func TestAddUnknownProduct(t *testing.T) {
	f := newFixture(t)
	err := f.svc.AddItem(context.Background(), f.user.ID, AddItemInput{ProductID: uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestItemOperationsAreOwnershipScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "jeans", 1000, 900)

	other := &models.User{Username: "meera", Email: "meera@example.com", PasswordHash: "x"}
	require.NoError(t, f.client.DB().Create(other).Error)

	require.NoError(t, f.svc.AddItem(ctx, f.user.ID, AddItemInput{ProductID: p.ID}))
	view, err := f.svc.View(ctx, f.user.ID)
	require.NoError(t, err)
	itemID := view.Items[0].ID

	assert.True(t, pkgerrors.IsCode(f.svc.UpdateQuantity(ctx, other.ID, itemID, 4), pkgerrors.CodeNotFound))
	assert.True(t, pkgerrors.IsCode(f.svc.RemoveItem(ctx, other.ID, itemID), pkgerrors.CodeNotFound))
	assert.True(t, pkgerrors.IsCode(f.svc.UpdateQuantity(ctx, f.user.ID, itemID, 0), pkgerrors.CodeValidation))

	require.NoError(t, f.svc.UpdateQuantity(ctx, f.user.ID, itemID, 4))
	view, err = f.svc.View(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Items[0].Quantity)
	assert.Equal(t, int64(3600), view.TotalPrice)

	require.NoError(t, f.svc.RemoveItem(ctx, f.user.ID, itemID))
	view, err = f.svc.View(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.TotalItems)
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.AddItem(ctx, f.user.ID, AddItemInput{ProductID: f.product(t, "a", 100, 100).ID}))
	require.NoError(t, f.svc.AddItem(ctx, f.user.ID, AddItemInput{ProductID: f.product(t, "b", 200, 150).ID}))
	require.NoError(t, f.svc.Clear(ctx, f.user.ID))

	view, err := f.svc.View(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestComputeTotals(t *testing.T) {
	items := []models.CartItem{
		{Quantity: 2, Product: models.Product{OriginalPrice: 1000, DiscountPrice: 900}},
		{Quantity: 1, Product: models.Product{OriginalPrice: 499, DiscountPrice: 499}},
	}
	got := ComputeTotals(items)
	assert.Equal(t, Totals{Items: 3, MRP: 2499, Discount: 200, Price: 2299}, got)
	assert.Equal(t, Totals{}, ComputeTotals(nil))
}
