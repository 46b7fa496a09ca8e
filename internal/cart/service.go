package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/urbancart/urbancart-backend/pkg/db"
	"github.com/urbancart/urbancart-backend/pkg/db/models"
	pkgerrors "github.com/urbancart/urbancart-backend/pkg/errors"
	"github.com/urbancart/urbancart-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	MsgAdded           = "Added to cart"
	MsgQuantityUpdated = "quantity updated"
	MsgRemoved         = "Product removed"
	MsgCleared         = "Cart cleared"
)

var (
	errProductNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	errItemNotFound    = pkgerrors.New(pkgerrors.CodeNotFound, "Item not found")
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the per-user cart.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) error
	View(ctx context.Context, userID uuid.UUID) (*View, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo *Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// AddItem puts a product in the cart. A line that already holds the same
// product and size is bumped by one regardless of the requested quantity.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) error {
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.repo.FindProduct(ctx, input.ProductID)
	if err != nil {
		if db.IsNotFound(err) {
			return errProductNotFound
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	productSizeID, err := resolveSize(product, input.SelectedSize)
	if err != nil {
		return err
	}

	add := func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			c, err := repo.GetOrCreate(ctx, userID)
			if err != nil {
				return err
			}
			existing, err := repo.FindLine(ctx, c.ID, product.ID, productSizeID)
			switch {
			case err == nil:
				return repo.IncrementQuantity(ctx, existing.ID, 1)
			case !db.IsNotFound(err):
				return err
			}
			return repo.CreateItem(ctx, &models.CartItem{
				CartID:        c.ID,
				ProductID:     product.ID,
				ProductSizeID: productSizeID,
				Quantity:      quantity,
			})
		})
	}

	err = add()
	if db.IsUniqueViolation(err, "") {
		// a concurrent add created the line; the retry increments it
		err = add()
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add to cart")
	}
	return nil
}

// resolveSize maps the selected size id to the product's ProductSize row.
// Products without sizes take no selection.
func resolveSize(product *models.Product, selected *uuid.UUID) (*uuid.UUID, error) {
	if len(product.Sizes) == 0 {
		return nil, nil
	}
	if selected == nil || *selected == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Size is required")
	}
	for _, ps := range product.Sizes {
		if ps.SizeID == *selected {
			id := ps.ID
			return &id, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid size for this product")
}

func (s *service) View(ctx context.Context, userID uuid.UUID) (*View, error) {
	c, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	items, err := s.repo.Items(ctx, c.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
	}
	return toView(items), nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if err := s.repo.SetQuantity(ctx, item.ID, quantity); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update quantity")
	}
	return nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove item")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	c, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if err := s.repo.Clear(ctx, c.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

func (s *service) ownedItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	item, err := s.repo.FindItemForUser(ctx, itemID, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, errItemNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}
	return item, nil
}
