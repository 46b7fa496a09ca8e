package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/urbancart/urbancart-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository wires together all catalog persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func withGallery(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Sizes.Size")
}

// FindByID loads the product with images and sizes.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := withGallery(r.db.WithContext(ctx)).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads the product with images and sizes.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := withGallery(r.db.WithContext(ctx)).First(&product, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns products matching filters, newest first.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]models.Product, error) {
	qb := r.db.WithContext(ctx).Model(&models.Product{})

	if len(filters.Categories) > 0 {
		qb = qb.Where("LOWER(category) IN ?", filters.Categories)
	}
	if filters.Gender != nil {
		qb = qb.Where("gender = ?", *filters.Gender)
	}
	if filters.MaxPrice != nil {
		qb = qb.Where("discount_price <= ?", *filters.MaxPrice)
	}
	if filters.MinDiscount != nil {
		qb = qb.Where("discount_percentage >= ?", *filters.MinDiscount)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where(
			"(LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ? OR LOWER(category) LIKE ?)",
			pattern, pattern, pattern,
		)
	}

	var rows []models.Product
	err := qb.Order("created_at DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

// SlugsLike returns every slug equal to base or of the form base-*.
func (r *Repository) SlugsLike(ctx context.Context, base string) (map[string]struct{}, error) {
	var slugs []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("slug = ? OR slug LIKE ?", base, base+"-%").
		Pluck("slug", &slugs).
		Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		out[s] = struct{}{}
	}
	return out, nil
}

// Create inserts the product row only; associations are written separately.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Images", "Sizes").Create(product).Error
}

// Update writes the scalar columns of product.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).
		Model(product).
		Select("name", "slug", "description", "category", "gender", "thumbnail_key", "thumbnail_url",
			"ratings", "original_price", "discount_percentage", "discount_price", "updated_at").
		Updates(product).
		Error
}

// Delete removes the product and its owned rows. Order items keep their
// snapshot with the product reference cleared.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx)
	if err := tx.Model(&models.OrderItem{}).Where("product_id = ?", id).Update("product_id", nil).Error; err != nil {
		return false, err
	}
	if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
		return false, err
	}
	if err := tx.Where("product_id = ?", id).Delete(&models.ProductSize{}).Error; err != nil {
		return false, err
	}
	res := tx.Where("id = ?", id).Delete(&models.Product{})
	return res.RowsAffected > 0, res.Error
}

// ReplaceImages drops the gallery and inserts images in order.
func (r *Repository) ReplaceImages(ctx context.Context, productID uuid.UUID, images []models.ProductImage) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error; err != nil {
		return err
	}
	if len(images) == 0 {
		return nil
	}
	for i := range images {
		images[i].ProductID = productID
		images[i].Position = i
	}
	return tx.Create(&images).Error
}

// ReplaceSizes makes sizeIDs the product's size set. Rows for sizes that
// stay are left in place so cart lines pointing at them survive the edit.
func (r *Repository) ReplaceSizes(ctx context.Context, productID uuid.UUID, sizeIDs []uuid.UUID) error {
	tx := r.db.WithContext(ctx)

	var current []models.ProductSize
	if err := tx.Where("product_id = ?", productID).Find(&current).Error; err != nil {
		return err
	}

	want := make(map[uuid.UUID]struct{}, len(sizeIDs))
	for _, id := range sizeIDs {
		want[id] = struct{}{}
	}

	var dropped []uuid.UUID
	for _, ps := range current {
		if _, keep := want[ps.SizeID]; keep {
			delete(want, ps.SizeID)
			continue
		}
		dropped = append(dropped, ps.ID)
	}

	if len(dropped) > 0 {
		if err := tx.Where("id IN ?", dropped).Delete(&models.ProductSize{}).Error; err != nil {
			return err
		}
	}
	if len(want) == 0 {
		return nil
	}
	rows := make([]models.ProductSize, 0, len(want))
	for _, id := range sizeIDs {
		if _, add := want[id]; add {
			rows = append(rows, models.ProductSize{ProductID: productID, SizeID: id})
			delete(want, id)
		}
	}
	return tx.Create(&rows).Error
}

// CountSizes reports how many of ids exist in the size vocabulary.
func (r *Repository) CountSizes(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Size{}).Where("id IN ?", ids).Count(&n).Error
	return n, err
}

// ListSizes returns the vocabulary ordered by label.
func (r *Repository) ListSizes(ctx context.Context) ([]models.Size, error) {
	var rows []models.Size
	err := r.db.WithContext(ctx).Order("label ASC").Find(&rows).Error
	return rows, err
}

// CreateSize inserts a new size label.
func (r *Repository) CreateSize(ctx context.Context, size *models.Size) error {
	return r.db.WithContext(ctx).Create(size).Error
}
