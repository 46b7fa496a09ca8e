package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/urbancart/urbancart-backend/internal/media"
	"github.com/urbancart/urbancart-backend/pkg/db"
	"github.com/urbancart/urbancart-backend/pkg/db/models"
	"github.com/urbancart/urbancart-backend/pkg/enums"
	pkgerrors "github.com/urbancart/urbancart-backend/pkg/errors"
	"github.com/urbancart/urbancart-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	MsgProductCreated = "Product created successfully"
	MsgProductUpdated = "Product updated successfully"
	MsgProductDeleted = "Product deleted"

	thumbnailFolder = "products/thumbnails"
	galleryFolder   = "products/images"
)

var errProductNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")

// Service exposes the catalog reads and the admin product writes.
type Service interface {
	List(ctx context.Context, filters ListFilters) ([]ProductSummary, error)
	GetBySlug(ctx context.Context, slug string) (*ProductDetail, error)
	Create(ctx context.Context, input CreateProductInput) (*CreatedProduct, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDetail, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListSizes(ctx context.Context) ([]SizeDTO, error)
	CreateSize(ctx context.Context, label string) (*SizeDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo  *Repository
	tx    txRunner
	media media.Service
	logg  *logger.Logger
}

// NewService constructs a product service instance.
func NewService(repo *Repository, tx txRunner, mediaSvc media.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("db client required")
	}
	if mediaSvc == nil {
		return nil, fmt.Errorf("media service required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, media: mediaSvc, logg: logg}, nil
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]ProductSummary, error) {
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	out := make([]ProductSummary, 0, len(rows))
	for i := range rows {
		out = append(out, toSummary(&rows[i]))
	}
	return out, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*ProductDetail, error) {
	product, err := s.repo.FindBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, errProductNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return toDetail(product), nil
}

// Create uploads media, then writes the product, gallery and sizes in one
// transaction. Uploaded objects are removed again when the write fails.
func (s *service) Create(ctx context.Context, input CreateProductInput) (*CreatedProduct, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid category")
	}
	gender := input.Gender
	if gender == "" {
		gender = enums.GenderUnisex
	}
	if !gender.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid gender")
	}
	if err := validatePricing(input.OriginalPrice, input.DiscountPercentage, input.Ratings); err != nil {
		return nil, err
	}
	if input.Thumbnail == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "thumbnail is required")
	}
	sizeIDs, err := s.checkSizes(ctx, input.SizeIDs)
	if err != nil {
		return nil, err
	}

	thumb, gallery, err := s.upload(ctx, input.Thumbnail, input.Images)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:               name,
		Description:        trimmedPtr(input.Description),
		Category:           input.Category,
		Gender:             gender,
		ThumbnailKey:       thumb.Key,
		ThumbnailURL:       thumb.URL,
		Ratings:            input.Ratings,
		OriginalPrice:      input.OriginalPrice,
		DiscountPercentage: input.DiscountPercentage,
		DiscountPrice:      ComputeDiscountPrice(input.OriginalPrice, input.DiscountPercentage),
	}

	write := func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			slug, err := uniqueSlug(ctx, repo, name)
			if err != nil {
				return err
			}
			product.ID = uuid.Nil
			product.Slug = slug
			if err := repo.Create(ctx, product); err != nil {
				return err
			}
			if err := repo.ReplaceImages(ctx, product.ID, imageRows(gallery)); err != nil {
				return err
			}
			return repo.ReplaceSizes(ctx, product.ID, sizeIDs)
		})
	}

	err = write()
	if isSlugConflict(err) {
		// a concurrent create claimed the slug between lookup and insert
		err = write()
	}
	if err != nil {
		s.cleanup(ctx, append(storedKeys(gallery), thumb.Key)...)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}

	s.logg.Info(s.logg.WithField(ctx, "product_id", product.ID.String()), "product.created")
	return &CreatedProduct{Message: MsgProductCreated, ProductID: product.ID, Slug: product.Slug}, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDetail, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, errProductNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = trimmedPtr(input.Description)
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid category")
		}
		product.Category = *input.Category
	}
	if input.Gender != nil {
		if !input.Gender.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid gender")
		}
		product.Gender = *input.Gender
	}
	if input.OriginalPrice != nil {
		product.OriginalPrice = *input.OriginalPrice
	}
	if input.DiscountPercentage != nil {
		product.DiscountPercentage = *input.DiscountPercentage
	}
	if input.Ratings != nil {
		product.Ratings = *input.Ratings
	}
	if err := validatePricing(product.OriginalPrice, product.DiscountPercentage, product.Ratings); err != nil {
		return nil, err
	}
	product.DiscountPrice = ComputeDiscountPrice(product.OriginalPrice, product.DiscountPercentage)

	var sizeIDs []uuid.UUID
	if input.SizeIDs != nil {
		if sizeIDs, err = s.checkSizes(ctx, *input.SizeIDs); err != nil {
			return nil, err
		}
	}

	thumb, gallery, err := s.upload(ctx, input.Thumbnail, input.Images)
	if err != nil {
		return nil, err
	}

	var replaced []string
	if thumb != nil {
		replaced = append(replaced, product.ThumbnailKey)
		product.ThumbnailKey = thumb.Key
		product.ThumbnailURL = thumb.URL
	}
	if len(gallery) > 0 {
		for _, img := range product.Images {
			replaced = append(replaced, img.ObjectKey)
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, product); err != nil {
			return err
		}
		if len(gallery) > 0 {
			if err := repo.ReplaceImages(ctx, product.ID, imageRows(gallery)); err != nil {
				return err
			}
		}
		if input.SizeIDs != nil {
			return repo.ReplaceSizes(ctx, product.ID, sizeIDs)
		}
		return nil
	})
	if err != nil {
		fresh := storedKeys(gallery)
		if thumb != nil {
			fresh = append(fresh, thumb.Key)
		}
		s.cleanup(ctx, fresh...)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}

	s.cleanup(ctx, replaced...)

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload product")
	}
	return toDetail(updated), nil
}

// Delete removes the product row and its images and sizes, then deletes the
// stored media once the transaction commits.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return errProductNotFound
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		deleted, err := s.repo.WithTx(tx).Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return errProductNotFound
		}
		return nil
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}

	keys := []string{product.ThumbnailKey}
	for _, img := range product.Images {
		keys = append(keys, img.ObjectKey)
	}
	s.cleanup(ctx, keys...)
	s.logg.Info(s.logg.WithField(ctx, "product_id", id.String()), "product.deleted")
	return nil
}

func (s *service) ListSizes(ctx context.Context) ([]SizeDTO, error) {
	rows, err := s.repo.ListSizes(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list sizes")
	}
	out := make([]SizeDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, SizeDTO{ID: row.ID, Label: row.Label})
	}
	return out, nil
}

func (s *service) CreateSize(ctx context.Context, label string) (*SizeDTO, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "label is required")
	}
	size := &models.Size{Label: label}
	if err := s.repo.CreateSize(ctx, size); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "size with this label already exists.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create size")
	}
	return &SizeDTO{ID: size.ID, Label: size.Label}, nil
}

func (s *service) checkSizes(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return unique, nil
	}
	n, err := s.repo.CountSizes(ctx, unique)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check sizes")
	}
	if n != int64(len(unique)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid size id")
	}
	return unique, nil
}

// upload stores the optional thumbnail and gallery. On failure, anything
// already uploaded is removed.
func (s *service) upload(ctx context.Context, thumbnail *media.Upload, images []media.Upload) (*media.Stored, []media.Stored, error) {
	var thumb *media.Stored
	if thumbnail != nil {
		stored, err := s.media.Store(ctx, thumbnailFolder, *thumbnail)
		if err != nil {
			return nil, nil, err
		}
		thumb = stored
	}

	gallery := make([]media.Stored, 0, len(images))
	for _, img := range images {
		stored, err := s.media.Store(ctx, galleryFolder, img)
		if err != nil {
			keys := storedKeys(gallery)
			if thumb != nil {
				keys = append(keys, thumb.Key)
			}
			s.cleanup(ctx, keys...)
			return nil, nil, err
		}
		gallery = append(gallery, *stored)
	}
	return thumb, gallery, nil
}

func (s *service) cleanup(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := s.media.Delete(ctx, keys...); err != nil {
		s.logg.Error(ctx, "media.cleanup_failed", err)
	}
}

func uniqueSlug(ctx context.Context, repo *Repository, name string) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = "product"
	}
	taken, err := repo.SlugsLike(ctx, base)
	if err != nil {
		return "", err
	}
	return nextFreeSlug(base, taken), nil
}

func isSlugConflict(err error) bool {
	return err != nil && db.IsUniqueViolation(err, "") && strings.Contains(strings.ToLower(err.Error()), "slug")
}

func validatePricing(original int64, percentage int, ratings float64) error {
	switch {
	case original < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "original_price must not be negative")
	case percentage < 0 || percentage > 100:
		return pkgerrors.New(pkgerrors.CodeValidation, "discount_percentage must be between 0 and 100")
	case ratings < 0 || ratings > 5:
		return pkgerrors.New(pkgerrors.CodeValidation, "ratings must be between 0 and 5")
	}
	return nil
}

func imageRows(stored []media.Stored) []models.ProductImage {
	rows := make([]models.ProductImage, 0, len(stored))
	for _, st := range stored {
		rows = append(rows, models.ProductImage{ObjectKey: st.Key, URL: st.URL})
	}
	return rows
}

func storedKeys(stored []media.Stored) []string {
	keys := make([]string, 0, len(stored))
	for _, st := range stored {
		keys = append(keys, st.Key)
	}
	return keys
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
