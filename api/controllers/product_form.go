package controllers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/urbancart/urbancart-backend/api/validators"
	"github.com/urbancart/urbancart-backend/internal/media"
	"github.com/urbancart/urbancart-backend/internal/products"
	"github.com/urbancart/urbancart-backend/pkg/enums"
	pkgerrors "github.com/urbancart/urbancart-backend/pkg/errors"
)

const (
	maxFormMemory = 32 << 20
	maxNameLen    = 200
)

// productForm is a parsed admin product form. Only fields present in the
// request are set.
type productForm struct {
	Name               *string
	Description        *string
	Category           *enums.ProductCategory
	Gender             *enums.Gender
	OriginalPrice      *int64
	DiscountPercentage *int
	Ratings            *float64
	SizeIDs            *[]uuid.UUID
	Thumbnail          *media.Upload
	Images             []media.Upload

	closers []io.Closer
}

// Close releases the uploaded file handles.
func (f *productForm) Close() error {
	var err error
	for _, c := range f.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}

func parseProductForm(r *http.Request) (*productForm, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}

	form := &productForm{}
	values := r.MultipartForm.Value
	fieldErrs := map[string]string{}

	if raw, ok := formValue(values, "name"); ok {
		name := validators.SanitizeString(raw, maxNameLen)
		form.Name = &name
	}
	if raw, ok := formValue(values, "description"); ok {
		form.Description = &raw
	}
	if raw, ok := formValue(values, "category"); ok {
		category, err := enums.ParseProductCategory(raw)
		if err != nil {
			fieldErrs["category"] = "Invalid category"
		} else {
			form.Category = &category
		}
	}
	if raw, ok := formValue(values, "gender"); ok && strings.TrimSpace(raw) != "" {
		gender, err := enums.ParseGender(raw)
		if err != nil {
			fieldErrs["gender"] = "Invalid gender"
		} else {
			form.Gender = &gender
		}
	}
	if raw, ok := formValue(values, "original_price"); ok {
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			fieldErrs["original_price"] = "must be a whole number"
		} else {
			form.OriginalPrice = &v
		}
	}
	if raw, ok := formValue(values, "discount_percentage"); ok {
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			fieldErrs["discount_percentage"] = "must be a whole number"
		} else {
			form.DiscountPercentage = &v
		}
	}
	if raw, ok := formValue(values, "ratings"); ok && strings.TrimSpace(raw) != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			fieldErrs["ratings"] = "must be a number"
		} else {
			form.Ratings = &v
		}
	}
	if raw, ok := formValue(values, "size_ids"); ok {
		ids, err := parseSizeIDs(raw)
		if err != nil {
			fieldErrs["size_ids"] = "must be comma-separated ids"
		} else {
			form.SizeIDs = &ids
		}
	}
	if len(fieldErrs) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(fieldErrs)
	}

	files := r.MultipartForm.File
	if headers := files["thumbnail"]; len(headers) > 0 {
		upload, err := form.open(headers[0])
		if err != nil {
			return nil, multierr.Append(err, form.Close())
		}
		form.Thumbnail = &upload
	}
	for _, fh := range files["images"] {
		upload, err := form.open(fh)
		if err != nil {
			return nil, multierr.Append(err, form.Close())
		}
		form.Images = append(form.Images, upload)
	}
	return form, nil
}

func (f *productForm) open(fh *multipart.FileHeader) (media.Upload, error) {
	file, err := fh.Open()
	if err != nil {
		return media.Upload{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not read uploaded file")
	}
	f.closers = append(f.closers, file)
	return media.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        file,
	}, nil
}

func (f *productForm) createInput() products.CreateProductInput {
	in := products.CreateProductInput{
		Description: f.Description,
		Thumbnail:   f.Thumbnail,
		Images:      f.Images,
	}
	if f.Name != nil {
		in.Name = *f.Name
	}
	if f.Category != nil {
		in.Category = *f.Category
	}
	if f.Gender != nil {
		in.Gender = *f.Gender
	}
	if f.OriginalPrice != nil {
		in.OriginalPrice = *f.OriginalPrice
	}
	if f.DiscountPercentage != nil {
		in.DiscountPercentage = *f.DiscountPercentage
	}
	if f.Ratings != nil {
		in.Ratings = *f.Ratings
	}
	if f.SizeIDs != nil {
		in.SizeIDs = *f.SizeIDs
	}
	return in
}

func (f *productForm) updateInput() products.UpdateProductInput {
	return products.UpdateProductInput{
		Name:               f.Name,
		Description:        f.Description,
		Category:           f.Category,
		Gender:             f.Gender,
		OriginalPrice:      f.OriginalPrice,
		DiscountPercentage: f.DiscountPercentage,
		Ratings:            f.Ratings,
		SizeIDs:            f.SizeIDs,
		Thumbnail:          f.Thumbnail,
		Images:             f.Images,
	}
}

func formValue(values map[string][]string, key string) (string, bool) {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// parseSizeIDs splits a comma-separated id list. An empty string clears the
// sizes.
func parseSizeIDs(raw string) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
