package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/storekit/pkg/apiclient"
)

// Back-office catalog management. All endpoints require an admin
// session; media travels as multipart form data.

// FileUpload is an image or icon to attach to a catalog entity. The
// bytes are held in memory so a request can be replayed on the
// PATCH/PUT verb fallbacks below.
type FileUpload struct {
	Filename string
	Data     []byte
}

// ProductInput carries the writable product fields. Nil pointers and
// empty strings are omitted from the form, so partial updates only
// touch what the admin changed.
type ProductInput struct {
	Name           string
	Slug           string
	SKU            string
	Description    string
	Currency       string
	CategoryID     string
	BrandID        string
	Price          *float64
	CompareAtPrice *float64
	Stock          *int
	IsActive       *bool
	IsFeatured     *bool
	Images         []FileUpload
}

func (in ProductInput) fields() map[string]string {
	fields := make(map[string]string)
	setIf(fields, "name", in.Name)
	setIf(fields, "slug", in.Slug)
	setIf(fields, "sku", in.SKU)
	setIf(fields, "description", in.Description)
	setIf(fields, "currency", in.Currency)
	setIf(fields, "categoryId", in.CategoryID)
	setIf(fields, "brandId", in.BrandID)
	if in.Price != nil {
		fields["price"] = strconv.FormatFloat(*in.Price, 'f', -1, 64)
	}
	if in.CompareAtPrice != nil {
		fields["compareAtPrice"] = strconv.FormatFloat(*in.CompareAtPrice, 'f', -1, 64)
	}
	if in.Stock != nil {
		fields["stock"] = strconv.Itoa(*in.Stock)
	}
	if in.IsActive != nil {
		fields["isActive"] = strconv.FormatBool(*in.IsActive)
	}
	if in.IsFeatured != nil {
		fields["isFeatured"] = strconv.FormatBool(*in.IsFeatured)
	}
	return fields
}

func uploads(field string, files []FileUpload) []apiclient.Upload {
	parts := make([]apiclient.Upload, 0, len(files))
	for _, f := range files {
		if len(f.Data) == 0 {
			continue
		}
		parts = append(parts, apiclient.Upload{
			Field:    field,
			Filename: f.Filename,
			Reader:   bytes.NewReader(f.Data),
		})
	}
	return parts
}

// CreateProduct creates a product with its images.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	var raw remoteProduct
	err := s.client.CallMultipart(ctx, http.MethodPost, "/products", in.fields(), uploads("images", in.Images), &raw)
	if err != nil {
		return nil, err
	}
	product := raw.toProduct()
	return &product, nil
}

// UpdateProduct updates a product in place.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (*Product, error) {
	var raw remoteProduct
	err := s.client.CallMultipart(ctx, http.MethodPut, "/products/"+id, in.fields(), uploads("images", in.Images), &raw)
	if err != nil {
		return nil, err
	}
	s.products.Delete(id)
	product := raw.toProduct()
	return &product, nil
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, "/products/"+id, nil); err != nil {
		return err
	}
	s.products.Delete(id)
	return nil
}

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	Name     string
	Slug     string
	ParentID string
	Icon     *FileUpload
}

func (in CategoryInput) fields() map[string]string {
	fields := make(map[string]string)
	setIf(fields, "name", in.Name)
	setIf(fields, "slug", in.Slug)
	setIf(fields, "parentId", in.ParentID)
	return fields
}

func (in CategoryInput) files() []apiclient.Upload {
	if in.Icon == nil {
		return nil
	}
	return uploads("icon", []FileUpload{*in.Icon})
}

// CreateCategory creates a category.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*Category, error) {
	var raw json.RawMessage
	err := s.client.CallMultipart(ctx, http.MethodPost, "/categories", in.fields(), in.files(), &raw)
	if err != nil {
		return nil, err
	}
	return decodeCategory(raw)
}

// UpdateCategory updates a category. Older backend versions only
// accept PUT here, so a PATCH rejected with 404 or 405 is replayed as
// PUT.
func (s *Service) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*Category, error) {
	var raw json.RawMessage
	err := s.client.CallMultipart(ctx, http.MethodPatch, "/categories/"+id, in.fields(), in.files(), &raw)
	if verbUnsupported(err) {
		err = s.client.CallMultipart(ctx, http.MethodPut, "/categories/"+id, in.fields(), in.files(), &raw)
	}
	if err != nil {
		return nil, err
	}
	return decodeCategory(raw)
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "/categories/"+id, nil)
}

// BrandInput carries the writable brand fields.
type BrandInput struct {
	Name string
	Slug string
	Logo *FileUpload
}

func (in BrandInput) fields() map[string]string {
	fields := make(map[string]string)
	setIf(fields, "name", in.Name)
	setIf(fields, "slug", in.Slug)
	return fields
}

func (in BrandInput) files() []apiclient.Upload {
	if in.Logo == nil {
		return nil
	}
	return uploads("logo", []FileUpload{*in.Logo})
}

// CreateBrand creates a brand.
func (s *Service) CreateBrand(ctx context.Context, in BrandInput) (*Brand, error) {
	var raw json.RawMessage
	err := s.client.CallMultipart(ctx, http.MethodPost, "/brands", in.fields(), in.files(), &raw)
	if err != nil {
		return nil, err
	}
	return decodeBrand(raw)
}

// UpdateBrand updates a brand. The verb fallback runs the other way
// around here: PUT first, PATCH on 404/405.
func (s *Service) UpdateBrand(ctx context.Context, id string, in BrandInput) (*Brand, error) {
	var raw json.RawMessage
	err := s.client.CallMultipart(ctx, http.MethodPut, "/brands/"+id, in.fields(), in.files(), &raw)
	if verbUnsupported(err) {
		err = s.client.CallMultipart(ctx, http.MethodPatch, "/brands/"+id, in.fields(), in.files(), &raw)
	}
	if err != nil {
		return nil, err
	}
	return decodeBrand(raw)
}

// DeleteBrand removes a brand.
func (s *Service) DeleteBrand(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "/brands/"+id, nil)
}

func decodeCategory(raw json.RawMessage) (*Category, error) {
	var category Category
	if err := json.Unmarshal(unwrapObject(raw), &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func decodeBrand(raw json.RawMessage) (*Brand, error) {
	var brand Brand
	if err := json.Unmarshal(unwrapObject(raw), &brand); err != nil {
		return nil, err
	}
	return &brand, nil
}

func verbUnsupported(err error) bool {
	return apiclient.IsStatus(err, http.StatusNotFound) ||
		apiclient.IsStatus(err, http.StatusMethodNotAllowed)
}

func setIf(fields map[string]string, key, value string) {
	if value != "" {
		fields[key] = value
	}
}
