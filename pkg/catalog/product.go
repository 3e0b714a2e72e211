package catalog

import (
	"encoding/json"

	"github.com/dmitrymomot/storekit/pkg/apiclient"
)

const placeholderImage = "/placeholder.svg"

// Product is a catalog entry as presented to the storefront. Title
// mirrors Name for display components that expect the older field.
type Product struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Title          string   `json:"title"`
	Slug           string   `json:"slug"`
	SKU            string   `json:"sku"`
	Description    string   `json:"description"`
	Price          float64  `json:"price"`
	CompareAtPrice float64  `json:"compareAtPrice"`
	Currency       string   `json:"currency"`
	Stock          int      `json:"stock"`
	IsActive       bool     `json:"isActive"`
	IsFeatured     bool     `json:"isFeatured"`
	CategoryID     string   `json:"categoryId"`
	BrandID        string   `json:"brandId"`
	Rating         float64  `json:"rating"`
	Thumbnail      string   `json:"thumbnail"`
	Images         []string `json:"images"`
}

// Category groups products; ParentID builds the category tree.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID string `json:"parentId"`
	Icon     string `json:"icon"`
}

// Brand is a product manufacturer.
type Brand struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	Logo string `json:"logo"`
}

type remoteProduct struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Slug           string  `json:"slug"`
	SKU            string  `json:"sku"`
	Description    string  `json:"description"`
	Price          float64 `json:"price"`
	CompareAtPrice float64 `json:"compareAtPrice"`
	Currency       string  `json:"currency"`
	Stock          int     `json:"stock"`
	IsActive       bool    `json:"isActive"`
	IsFeatured     bool    `json:"isFeatured"`
	CategoryID     string  `json:"categoryId"`
	BrandID        string  `json:"brandId"`
	RatingAverage  float64 `json:"ratingAverage"`
	Images         []struct {
		ImageURL string `json:"imageUrl"`
	} `json:"images"`
}

func (p remoteProduct) toProduct() Product {
	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, img.ImageURL)
	}

	thumbnail := placeholderImage
	if len(images) > 0 && images[0] != "" {
		thumbnail = images[0]
	}

	return Product{
		ID:             p.ID,
		Name:           p.Name,
		Title:          p.Name,
		Slug:           p.Slug,
		SKU:            p.SKU,
		Description:    p.Description,
		Price:          p.Price,
		CompareAtPrice: p.CompareAtPrice,
		Currency:       p.Currency,
		Stock:          p.Stock,
		IsActive:       p.IsActive,
		IsFeatured:     p.IsFeatured,
		CategoryID:     p.CategoryID,
		BrandID:        p.BrandID,
		Rating:         p.RatingAverage,
		Thumbnail:      thumbnail,
		Images:         images,
	}
}

// normalizeList accepts the three list envelopes the backend has used:
// a bare array, {"data": [...]} and {"items": [...]}.
func normalizeList[T any](raw json.RawMessage) []T {
	var bare []T
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare
	}

	var envelope struct {
		Data  []T `json:"data"`
		Items []T `json:"items"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil
	}
	if envelope.Data != nil {
		return envelope.Data
	}
	return envelope.Items
}

func unwrapObject(raw json.RawMessage) json.RawMessage {
	return apiclient.UnwrapData(raw)
}
