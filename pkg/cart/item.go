package cart

import (
	"encoding/json"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dmitrymomot/storekit/pkg/apiclient"
)

// Fallbacks for remote lines with unresolvable fields. Pricing is
// defaulted to zero rather than failing the whole cart view.
const (
	fallbackName  = "Product"
	fallbackImage = "/placeholder.svg"
)

// Item is one cart line. ID is the line identity (unique within the
// cart); ProductID references the catalog.
type Item struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"lineTotal"`
}

// FormatTotal renders the line total in the given ISO currency,
// falling back to USD for unknown codes.
func (i Item) FormatTotal(code string) string {
	return FormatPrice(i.LineTotal, code)
}

// FormatPrice renders an amount with its currency symbol.
func FormatPrice(amount float64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.USD
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf("%v", currency.Symbol(unit.Amount(amount)))
}

// remoteLine mirrors the backend cart line with every shape the
// backend has used: flat fields, snake-cased alternatives and a nested
// product object.
type remoteLine struct {
	ID        string   `json:"id"`
	ItemID    string   `json:"itemId"`
	ProductID string   `json:"productId"`
	Name      string   `json:"name"`
	Image     string   `json:"image"`
	Quantity  *int     `json:"quantity"`
	UnitPrice *float64 `json:"unitPrice"`
	Price     *float64 `json:"price"`
	LineTotal *float64 `json:"lineTotal"`
	Product   *struct {
		ID        string   `json:"id"`
		Name      string   `json:"name"`
		Price     *float64 `json:"price"`
		Thumbnail string   `json:"thumbnail"`
		Images    []struct {
			ImageURL string `json:"imageUrl"`
		} `json:"images"`
	} `json:"product"`
}

func (l remoteLine) toItem() Item {
	quantity := 1
	if l.Quantity != nil {
		quantity = *l.Quantity
	}

	price := 0.0
	switch {
	case l.UnitPrice != nil:
		price = *l.UnitPrice
	case l.Price != nil:
		price = *l.Price
	case l.Product != nil && l.Product.Price != nil:
		price = *l.Product.Price
	}

	id := firstNonEmpty(l.ID, l.ItemID, l.ProductID)
	productID := l.ProductID
	name := l.Name
	image := l.Image
	if l.Product != nil {
		if id == "" {
			id = l.Product.ID
		}
		if productID == "" {
			productID = l.Product.ID
		}
		if l.Product.Name != "" {
			name = l.Product.Name
		}
		if len(l.Product.Images) > 0 && l.Product.Images[0].ImageURL != "" {
			image = l.Product.Images[0].ImageURL
		} else if l.Product.Thumbnail != "" {
			image = l.Product.Thumbnail
		}
	}
	if name == "" {
		name = fallbackName
	}
	if image == "" {
		image = fallbackImage
	}

	lineTotal := float64(quantity) * price
	if l.LineTotal != nil {
		lineTotal = *l.LineTotal
	}

	return Item{
		ID:        id,
		ProductID: productID,
		Name:      name,
		Image:     image,
		UnitPrice: price,
		Quantity:  quantity,
		LineTotal: lineTotal,
	}
}

// normalizeItems maps a raw /cart/me payload into cart lines. Both the
// "items" and legacy "cartItems" array keys are accepted, under an
// optional data envelope.
func normalizeItems(raw json.RawMessage) []Item {
	raw = apiclient.UnwrapData(raw)

	var envelope struct {
		Items     []remoteLine `json:"items"`
		CartItems []remoteLine `json:"cartItems"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil
	}

	lines := envelope.Items
	if lines == nil {
		lines = envelope.CartItems
	}

	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, l.toItem())
	}
	return items
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func clampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}
