package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sample-app/internal/helpers"
)

// UnlimitedStock is reported by Product.TotalStock when a product has no variants.
const UnlimitedStock = -1

// ErrInvalidDiscount indicates a discount percentage outside (0, 100).
var ErrInvalidDiscount = errors.New("discount percent must be between 0 and 100")

type ProductCategory string

const (
	CategoryElectronics ProductCategory = "electronics"
	CategoryClothing    ProductCategory = "clothing"
	CategoryFood        ProductCategory = "food"
	CategoryBooks       ProductCategory = "books"
	CategoryOther       ProductCategory = "other"
)

// ParseCategory maps a case-insensitive name onto a category.
func ParseCategory(s string) (ProductCategory, error) {
	switch c := ProductCategory(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryElectronics, CategoryClothing, CategoryFood, CategoryBooks, CategoryOther:
		return c, nil
	default:
		return "", fmt.Errorf("unknown product category %q", s)
	}
}

// ProductVariant is a size/color variant owned by one product.
type ProductVariant struct {
	SKU           string
	Color         string
	Size          string
	Stock         int
	PriceModifier decimal.Decimal
}

// Product represents a catalog item.
type Product struct {
	ProductID   string
	Name        string
	BasePrice   decimal.Decimal
	Category    ProductCategory
	Description string
	Variants    []ProductVariant
	Tags        []string
	CreatedAt   time.Time
	IsAvailable bool
}

// NewProduct returns an available product whose ID is derived from its
// name and category.
func NewProduct(name string, price decimal.Decimal, category ProductCategory, description string) *Product {
	p := &Product{
		Name:        name,
		BasePrice:   price,
		Category:    category,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		IsAvailable: true,
	}
	p.EnsureID()
	return p
}

// EnsureID generates the product ID when it is empty.
func (p *Product) EnsureID() {
	if p.ProductID == "" {
		p.ProductID = helpers.GenerateSKU(p.Name, string(p.Category))
	}
}

// FormattedPrice renders the base price in USD.
func (p *Product) FormattedPrice() string {
	return helpers.FormatCurrency(p.BasePrice, "USD")
}

// TotalStock sums stock across variants. A product without variants has
// UnlimitedStock.
func (p *Product) TotalStock() int {
	if len(p.Variants) == 0 {
		return UnlimitedStock
	}
	total := 0
	for _, v := range p.Variants {
		total += v.Stock
	}
	return total
}

func (p *Product) AddVariant(v ProductVariant) {
	p.Variants = append(p.Variants, v)
}

// VariantBySKU returns the variant with the given SKU, if any.
func (p *Product) VariantBySKU(sku string) (*ProductVariant, bool) {
	for i := range p.Variants {
		if p.Variants[i].SKU == sku {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// ApplyDiscount returns the base price reduced by percent, rounded to cents.
// The product itself is not modified.
func (p *Product) ApplyDiscount(percent decimal.Decimal) (decimal.Decimal, error) {
	hundred := decimal.NewFromInt(100)
	if !percent.IsPositive() || percent.GreaterThanOrEqual(hundred) {
		return decimal.Decimal{}, ErrInvalidDiscount
	}
	factor := decimal.NewFromInt(1).Sub(percent.Div(hundred))
	return p.BasePrice.Mul(factor).Round(2), nil
}
