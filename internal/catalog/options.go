// Package catalog answers option-availability questions over a product's
// variant list. Everything is a pure function recomputed on demand; there is
// no cached view to fall out of sync with the variants.
package catalog

import (
	"github.com/hyunwoopark/shopfront/pkg/collection"
)

// Variant is one purchasable size/color combination of a product.
type Variant struct {
	ID            int64  `json:"id"`
	Size          string `json:"size"`
	Color         string `json:"color"`
	StockQuantity int    `json:"stockQuantity"`
}

// AvailableSizes returns the sizes with at least one in-stock variant, in
// first-seen order.
func AvailableSizes(variants []Variant) []string {
	inStock := collection.Filter(variants, func(v Variant) bool { return v.StockQuantity > 0 })
	return collection.Unique(collection.Map(inStock, func(v Variant) string { return v.Size }))
}

// ColorsForSize returns the in-stock colors available in the given size, in
// first-seen order.
func ColorsForSize(variants []Variant, size string) []string {
	matching := collection.Filter(variants, func(v Variant) bool {
		return v.Size == size && v.StockQuantity > 0
	})
	return collection.Unique(collection.Map(matching, func(v Variant) string { return v.Color }))
}

// Find returns the variant for an exact size+color pair.
func Find(variants []Variant, size, color string) (Variant, bool) {
	return collection.First(variants, func(v Variant) bool {
		return v.Size == size && v.Color == color
	})
}

// InStock reports whether the size+color pair can cover quantity units.
func InStock(variants []Variant, size, color string, quantity int) bool {
	v, ok := Find(variants, size, color)
	return ok && v.StockQuantity >= quantity
}
