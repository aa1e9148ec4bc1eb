package catalog

import "github.com/sells-group/catalog-cli/internal/model"

// Validate returns the publishable products: those with both a tagging and
// a discount price. The input is not modified.
func Validate(products []*model.Product) []*model.Product {
	out := make([]*model.Product, 0, len(products))
	for _, p := range products {
		if p.HasTagging() && p.HasDiscount() {
			out = append(out, p)
		}
	}
	return out
}

// CountEmptyTagging counts products without any promotional label.
func CountEmptyTagging(products []*model.Product) int {
	n := 0
	for _, p := range products {
		if !p.HasTagging() {
			n++
		}
	}
	return n
}
