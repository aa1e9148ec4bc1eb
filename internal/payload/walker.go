package payload

import (
	"iter"

	"github.com/sells-group/catalog-cli/internal/model"
)

// Record shapes recognized by the walker.
const (
	keyProductInfo    = "productInfo"
	keyMerchProduct   = "merchProduct"
	keyProductContent = "productContent"
)

// DefaultOrigin is joined to relative product URLs.
const DefaultOrigin = "https://www.nike.com"

// Walker extracts product records from decoded listing payloads.
type Walker struct {
	// Origin is prefixed to product URLs that start with "/".
	Origin string
}

// NewWalker returns a Walker that resolves relative URLs against origin.
func NewWalker(origin string) *Walker {
	if origin == "" {
		origin = DefaultOrigin
	}
	return &Walker{Origin: origin}
}

// Products walks the product list of a payload. Known list locations
// (data.products.products, products, objects) narrow the walk when present;
// otherwise the whole payload is walked.
func (w *Walker) Products(doc *Value) iter.Seq[model.Product] {
	return w.Walk(listRoot(doc))
}

func listRoot(doc *Value) *Value {
	if items := doc.Path("data", "products", "products"); items.Truthy() {
		return items
	}
	if items := doc.Get("products"); items.Truthy() {
		return items
	}
	if items := doc.Get("objects"); items.Truthy() {
		return items
	}
	return doc
}

// Walk lazily yields every product record found anywhere under root.
//
// A map holding a productInfo list yields one product per map element of the
// list. A map holding both a merchProduct map and a productContent map yields
// exactly one product. Every node is visited once, in document order, so the
// walk terminates on any finite tree. A tree without either shape yields
// nothing.
func (w *Walker) Walk(root *Value) iter.Seq[model.Product] {
	return func(yield func(model.Product) bool) {
		if root == nil {
			return
		}
		visited := make(map[*Value]struct{})
		consumed := make(map[*Value]struct{})

		stack := []*Value{root}
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if v == nil {
				continue
			}
			if _, seen := visited[v]; seen {
				continue
			}
			visited[v] = struct{}{}

			switch v.Kind {
			case Map:
				if infos := v.Get(keyProductInfo); infos.IsList() {
					for _, info := range infos.Items() {
						if !info.IsMap() {
							continue
						}
						consumed[info] = struct{}{}
						if !yield(w.Convert(info)) {
							return
						}
					}
				} else if _, done := consumed[v]; !done && isRecord(v) {
					if !yield(w.Convert(v)) {
						return
					}
				}
				members := v.Members()
				for i := len(members) - 1; i >= 0; i-- {
					stack = append(stack, members[i].Value)
				}
			case List:
				items := v.Items()
				for i := len(items) - 1; i >= 0; i-- {
					stack = append(stack, items[i])
				}
			}
		}
	}
}

func isRecord(v *Value) bool {
	return v.Get(keyMerchProduct).IsMap() && v.Get(keyProductContent).IsMap()
}
