package payload

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sells-group/catalog-cli/internal/model"
)

// tagKeys are the info keys that carry promotional labels, in priority order.
var tagKeys = []string{"productTags", "productTag", "badges", "badging", "label"}

// Convert maps one product info record to a Product. Every field is
// optional; alternative keys are tried in order before a field is left empty.
func (w *Walker) Convert(info *Value) model.Product {
	merch := info.First("merchProduct", "product")
	content := info.Get("productContent")
	price := info.First("merchPrice", "price")

	var p model.Product

	url := merch.Get("url").Str()
	if url == "" {
		url = info.Get("pdpUrl").Str()
	}
	if url == "" {
		url = content.Get("pdpUrl").Str()
	}
	if strings.HasPrefix(url, "/") {
		url = strings.TrimRight(w.Origin, "/") + url
	}
	p.URL = url

	images := info.First("imageUrls")
	if images == nil {
		images = content.Get("imageUrls")
	}
	p.ImageURL = images.Get("productImageUrl").Str()

	p.Tagging = extractTags(info, merch)

	p.Name = merch.FirstString("label", "name")
	if p.Name == "" {
		p.Name = content.Get("title").Str()
	}
	p.Description = content.Get("subtitle").Str()
	if p.Description == "" {
		p.Description = merch.Get("subtitle").Str()
	}
	if p.Description == "" {
		p.Description = content.Get("description").Str()
	}

	full, hasFull := priceValue(price.Get("fullPrice"))
	current, hasCurrent := priceValue(price.Get("currentPrice"))
	switch {
	case hasFull:
		p.OriginalPrice = model.FormatPrice(full)
	case hasCurrent:
		p.OriginalPrice = model.FormatPrice(current)
	}
	switch {
	case hasCurrent && hasFull && current.LessThan(full):
		p.DiscountPrice = model.FormatPrice(current)
	case hasCurrent && price.Get("discounted").BoolValue():
		p.DiscountPrice = model.FormatPrice(current)
	}

	p.AvailableColors = colorCount(info.First("colorOptions", "availableColors", "colors"))
	p.ColorShown = merch.Get("colorDescription").Str()
	p.StyleCode = merch.FirstString("styleColor", "styleCode")

	return p
}

// priceValue coerces a numeric or currency-formatted price.
func priceValue(v *Value) (decimal.Decimal, bool) {
	if n, ok := v.Num(); ok {
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	if s := v.Str(); s != "" {
		return model.ParsePrice(s)
	}
	return decimal.Zero, false
}

// extractTags collects distinct labels in first-seen order.
func extractTags(info, merch *Value) string {
	var tags []string
	add := func(label string) {
		if label != "" && !slices.Contains(tags, label) {
			tags = append(tags, label)
		}
	}

	for _, key := range tagKeys {
		v := info.Get(key)
		switch {
		case v.IsList():
			for _, item := range v.Items() {
				if item.IsMap() {
					add(item.FirstString("label", "title", "name"))
				} else {
					add(item.Str())
				}
			}
		default:
			add(v.Str())
		}
	}
	for _, item := range merch.Get("productTags").Items() {
		add(item.Str())
	}

	return strings.Join(tags, model.TagSeparator)
}

func colorCount(v *Value) string {
	if v.IsList() {
		return fmt.Sprintf("%d Colors", len(v.Items()))
	}
	if n, ok := v.Int(); ok {
		return fmt.Sprintf("%d Colors", n)
	}
	return ""
}
